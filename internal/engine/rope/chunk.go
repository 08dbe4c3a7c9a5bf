package rope

import "unicode/utf8"

// Chunk size constants control the granularity of text storage.
const (
	// MaxChunkSize is the maximum bytes per chunk before splitting.
	MaxChunkSize = 256

	// TargetChunkSize is the preferred chunk size when building.
	TargetChunkSize = 192
)

// chunk is a bounded immutable string stored in a leaf.
type chunk struct {
	data    string
	summary Summary
}

func newChunk(s string) chunk {
	return chunk{data: s, summary: Summarize(s)}
}

// split splits the chunk at rune offset n.
func (c chunk) split(n int) (chunk, chunk) {
	if n <= 0 {
		return chunk{}, c
	}
	if n >= c.summary.Runes {
		return c, chunk{}
	}
	idx := byteIndex(c.data, n)
	return newChunk(c.data[:idx]), newChunk(c.data[idx:])
}

// splitIntoChunks divides s into chunks of roughly TargetChunkSize bytes,
// never cutting through a UTF-8 sequence.
func splitIntoChunks(s string) []chunk {
	if len(s) == 0 {
		return nil
	}
	chunks := make([]chunk, 0, len(s)/TargetChunkSize+1)
	for len(s) > 0 {
		if len(s) <= MaxChunkSize {
			chunks = append(chunks, newChunk(s))
			break
		}
		end := TargetChunkSize
		for end > 0 && !utf8.RuneStart(s[end]) {
			end--
		}
		if end == 0 {
			end = TargetChunkSize
		}
		chunks = append(chunks, newChunk(s[:end]))
		s = s[end:]
	}
	return chunks
}
