package rope

import "unicode/utf8"

// Summary holds aggregated metrics for a text span.
// It is the monoid carried by every node of the tree.
type Summary struct {
	// Bytes is the UTF-8 byte count.
	Bytes int

	// Runes is the code point count.
	Runes int

	// Lines is the number of newline characters.
	Lines int
}

// Add combines two summaries.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Bytes: s.Bytes + other.Bytes,
		Runes: s.Runes + other.Runes,
		Lines: s.Lines + other.Lines,
	}
}

// Summarize calculates metrics for a string.
func Summarize(s string) Summary {
	sum := Summary{Bytes: len(s)}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\n' {
			sum.Lines++
		}
		// Count every byte that starts a code point.
		if c < utf8.RuneSelf || utf8.RuneStart(c) {
			sum.Runes++
		}
	}
	return sum
}

// byteIndex returns the byte index of the rune at offset n in s.
// Offsets past the end return len(s).
func byteIndex(s string, n int) int {
	if n <= 0 {
		return 0
	}
	i := 0
	for idx := range s {
		if i == n {
			return idx
		}
		i++
	}
	return len(s)
}
