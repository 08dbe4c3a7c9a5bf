package page

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/lectern/internal/config"
)

func mustSheet(t *testing.T, kv ...any) *config.Sheet {
	t.Helper()
	sheet := config.Default()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, sheet.SetOption(kv[i].(string), kv[i+1]))
	}
	return sheet
}
