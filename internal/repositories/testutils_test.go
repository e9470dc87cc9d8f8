package repositories

import (
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*db.Database, *slog.Logger) {
	t.Helper()
	dbs, err := db.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dbs.Close()
	})
	return dbs, testhelpers.NewLogger(io.Discard)
}
