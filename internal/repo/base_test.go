package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	return conn
}

type ctxKey struct{}

func TestBaseDBBindsContext(t *testing.T) {
	base := NewBase(newTestDB(t))

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	scoped := base.DB(ctx)
	require.NotNil(t, scoped.Statement)
	assert.Equal(t, "value", scoped.Statement.Context.Value(ctxKey{}))
}
