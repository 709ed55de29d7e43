package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ctxKey struct{}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:repo_base?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	return conn
}

func TestBaseDB_BindsContext(t *testing.T) {
	base := NewBase(newTestDB(t))

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)
	assert.Equal(t, "value", withCtx.Statement.Context.Value(ctxKey{}))
}

func TestBaseBind_SwapsHandle(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)

	tx := conn.Begin()
	defer tx.Rollback()

	bound := base.Bind(tx)
	assert.Same(t, tx, bound.db)
	assert.Same(t, conn, base.Bind(nil).db)
}
