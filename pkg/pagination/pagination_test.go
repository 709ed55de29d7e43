package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}

	parsed, err := ParseCursor(EncodeCursor(c))
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, c.CreatedAt.Equal(parsed.CreatedAt))
	assert.Equal(t, c.ID, parsed.ID)
}

func TestParseCursorErrors(t *testing.T) {
	parsed, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, parsed)

	_, err = ParseCursor("%%%")
	assert.Error(t, err)

	_, err = ParseCursor("bm8tc2VwYXJhdG9y")
	assert.Error(t, err)
}

func TestTrim(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	base := time.Now().UTC()
	rows := []row{{uuid.New(), base}, {uuid.New(), base.Add(-time.Minute)}, {uuid.New(), base.Add(-2 * time.Minute)}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	kept, next := Trim(rows, 2, key)
	require.Len(t, kept, 2)
	require.NotEmpty(t, next)
	c, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].id, c.ID)

	kept, next = Trim(rows, 5, key)
	assert.Len(t, kept, 3)
	assert.Empty(t, next)
}
