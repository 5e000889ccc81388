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
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{At: time.Date(2026, 3, 1, 9, 30, 0, 123, time.UTC), ID: uuid.New()}

	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.At.Equal(out.At))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	c, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, c)

	for _, bad := range []string{"%%%", "bm8tc2VwYXJhdG9y", "eHx5"} {
		_, err := ParseCursor(bad)
		assert.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}

func TestPage(t *testing.T) {
	type row struct {
		at time.Time
		id uuid.UUID
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]row, 3)
	for i := range rows {
		rows[i] = row{at: base.Add(-time.Duration(i) * time.Hour), id: uuid.New()}
	}
	cursorOf := func(r row) Cursor { return Cursor{At: r.at, ID: r.id} }

	page, next := Page(rows, 2, cursorOf)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	c, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].id, c.ID)

	page, next = Page(rows[:2], 2, cursorOf)
	assert.Len(t, page, 2)
	assert.Empty(t, next)
}
