package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStrings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := FromStrings("", "")
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, 10, p.Limit)
	})

	t.Run("parses values", func(t *testing.T) {
		p := FromStrings("3", "25")
		assert.Equal(t, 3, p.Page)
		assert.Equal(t, 25, p.Limit)
		assert.Equal(t, 50, p.Offset())
	})

	t.Run("caps limit", func(t *testing.T) {
		p := FromStrings("1", "500")
		assert.Equal(t, 50, p.Limit)
	})

	t.Run("ignores garbage and non-positive values", func(t *testing.T) {
		for _, bad := range []string{"abc", "-1", "0"} {
			p := FromStrings(bad, bad)
			assert.Equal(t, 1, p.Page, "page %q", bad)
			assert.Equal(t, 10, p.Limit, "limit %q", bad)
		}
	})
}

func TestNewEnvelope(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		pages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
	}
	for _, tc := range cases {
		env := NewEnvelope(tc.total, Params{Page: 1, Limit: tc.limit})
		assert.Equal(t, tc.pages, env.Pages, "total=%d", tc.total)
		assert.Equal(t, tc.total, env.Total)
	}
}
