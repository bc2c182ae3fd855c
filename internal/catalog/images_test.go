package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMain(t *testing.T) {
	t.Run("first flagged image wins", func(t *testing.T) {
		out := NormalizeMain([]ImageInput{
			{URL: "a"},
			{URL: "b", IsMain: true},
			{URL: "c", IsMain: true},
		})

		assert.False(t, out[0].IsMain)
		assert.True(t, out[1].IsMain)
		assert.False(t, out[2].IsMain)
	})

	t.Run("defaults to the first image", func(t *testing.T) {
		out := NormalizeMain([]ImageInput{{URL: "a"}, {URL: "b"}})
		assert.True(t, out[0].IsMain)
		assert.False(t, out[1].IsMain)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NormalizeMain(nil))
	})

	t.Run("does not mutate its argument", func(t *testing.T) {
		in := []ImageInput{{URL: "a"}, {URL: "b", IsMain: true}, {URL: "c", IsMain: true}}
		NormalizeMain(in)
		assert.True(t, in[2].IsMain)
	})
}

func TestMainURL(t *testing.T) {
	assert.Equal(t, "b", MainURL([]ImageInput{{URL: "a"}, {URL: "b", IsMain: true}}))
	assert.Equal(t, "", MainURL([]ImageInput{{URL: "a"}}))
	assert.Equal(t, "", MainURL(nil))
}

func TestPlanImages(t *testing.T) {
	existing := []Image{
		{ID: "1", URL: "a", Position: 0},
		{ID: "2", URL: "b", Position: 1},
		{ID: "3", URL: "c", Position: 2},
	}

	t.Run("positions follow the desired order, not the old row count", func(t *testing.T) {
		plan := PlanImages(existing, []ImageInput{
			{URL: "c"},
			{URL: "a"},
			{URL: "d"},
		})

		assert.ElementsMatch(t, []string{"2"}, plan.Delete)
		assert.Len(t, plan.Insert, 1)
		assert.Equal(t, "d", plan.Insert[0].URL)

		// The new image lands right after the kept ones; deleting b must
		// not leave a gap or collide with a kept row.
		assert.Equal(t, 0, plan.Position("c"))
		assert.Equal(t, 1, plan.Position("a"))
		assert.Equal(t, 2, plan.Position("d"))
	})

	t.Run("positions are contiguous after replacing everything", func(t *testing.T) {
		plan := PlanImages(existing, []ImageInput{{URL: "x"}, {URL: "y"}})

		assert.Len(t, plan.Delete, 3)
		assert.Equal(t, 0, plan.Position("x"))
		assert.Equal(t, 1, plan.Position("y"))
	})

	t.Run("normalizes the main flag", func(t *testing.T) {
		plan := PlanImages(nil, []ImageInput{{URL: "a"}, {URL: "b"}})
		assert.Equal(t, "a", MainURL(plan.Images))
	})
}

func TestDiffImages(t *testing.T) {
	existing := []Image{
		{ID: "1", URL: "a"},
		{ID: "2", URL: "b"},
		{ID: "3", URL: "c"},
	}

	t.Run("mixed diff", func(t *testing.T) {
		toDelete, toInsert := DiffImages(existing, []ImageInput{
			{URL: "a"},
			{URL: "d"},
		})

		assert.ElementsMatch(t, []string{"2", "3"}, toDelete)
		assert.Len(t, toInsert, 1)
		assert.Equal(t, "d", toInsert[0].URL)
	})

	t.Run("no changes", func(t *testing.T) {
		toDelete, toInsert := DiffImages(existing, []ImageInput{
			{URL: "a"}, {URL: "b"}, {URL: "c"},
		})
		assert.Empty(t, toDelete)
		assert.Empty(t, toInsert)
	})

	t.Run("clear all", func(t *testing.T) {
		toDelete, toInsert := DiffImages(existing, nil)
		assert.Len(t, toDelete, 3)
		assert.Empty(t, toInsert)
	})

	t.Run("from scratch", func(t *testing.T) {
		toDelete, toInsert := DiffImages(nil, []ImageInput{{URL: "a"}})
		assert.Empty(t, toDelete)
		assert.Len(t, toInsert, 1)
	})
}
