package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortKey_Param(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-published_at", SortDescending.Param())
	assert.Equal(t, "published_at", SortAscending.Param())
	assert.Equal(t, "desc", SortDescending.String())
	assert.Equal(t, "asc", SortAscending.String())
}

func TestParseSortKey(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]SortKey{
		"desc":          SortDescending,
		"newest":        SortDescending,
		"-published_at": SortDescending,
		"asc":           SortAscending,
		"oldest":        SortAscending,
		"published_at":  SortAscending,
	} {
		got, err := ParseSortKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSortKey("price")
	assert.Error(t, err)
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var a Article
	err := json.Unmarshal([]byte(`{"id":7,"title":"t","published_at":"2022-09-20 20:26:20"}`), &a)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 9, 20, 20, 26, 20, 0, time.UTC), a.PublishedAt.Time)

	err = json.Unmarshal([]byte(`{"published_at":"2023-01-02T03:04:05Z"}`), &a)
	require.NoError(t, err)
	assert.Equal(t, 2023, a.PublishedAt.Year())

	var empty Article
	err = json.Unmarshal([]byte(`{"published_at":null}`), &empty)
	require.NoError(t, err)
	assert.True(t, empty.PublishedAt.IsZero())

	err = json.Unmarshal([]byte(`{"published_at":"yesterday"}`), &a)
	assert.Error(t, err)
}

func TestArticle_Thumbnail(t *testing.T) {
	t.Parallel()

	a := Article{
		SmallImage:  []Image{{URL: "small.jpg"}},
		MediumImage: []Image{{URL: ""}, {URL: "medium.jpg"}},
	}
	assert.Equal(t, "medium.jpg", a.Thumbnail())

	a.MediumImage = nil
	assert.Equal(t, "small.jpg", a.Thumbnail())

	assert.Empty(t, Article{}.Thumbnail())
}
