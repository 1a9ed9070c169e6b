package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaKind(t *testing.T) {
	tests := map[string]MediaKind{
		"film":   KindFilm,
		"movie":  KindFilm,
		"TV":     KindSeries,
		"series": KindSeries,
	}
	for in, want := range tests {
		got, err := ParseMediaKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseMediaKind("person")
	assert.Error(t, err)
}

func TestMediaKind_SourceType(t *testing.T) {
	assert.Equal(t, "movie", KindFilm.SourceType())
	assert.Equal(t, "tv", KindSeries.SourceType())
}

func TestExternalKey(t *testing.T) {
	r := ExternalRecord{ExternalID: 550, Kind: KindFilm}
	assert.Equal(t, "film/550", r.Key())

	entry := CatalogEntry{ExternalID: 1399, Kind: KindSeries}
	assert.Equal(t, "series/1399", entry.ExternalKey())
}

func TestWithID_WithoutID(t *testing.T) {
	base := []string{"usr-a", "usr-b"}

	added := WithID(base, "usr-c")
	assert.Equal(t, []string{"usr-a", "usr-b", "usr-c"}, added)
	assert.Equal(t, []string{"usr-a", "usr-b"}, base)

	assert.Equal(t, base, WithID(base, "usr-a"))
	assert.Equal(t, []string{"usr-b"}, WithoutID(base, "usr-a"))
	assert.Empty(t, WithoutID(nil, "usr-a"))
}

func TestUserProfile_Summary(t *testing.T) {
	p := UserProfile{ID: "usr-a", Username: "ana", Following: []string{"usr-b"}, Followers: []string{"usr-b", "usr-c"}}
	s := p.Summary()
	assert.Equal(t, 2, s.FollowerCount)
	assert.Equal(t, 1, s.FollowingCount)
	assert.Len(t, s.AvatarColor, 7)
	assert.True(t, p.IsFollowing("usr-b"))
	assert.False(t, p.InWatchlist("ctl-x"))
}
