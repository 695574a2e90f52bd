package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EchoFM/model"
)

func fullRawSong() RawSong {
	return RawSong{
		ID:   "s1",
		Name: "Save Your Tears",
		Artists: &ArtistRefs{Primary: []ArtistRef{
			{ID: "a1", Name: "The Weeknd"},
			{ID: "a2", Name: "Ariana Grande"},
		}},
		Album: AlbumRef{ID: "al1", Name: "After Hours"},
		Image: ImageField{Links: []QualityLink{
			{Quality: "50x50", URL: "https://img/50x50/x.jpg"},
			{Quality: "150x150", URL: "https://img/150x150/x.jpg"},
			{Quality: "500x500", URL: "https://img/500x500/x.jpg"},
		}},
		DownloadURL: []QualityLink{
			{Quality: "12kbps", URL: "https://aac.saavncdn.com/s1_12.mp4"},
			{Quality: "48kbps", URL: "https://aac.saavncdn.com/s1_48.mp4"},
			{Quality: "96kbps", URL: "https://aac.saavncdn.com/s1_96.mp4"},
			{Quality: "160kbps", URL: "https://aac.saavncdn.com/s1_160.mp4"},
			{Quality: "320kbps", URL: "https://aac.saavncdn.com/s1_320.mp4"},
		},
		Duration: 215,
		Language: "english",
		Year:     "2020",
	}
}

func TestSlimSongJoinsPrimaryArtists(t *testing.T) {
	raw := fullRawSong()
	slim := SlimSong(&raw, model.QualityMedium)

	assert.Equal(t, "The Weeknd, Ariana Grande", slim.Artist)
	assert.Equal(t, "a1", slim.ArtistID)
	assert.Equal(t, "After Hours", slim.Album)
	assert.Equal(t, "al1", slim.AlbumID)
	assert.Equal(t, 215, slim.Duration)
}

func TestSlimSongUnknownArtistFallback(t *testing.T) {
	raw := RawSong{ID: "s1", Name: "Mystery"}
	slim := SlimSong(&raw, model.QualityMedium)
	assert.Equal(t, "Unknown Artist", slim.Artist)
}

func TestSlimSongFlatArtistField(t *testing.T) {
	raw := RawSong{ID: "s1", Name: "Old Shape", Artist: "Solo Act"}
	slim := SlimSong(&raw, model.QualityMedium)
	assert.Equal(t, "Solo Act", slim.Artist)
}

func TestSlimSongStreamTiers(t *testing.T) {
	raw := fullRawSong()

	low := SlimSong(&raw, model.QualityLow)
	assert.Contains(t, low.StreamURL, "_48.")

	med := SlimSong(&raw, model.QualityMedium)
	assert.Contains(t, med.StreamURL, "_96.")

	high := SlimSong(&raw, model.QualityHigh)
	assert.Contains(t, high.StreamURL, "_320.")
}

func TestSlimSongUnescapesHTMLEntities(t *testing.T) {
	raw := RawSong{ID: "s1", Name: "Don&amp;#39;t Stop"}
	slim := SlimSong(&raw, model.QualityMedium)
	assert.NotContains(t, slim.Title, "&amp;")
}

func TestNormalizeStreamURLDropsImages(t *testing.T) {
	assert.Equal(t, "", normalizeStreamURL("https://c.saavncdn.com/cover.jpg"))
	assert.Equal(t, "", normalizeStreamURL("https://c.saavncdn.com/cover.png"))
}

func TestNormalizeStreamURLForcesCDNHost(t *testing.T) {
	got := normalizeStreamURL("http://h.saavncdn.com/123/song_160.mp4")
	assert.Equal(t, "https://aac.saavncdn.com/123/song_160.mp4", got)
}

func TestSlimSongsDropsEntriesWithoutIDOrTitle(t *testing.T) {
	raw := []RawSong{
		{ID: "", Name: "No ID"},
		{ID: "s2", Name: ""},
		{ID: "s3", Name: "Keeper"},
	}
	slim := SlimSongs(raw, model.QualityMedium)
	require.Len(t, slim, 1)
	assert.Equal(t, "s3", slim[0].ID)
}

func TestSlimArtist(t *testing.T) {
	raw := RawArtist{ID: "a1", Name: "Artist", FollowerCount: 42}
	slim := SlimArtist(&raw, model.QualityMedium)
	assert.Equal(t, "a1", slim.ID)
	assert.Equal(t, int64(42), slim.Follower)
}

func TestSlimAlbum(t *testing.T) {
	raw := RawAlbum{
		ID:       "al1",
		Name:     "Album",
		Language: "hindi",
		Year:     "2021",
		Artists:  &ArtistRefs{Primary: []ArtistRef{{ID: "a1", Name: "Someone"}}},
	}
	slim := SlimAlbum(&raw, model.QualityMedium)
	assert.Equal(t, "Album", slim.Name)
	assert.Equal(t, "Someone", slim.Artist)
	assert.Equal(t, "hindi", slim.Language)
}
