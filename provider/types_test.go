package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringAcceptsNumbers(t *testing.T) {
	var s struct {
		ID FlexString `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id": 12345}`), &s))
	assert.Equal(t, FlexString("12345"), s.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "abc"}`), &s))
	assert.Equal(t, FlexString("abc"), s.ID)
}

func TestFlexIntAcceptsStrings(t *testing.T) {
	var s struct {
		Duration FlexInt `json:"duration"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"duration": "213"}`), &s))
	assert.Equal(t, FlexInt(213), s.Duration)

	require.NoError(t, json.Unmarshal([]byte(`{"duration": 213}`), &s))
	assert.Equal(t, FlexInt(213), s.Duration)
}

func TestImageFieldListOrFlat(t *testing.T) {
	var flat ImageField
	require.NoError(t, json.Unmarshal([]byte(`"https://img/x.jpg"`), &flat))
	assert.Equal(t, "https://img/x.jpg", flat.Flat)

	var list ImageField
	raw := `[{"quality":"50x50","url":"low"},{"quality":"500x500","url":"high"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	require.Len(t, list.Links, 2)
	assert.Equal(t, "high", list.Links[1].URL)
}

func TestAlbumRefObjectOrString(t *testing.T) {
	var obj AlbumRef
	require.NoError(t, json.Unmarshal([]byte(`{"id":"al1","name":"After Hours"}`), &obj))
	assert.Equal(t, "After Hours", obj.Name)
	assert.Equal(t, FlexString("al1"), obj.ID)

	var flat AlbumRef
	require.NoError(t, json.Unmarshal([]byte(`"After Hours"`), &flat))
	assert.Equal(t, "After Hours", flat.Name)
}

func TestImageFieldMarshalKeepsOriginalShape(t *testing.T) {
	flat, err := json.Marshal(ImageField{Flat: "https://img/x.jpg"})
	require.NoError(t, err)
	assert.JSONEq(t, `"https://img/x.jpg"`, string(flat))

	list, err := json.Marshal(ImageField{Links: []QualityLink{{Quality: "500x500", URL: "high"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"quality":"500x500","url":"high"}]`, string(list))

	empty, err := json.Marshal(ImageField{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(empty))
}

func TestRawSongSurvivesReencoding(t *testing.T) {
	song := RawSong{
		ID:    "s1",
		Name:  "Blinding Lights",
		Image: ImageField{Links: []QualityLink{{Quality: "150x150", URL: "small"}}},
	}
	raw, err := json.Marshal(song)
	require.NoError(t, err)

	var back RawSong
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, song.ID, back.ID)
	require.Len(t, back.Image.Links, 1)
	assert.Equal(t, "small", back.Image.Links[0].URL)
}

func TestRawSongDecodesMixedShapes(t *testing.T) {
	raw := `{
		"id": 900,
		"name": "Blinding Lights",
		"artists": {"primary": [{"id": 7, "name": "The Weeknd"}]},
		"album": "After Hours",
		"duration": "200",
		"image": [{"quality":"150x150","url":"small"}],
		"downloadUrl": [{"quality":"96kbps","url":"u96"}]
	}`
	var song RawSong
	require.NoError(t, json.Unmarshal([]byte(raw), &song))
	assert.Equal(t, FlexString("900"), song.ID)
	require.NotNil(t, song.Artists)
	assert.Equal(t, FlexString("7"), song.Artists.Primary[0].ID)
	assert.Equal(t, "After Hours", song.Album.Name)
	assert.Equal(t, FlexInt(200), song.Duration)
}
