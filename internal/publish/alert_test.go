package publish_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/fep/internal/publish"
)

func TestAlertMarshalOmitsEmptyArtifactURLs(t *testing.T) {
	a := publish.Alert{
		EventID:   "ev1",
		Camera:    "front_door",
		Label:     "person",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		Zones:     []string{"porch"},
		Reason:    "admit",
	}

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.NotContains(t, raw, "snapshot_url")
	assert.NotContains(t, raw, "clip_url")
	assert.NotContains(t, raw, "sub_label")
	assert.Equal(t, "ev1", raw["event_id"])
	assert.Equal(t, []any{"porch"}, raw["zones"])
}

func TestAlertMarshalIncludesArtifactURLsWhenSet(t *testing.T) {
	a := publish.Alert{
		EventID:     "ev2",
		Camera:      "backyard",
		Label:       "car",
		SubLabel:    "sedan",
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
		Zones:       []string{},
		SnapshotURL: "/api/events/ev2/snapshot.jpg",
		ClipURL:     "/api/events/ev2/clip.mp4",
		Reason:      "admit",
	}

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "/api/events/ev2/snapshot.jpg", raw["snapshot_url"])
	assert.Equal(t, "/api/events/ev2/clip.mp4", raw["clip_url"])
	assert.Equal(t, "sedan", raw["sub_label"])
}
