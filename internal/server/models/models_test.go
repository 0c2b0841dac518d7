package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	var body struct {
		ParentID ID `json:"parentId"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"parentId": 0}`), &body))
	assert.Equal(t, RootID, body.ParentID)
	assert.True(t, body.ParentID.IsRoot())

	require.NoError(t, json.Unmarshal([]byte(`{"parentId": "5f0e6c2a-1111-4222-8333-444455556666"}`), &body))
	assert.Equal(t, ID("5f0e6c2a-1111-4222-8333-444455556666"), body.ParentID)
	assert.False(t, body.ParentID.IsRoot())

	require.NoError(t, json.Unmarshal([]byte(`{"parentId": null}`), &body))
	assert.True(t, body.ParentID.IsRoot())

	require.Error(t, json.Unmarshal([]byte(`{"parentId": true}`), &body))
}

func TestFileType_Valid(t *testing.T) {
	assert.True(t, FileTypeFolder.Valid())
	assert.True(t, FileTypeFile.Valid())
	assert.True(t, FileTypeImage.Valid())
	assert.False(t, FileType("video").Valid())
	assert.False(t, FileType("").Valid())
}

func TestThumbnailWidths(t *testing.T) {
	for _, w := range []int{100, 250, 500} {
		assert.True(t, IsThumbnailWidth(w))
	}
	assert.False(t, IsThumbnailWidth(999))
	assert.Equal(t, "abc_250", DerivativeKey("abc", 250))
}
