package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentitySetJSONCollapsesDuplicates(t *testing.T) {
	var s IdentitySet
	require.NoError(t, json.Unmarshal([]byte(`["b","a","b"]`), &s))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(out))
}

func TestIdentitySetNullIsEmpty(t *testing.T) {
	var s IdentitySet
	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
}

func TestPostCloneIsDeep(t *testing.T) {
	edited := time.Now()
	p := Post{
		ID:      1,
		LikedBy: NewIdentitySet("1.1.1.1"),
		Comments: []Comment{
			{ID: 1, Text: "hi", Edited: true, EditedAt: &edited},
		},
	}

	cp := p.Clone()
	cp.LikedBy.Add("2.2.2.2")
	cp.Comments[0].Text = "changed"
	*cp.Comments[0].EditedAt = edited.Add(time.Hour)

	assert.Equal(t, 1, p.LikedBy.Len())
	assert.Equal(t, "hi", p.Comments[0].Text)
	assert.True(t, p.Comments[0].EditedAt.Equal(edited))
}
