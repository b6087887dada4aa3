package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpires(t *testing.T) {
	c, err := NewTTLCache[string, int](2, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheEvictsLeastRecent(t *testing.T) {
	c, err := NewTTLCache[string, int](2, time.Minute)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestNewTTLCacheRejectsZeroSize(t *testing.T) {
	_, err := NewTTLCache[string, int](0, time.Minute)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("12")
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	for _, in := range []string{"", "abc", "0", "-3"} {
		_, ok := ParseID(in)
		assert.False(t, ok, in)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("**bold** <script>alert(1)</script>"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestEnhanceHTMLContent(t *testing.T) {
	out := string(RenderMarkdown("![cat](https://example.com/cat.png)"))
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)

	out = string(RenderMarkdown("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Contains(t, out, `https://www.youtube.com/embed/dQw4w9WgXcQ`)

	out = string(RenderMarkdown("https://youtu.be/dQw4w9WgXcQ"))
	assert.Contains(t, out, `https://www.youtube.com/embed/dQw4w9WgXcQ`)

	// 非法 ID 不做替换
	out = string(RenderMarkdown(`https://youtu.be/"><script>`))
	assert.NotContains(t, out, "<iframe")
	assert.NotContains(t, out, "<script>")

	assert.Equal(t, "", string(EnhanceHTMLContent("")))
}
