package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownStripsScripts(t *testing.T) {
	out := string(RenderMarkdown("hello <script>alert(1)</script> **world**"))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<strong>world</strong>")
}

func TestRenderMarkdownHardWraps(t *testing.T) {
	out := string(RenderMarkdown("first line\nsecond line"))
	assert.Contains(t, out, "<br")
}

func TestRenderMarkdownLazyImages(t *testing.T) {
	out := string(RenderMarkdown("![cat](https://example.com/cat.png)"))
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}

func TestEnhanceHTMLContentEmpty(t *testing.T) {
	assert.Empty(t, string(EnhanceHTMLContent("")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 15))
	out := Truncate(strings.Repeat("я", 20), 15)
	assert.Equal(t, strings.Repeat("я", 15)+"…", out)
}
