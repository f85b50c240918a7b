package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownBasics(t *testing.T) {
	html := RenderMarkdown("# Title\n\nsome **bold** text")
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	html := RenderMarkdown("hello <script>alert(1)</script> world")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "hello")
}

func TestRenderMarkdownLinkify(t *testing.T) {
	html := RenderMarkdown("see https://example.com for details")
	assert.Contains(t, html, `<a href="https://example.com"`)
}

func TestSanitizeStrictRemovesMarkup(t *testing.T) {
	assert.Equal(t, "plain", SanitizeStrict("<b>plain</b>"))
}
