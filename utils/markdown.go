package utils

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdown renderer configured with Goldmark. Raw HTML passthrough stays
// disabled; output is additionally sanitized before leaving the server.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
)

// RenderMarkdown converts a markdown details field to sanitized HTML for
// public views. On a converter error the raw text is returned stripped of
// markup rather than failing the request.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return SanitizeStrict(source)
	}
	return Sanitize(buf.String())
}
