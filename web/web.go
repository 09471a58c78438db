// Package web embeds the map page templates and static assets.
package web

import "embed"

// FS holds templates/ and static/.
//
//go:embed templates static
var FS embed.FS

// TemplatePatterns are the globs the renderer parses from FS.
var TemplatePatterns = []string{"templates/*.html", "templates/fragments/*.html"}
