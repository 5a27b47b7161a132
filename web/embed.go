package web

import "embed"

// Templates embeds HTML templates.
//
//go:embed templates/*/*.html
var Templates embed.FS

// Static embeds the stylesheet and the order form script.
//
//go:embed static
var Static embed.FS
