package webassets

import "embed"

// FS contains embedded web assets from this directory.

//go:embed badge-flat.svg.tmpl feed-client.js
var FS embed.FS
