package pages

import "embed"

//go:embed *.html
var FS embed.FS
