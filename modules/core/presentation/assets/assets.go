package assets

import (
	"embed"

	"github.com/benbjohnson/hashfs"
)

//go:embed css/*.css js/*.js
var FS embed.FS

var HashFS = hashfs.NewFS(FS)
