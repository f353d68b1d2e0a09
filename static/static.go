// Package static embeds the site's static assets.
package static

import (
	"embed"
	"net/http"
)

//go:embed css/*.css
var files embed.FS

// FS returns the embedded assets; css/main.css serves as /static/css/main.css.
func FS() http.FileSystem {
	return http.FS(files)
}
