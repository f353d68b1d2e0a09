// Package views embeds the application's HTML templates so handlers and
// tests can render them without depending on the working directory.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html */*.html
var files embed.FS

// Engine returns a template engine over the embedded views.
func Engine() *html.Engine {
	return html.NewFileSystem(http.FS(files), ".html")
}
