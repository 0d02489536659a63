package api

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"example.com/exercisetracker/internal/domain"
)

//go:embed web
var webFS embed.FS

var publicFS, _ = fs.Sub(webFS, "web/public")

func serveIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, webFS, "web/views/index.html")
}

// serveStaticOrNotFound serves a public asset when one matches the path and
// reports a 404 otherwise.
func serveStaticOrNotFound(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return domain.ErrRouteNotFound
	}
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		return domain.ErrRouteNotFound
	}
	info, err := fs.Stat(publicFS, name)
	if err != nil || info.IsDir() {
		return domain.ErrRouteNotFound
	}
	http.ServeFileFS(w, r, publicFS, name)
	return nil
}
