// Package web serves the landing page and its static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var content embed.FS

// RegisterRoutes mounts the landing page at / and assets under /public/.
func RegisterRoutes(mux *http.ServeMux) {
	static, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	public, err := fs.Sub(static, "public")
	if err != nil {
		panic(err)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})
	mux.Handle("GET /public/", http.StripPrefix("/public/", http.FileServerFS(public)))
}
