package web

import (
	"embed"
	"net/http"
)

//go:embed static/index.html
var assets embed.FS

// IndexHandler serves the single-page chat client.
func IndexHandler() http.HandlerFunc {
	page, err := assets.ReadFile("static/index.html")
	if err != nil {
		panic("web: embedded index.html missing: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		w.Write(page)
	}
}
