package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RegisterHealthRoutes registers the liveness endpoint
func RegisterHealthRoutes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// RegisterWebRoutes serves the built single-page web client from staticDir.
// Existing files are served as is; any other non-API path falls back to index.html
// so client-side routes survive a reload.
func RegisterWebRoutes(r chi.Router, staticDir string) {
	fileServer := http.FileServer(http.Dir(staticDir))
	index := filepath.Join(staticDir, "index.html")

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") {
			http.NotFound(w, req)
			return
		}

		clean := filepath.Clean("/" + req.URL.Path)
		info, err := os.Stat(filepath.Join(staticDir, filepath.FromSlash(clean)))
		if err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, req)
			return
		}

		http.ServeFile(w, req, index)
	})
}
