package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// shellServer serves the page shell. Asset paths that exist are served as-is;
// everything else falls back to index.html so client-side routes like
// /watch/<videoId> load the shell.
type shellServer struct {
	fileServer http.Handler
	fileSystem fs.FS
}

func newShellServer(fsys fs.FS) *shellServer {
	return &shellServer{
		fileServer: http.FileServer(http.FS(fsys)),
		fileSystem: fsys,
	}
}

func (s *shellServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}

	if _, err := fs.Stat(s.fileSystem, path); err != nil {
		r.URL.Path = "/"
	}

	s.fileServer.ServeHTTP(w, r)
}
