package server

import (
	"io/fs"
	"net/http"
	"strings"
)

type staticFileServer struct {
	fileServer http.Handler
	fileSystem fs.FS
}

func newStaticFileServer(fsys fs.FS) *staticFileServer {
	return &staticFileServer{
		fileServer: http.FileServer(http.FS(fsys)),
		fileSystem: fsys,
	}
}

// ServeHTTP serves files only. Directory listings and unknown paths are 404s.
func (s *staticFileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	info, err := fs.Stat(s.fileSystem, path)
	if path == "" || err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.fileServer.ServeHTTP(w, r)
}
