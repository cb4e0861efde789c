// Package devserver serves a directory tree over HTTP for local development.
//
// Files are served by net/http's file server. This package only decides the
// Content-Type of regular files and adds CORS and no-cache headers to every
// response.
package devserver

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/tash-vibe/subway/internal/mimetype"
)

const indexPage = "index.html"

// Handler serves files from a root file system.
type Handler struct {
	root  http.FileSystem
	types *mimetype.Table
	files http.Handler
}

// NewHandler returns a Handler serving root with content types from types.
func NewHandler(root http.FileSystem, types *mimetype.Table) *Handler {
	return &Handler{
		root:  root,
		types: types,
		files: http.FileServer(root),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w = &headerWriter{ResponseWriter: w}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, fmt.Sprintf("Unsupported method ('%s')", r.Method), http.StatusNotImplemented)
		return
	}

	if typ, ok := h.contentType(r.URL.Path); ok {
		// The file server keeps a Content-Type that is already set.
		w.Header().Set("Content-Type", typ)
	}
	h.files.ServeHTTP(w, r)
}

// contentType returns the type of the file the file server will send for
// urlPath. It reports false for directory listings, redirects and missing
// files, which keep the types net/http gives them.
func (h *Handler) contentType(urlPath string) (string, bool) {
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	name := path.Clean(urlPath)
	trailingSlash := strings.HasSuffix(urlPath, "/")

	isDir, ok := h.stat(name)
	if !ok {
		return "", false
	}

	if !isDir {
		// The file server redirects both of these.
		if trailingSlash || strings.HasSuffix(urlPath, "/"+indexPage) {
			return "", false
		}
		return h.types.TypeByPath(name), true
	}

	if !trailingSlash {
		return "", false
	}
	index := path.Join(name, indexPage)
	if isDir, ok := h.stat(index); !ok || isDir {
		return "", false
	}
	return h.types.TypeByPath(index), true
}

// stat reports whether name exists in the root and whether it is a directory.
func (h *Handler) stat(name string) (isDir, ok bool) {
	f, err := h.root.Open(name)
	if err != nil {
		return false, false
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return false, false
	}
	return fi.IsDir(), true
}
