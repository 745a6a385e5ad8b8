package server

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

//go:embed static/*
var staticFiles embed.FS

// asset is one embedded file with its precomputed validator
type asset struct {
	data        []byte
	contentType string
	etag        string
}

// assets holds the stylesheet and other static files, read once at startup
type assets map[string]asset

func loadAssets() (assets, error) {
	root, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub filesystem: %w", err)
	}

	loaded := assets{}
	err = fs.WalkDir(root, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(root, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		ctype := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
		if ctype == "" {
			ctype = http.DetectContentType(data)
		}
		if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
			ctype += "; charset=utf-8"
		}
		sum := sha256.Sum256(data)
		loaded[name] = asset{data: data, contentType: ctype, etag: `"` + hex.EncodeToString(sum[:8]) + `"`}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// serve writes the named asset, answering a matching If-None-Match with 304
func (a assets) serve(w http.ResponseWriter, r *http.Request, name string) bool {
	file, ok := a[name]
	if !ok {
		return false
	}
	w.Header().Set("ETag", file.etag)
	if r.Header.Get("If-None-Match") == file.etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	w.Header().Set("Content-Type", file.contentType)
	if r.Method != http.MethodHead {
		_, _ = w.Write(file.data)
	}
	return true
}
