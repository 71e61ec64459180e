// Package assets serves the Synergy front-end to the desktop webview.
package assets

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// IndexFile is served for the root and for client-side routes.
const IndexFile = "index.html"

// Options configures the asset handler.
type Options struct {
	// FS holds the built front-end, rooted at the directory containing
	// index.html.
	FS fs.FS

	// DevServerURL, when set, proxies every request to a live dev server
	// instead of serving FS.
	DevServerURL string

	Logger *slog.Logger
}

var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
	".json":  "application/json",
	".map":   "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".ico":   "image/x-icon",
	".svg":   "image/svg+xml",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// New returns the handler the webview loads its pages from.
func New(opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	if opts.DevServerURL != "" {
		proxy, err := devProxy(opts.DevServerURL, logger)
		if err != nil {
			return nil, err
		}
		r.Handle("/*", proxy)
		return r, nil
	}

	if opts.FS == nil {
		return nil, fmt.Errorf("assets: no front-end bundle and no dev server configured")
	}

	r.With(middleware.Timeout(30*time.Second)).Handle("/*", staticHandler(opts.FS))
	return r, nil
}

func staticHandler(bundle fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

		// Paths without an extension are client-side routes.
		if name == "" || path.Ext(name) == "" {
			name = IndexFile
		}

		content, err := fs.ReadFile(bundle, name)
		if err != nil {
			if path.Ext(name) != ".html" {
				http.NotFound(w, r)
				return
			}
			content, err = fs.ReadFile(bundle, IndexFile)
			if err != nil {
				http.NotFound(w, r)
				return
			}
			name = IndexFile
		}

		w.Header().Set("Content-Type", contentType(name))
		if name == IndexFile {
			w.Header().Set("Cache-Control", "no-cache")
		}
		if r.Method == http.MethodHead {
			return
		}
		w.Write(content)
	})
}

func contentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func devProxy(raw string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("assets: parse dev server url: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("assets: dev server url must be http(s), got: %s", raw)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("Dev server unreachable", "url", raw, "path", r.URL.Path, "error", err)
			http.Error(w, "dev server unreachable", http.StatusBadGateway)
		},
	}
	return proxy, nil
}
