package httpx

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// CachingFileServer serves the built frontend under dir with cache headers
// suited to an SPA.
func CachingFileServer(dir string) http.Handler {
	return CachingFileServerFS(os.DirFS(dir))
}

// CachingFileServerFS は fs.FS 版です。未知のパス（拡張子なし）は index.html を返します。
func CachingFileServerFS(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestPath := r.URL.Path
		ext := strings.ToLower(path.Ext(requestPath))

		name := strings.TrimPrefix(path.Clean("/"+requestPath), "/")
		if name == "" {
			name = "."
		}

		if fi, err := fs.Stat(fsys, name); err == nil && !fi.IsDir() {
			switch {
			case ext == ".html":
				// HTML は毎回再検証し、デプロイ後すぐ新しい HTML を配る
				w.Header().Set("Cache-Control", "no-cache, max-age=0, must-revalidate")
			case strings.HasPrefix(requestPath, "/assets/") ||
				// ハッシュ付きアセットは長期キャッシュ
				ext == ".js" || ext == ".css" || ext == ".png" || ext == ".jpg" || ext == ".jpeg" || ext == ".svg" || ext == ".webp":
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			default:
				// その他は1時間
				w.Header().Set("Cache-Control", "public, max-age=3600")
			}
			http.ServeFileFS(w, r, fsys, name)
			return
		}

		// Not a file: for SPA routes serve index.html without cache
		if ext == "" || requestPath == "/" {
			if _, err := fs.Stat(fsys, "index.html"); err != nil {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "no-cache, max-age=0, must-revalidate")
			http.ServeFileFS(w, r, fsys, "index.html")
			return
		}
		http.NotFound(w, r)
	})
}
