package middleware

import (
	"io"
	"net/http"

	"github.com/drstein77/fitstore/internal/compress"
)

// ArchiveType reads the archiveType query parameter; zip unless tar is asked for.
func ArchiveType(r *http.Request) string {
	if r.URL.Query().Get("archiveType") == "tar" {
		return "tar"
	}
	return "zip"
}

// ArchiveTypeMiddleware unpacks a zip or tar request body announced by
// Content-Encoding, so handlers always read plain CSV.
func ArchiveTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		CreateDecompressMiddleware(ArchiveType(r))(next).ServeHTTP(w, r)
	})
}

func CreateDecompressMiddleware(compressionType string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Encoding") != compressionType {
				h.ServeHTTP(w, r)
				return
			}

			var (
				cr  io.ReadCloser
				err error
			)
			switch compressionType {
			case "tar":
				cr, err = compress.NewTarReader(r.Body)
			case "zip":
				cr, err = compress.NewZipReader(r.Body)
			default:
				h.ServeHTTP(w, r)
				return
			}
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"detail":"invalid `+compressionType+` archive"}`)
				return
			}
			defer cr.Close()

			r.Body = cr
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1
			h.ServeHTTP(w, r)
		})
	}
}

// ArchiveWriter wraps w in the archive format named by archiveType; the
// archive holds a single entry called fileName.
func ArchiveWriter(w io.Writer, archiveType, fileName string) (io.WriteCloser, error) {
	if archiveType == "tar" {
		return compress.NewTarWriter(w, fileName), nil
	}
	return compress.NewZipWriter(w, fileName)
}
