package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// compressJSON сжимает только JSON-ответы.
var compressJSON = chimiddleware.Compress(5, "application/json")

type gzipBody struct {
	*gzip.Reader
	orig io.ReadCloser
}

func (b *gzipBody) Close() error {
	_ = b.Reader.Close()
	return b.orig.Close()
}

// decompressRequest распаковывает тело запроса с Content-Encoding: gzip.
// Повреждённое тело отклоняется с 400 до вызова обработчика.
func decompressRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			r.Body = &gzipBody{Reader: zr, orig: r.Body}
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1
		}
		next.ServeHTTP(w, r)
	})
}

// GzipMiddleware распаковывает тело запроса с Content-Encoding: gzip
// и сжимает JSON-ответ, если клиент его принимает.
func GzipMiddleware(next http.Handler) http.Handler {
	return compressJSON(decompressRequest(next))
}
