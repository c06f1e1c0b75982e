package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

// Recovery перехватывает панику обработчика и отвечает 500
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("HTTP handler panic", fmt.Errorf("%v", rec),
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", RequestID(r),
					"stack", string(debug.Stack()),
				)
				if !wrapped.wroteHeader {
					http.Error(wrapped, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}
