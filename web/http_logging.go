// ABOUTME: HTTP logging middleware emitting one key=value line per request with a request id.
// ABOUTME: Reuses an incoming X-Request-Id or assigns a fresh UUID and echoes it on the response.
package web

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				status := rec.status
				if status == 0 {
					status = http.StatusOK
				}
				if rvr := recover(); rvr != nil {
					logger.Printf("web request aborted id=%s method=%s path=%s duration=%s",
						id, r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
					panic(rvr)
				}
				logger.Printf("web request id=%s method=%s path=%s status=%d bytes=%d duration=%s remote=%s",
					id,
					r.Method,
					r.URL.Path,
					status,
					rec.bytes,
					time.Since(start).Round(time.Microsecond),
					r.RemoteAddr,
				)
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
