package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TimeoutMiddleware adds a request timeout so a stuck handler cannot hold the
// connection open. The handler keeps running in the background until it
// notices its context is done; anything it writes after the timeout is dropped.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			tw := &timeoutWriter{w: w, h: make(http.Header)}
			done := make(chan struct{})
			go func() {
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case <-done:
				tw.flushHeader()
			case <-ctx.Done():
				if !tw.timeout() {
					// the handler is mid-response, let it finish
					<-done
					return
				}
				zap.S().Warnw("Request timeout",
					"path", r.URL.Path,
					"method", r.Method,
					"timeout", timeout,
					"error", ctx.Err())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				w.Write([]byte(`{"error": "Request timeout", "message": "The request took too long to process"}`))
			}
		})
	}
}

// timeoutWriter buffers the handler's headers in its own map so a late
// handler never touches the header map the timeout response is written with
type timeoutWriter struct {
	w        http.ResponseWriter
	h        http.Header
	mu       sync.Mutex
	wrote    bool
	timedOut bool
}

// timeout marks the writer as timed out unless the handler already started
// writing, in which case the handler's response stands
func (tw *timeoutWriter) timeout() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.wrote {
		return false
	}
	tw.timedOut = true
	return true
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.h
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.wrote {
		return
	}
	tw.writeHeaderLocked(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.wrote {
		tw.writeHeaderLocked(http.StatusOK)
	}
	return tw.w.Write(b)
}

// flushHeader copies headers set by a handler that returned without writing
func (tw *timeoutWriter) flushHeader() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if !tw.wrote && !tw.timedOut {
		tw.copyHeader()
	}
}

func (tw *timeoutWriter) writeHeaderLocked(code int) {
	tw.copyHeader()
	tw.wrote = true
	tw.w.WriteHeader(code)
}

func (tw *timeoutWriter) copyHeader() {
	dst := tw.w.Header()
	for k, v := range tw.h {
		dst[k] = v
	}
}
