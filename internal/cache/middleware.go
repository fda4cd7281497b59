package cache

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weblog/internal/logger"
)

// Options 控制页面缓存中间件的行为。
type Options struct {
	TTL time.Duration
	// Requests carrying this cookie are treated as logged in and never cached.
	SessionCookie string
	SkipPrefixes  []string
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// replayedHeaders are copied from the handler's response into the stored page.
var replayedHeaders = []string{"Cache-Control", "Vary", "Last-Modified", "ETag", "Link", "Content-Language"}

func captureHeaders(src http.Header) http.Header {
	captured := http.Header{}
	for _, name := range replayedHeaders {
		if values := src.Values(name); len(values) > 0 {
			captured[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	return captured
}

// Middleware serves anonymous GET requests from store and records successful
// responses into it, keyed by request URI.
func Middleware(store Store, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || opts.TTL <= 0 || !cacheable(c, opts) {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		ctx := c.Request.Context()

		page, ok, err := store.Get(ctx, key)
		if err != nil {
			logger.WarnWithFields("page cache read failed", logger.Fields{"key": key, "error": err.Error()})
		}
		if ok {
			for name, values := range page.Header {
				for _, value := range values {
					c.Writer.Header().Add(name, value)
				}
			}
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, page.ContentType, page.Body)
			c.Abort()
			return
		}

		writer := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Next()

		if writer.Status() != http.StatusOK || len(c.Errors) > 0 {
			return
		}
		stored := &Page{
			ContentType: writer.Header().Get("Content-Type"),
			Header:      captureHeaders(writer.Header()),
			Body:        writer.body.Bytes(),
		}
		if err := store.Set(ctx, key, stored, opts.TTL); err != nil {
			logger.WarnWithFields("page cache write failed", logger.Fields{"key": key, "error": err.Error()})
		}
	}
}

func cacheable(c *gin.Context, opts Options) bool {
	if c.Request.Method != http.MethodGet {
		return false
	}
	path := c.Request.URL.Path
	for _, prefix := range opts.SkipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	if opts.SessionCookie != "" {
		if _, err := c.Cookie(opts.SessionCookie); err == nil {
			return false
		}
	}
	return true
}
