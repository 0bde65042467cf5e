package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/cache"
	"github.com/cppla/yatube/metrics"
	"github.com/cppla/yatube/utils"
)

type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage serves GET responses from store for ttl, keyed by prefix and the
// raw page query parameter. Only 200 responses are stored; writes elsewhere
// never invalidate an entry before it expires.
func CachePage(store cache.Store, ttl time.Duration, prefix string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := prefix + ":page=" + ctx.Query("page")
		if raw, ok := store.Get(ctx.Request.Context(), key); ok {
			var page cachedPage
			if err := json.Unmarshal(raw, &page); err == nil {
				metrics.PageCacheLookups.WithLabelValues(prefix, "hit").Inc()
				ctx.Data(page.Status, page.ContentType, page.Body)
				ctx.Abort()
				return
			}
		}
		metrics.PageCacheLookups.WithLabelValues(prefix, "miss").Inc()

		w := &bodyWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = w
		ctx.Next()

		if w.Status() != http.StatusOK {
			return
		}
		raw, err := json.Marshal(cachedPage{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.Set(ctx.Request.Context(), key, raw, ttl); err != nil {
			utils.Sugar.Warnw("page cache write failed", "key", key, "err", err)
		}
	}
}
