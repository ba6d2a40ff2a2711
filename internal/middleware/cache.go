package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const CacheHeader = "X-Cache"

type bodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// pageCacheKey varies by viewer since the header shows who is logged in.
func pageCacheKey(c *gin.Context) string {
	return "page:" + strconv.FormatUint(uint64(CurrentUserID(c)), 10) + ":" + c.Request.URL.RequestURI()
}

// CachePage serves GET responses from store for ttl. Only 200 responses are
// stored and entries are never invalidated early.
func CachePage(store utils.Cache, ttl time.Duration, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || ttl <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := pageCacheKey(c)

		data, ok, err := store.Get(ctx, key)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("page cache read failed")
		} else if ok {
			c.Header(CacheHeader, "HIT")
			c.Data(http.StatusOK, "text/html; charset=utf-8", data)
			c.Abort()
			return
		}

		w := &bodyWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w
		c.Header(CacheHeader, "MISS")

		c.Next()

		if w.Status() != http.StatusOK {
			return
		}
		if err := store.Set(ctx, key, w.body.Bytes(), ttl); err != nil {
			log.WithError(err).WithField("key", key).Warn("page cache write failed")
		}
	}
}
