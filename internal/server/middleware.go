package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tasklist/internal/logger"
	"tasklist/internal/storage"
)

const (
	requestIDHeader = "X-Request-ID"
	sessionKey      = "storage.session"
)

func (s *Server) recoverMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error("panic while handling request",
			"path", c.Request.URL.Path, "panic", recovered)
		s.abortInternal(c)
	})
}

// requestIDMiddleware tags the request with an id, echoed in the response and
// attached to the request logger.
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		ctx := logger.ContextWithLogger(c.Request.Context(), s.log.With("request_id", id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// panicStatus reports the status a request will end with, counting a panic
// still in flight as a 500 since recovery has not written it yet.
func panicStatus(c *gin.Context, recovered any) int {
	if recovered != nil {
		return http.StatusInternalServerError
	}
	return c.Writer.Status()
}

func (s *Server) accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			recovered := recover()
			status := panicStatus(c, recovered)
			keyvals := []any{
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", status,
				"latency", time.Since(start),
				"body_size", c.Writer.Size(),
				"client_ip", c.ClientIP(),
			}
			if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
				keyvals = append(keyvals, "error", msg)
			}
			log := logger.FromContext(c.Request.Context())
			if status >= http.StatusInternalServerError {
				log.Error("request completed", keyvals...)
			} else {
				log.Info("request completed", keyvals...)
			}
			if recovered != nil {
				panic(recovered)
			}
		}()
		c.Next()
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			recovered := recover()
			s.metrics.ObserveRequest(c.Request.Method, c.FullPath(), panicStatus(c, recovered), time.Since(start))
			if recovered != nil {
				panic(recovered)
			}
		}()
		c.Next()
	}
}

// sessionMiddleware scopes one storage session to the request. The connection
// is only taken from the pool if a handler asks for it, and is always released.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.store.Session()
		defer func() {
			if err := sess.Close(); err != nil {
				logger.FromContext(c.Request.Context()).Warn("close session", "error", err)
			}
		}()
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *storage.Session {
	sess, _ := c.MustGet(sessionKey).(*storage.Session)
	return sess
}

// releaseSession hands the connection back before the response is written,
// so a slow client does not hold the pool's only connection.
func releaseSession(c *gin.Context) {
	if err := sessionFrom(c).Close(); err != nil {
		logger.FromContext(c.Request.Context()).Warn("close session", "error", err)
	}
}
