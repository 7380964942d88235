package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentormind/mentormind-backend/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// syncBuffer lets parallel tests share a log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newBufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: logging.LevelTrace}))

	return logger, buf
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		middleware gin.HandlerFunc
		header     string
		get        func(*gin.Context) string
		logKey     string
	}{
		{
			name:       "request id",
			middleware: RequestID(),
			header:     HeaderRequestID,
			get:        GetRequestID,
			logKey:     "request_id",
		},
		{
			name:       "correlation id",
			middleware: CorrelationID(),
			header:     HeaderCorrelationID,
			get:        GetCorrelationID,
			logKey:     "correlation_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" generated", func(t *testing.T) {
			t.Parallel()

			var captured string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/test", func(c *gin.Context) {
				captured = tt.get(c)
				c.Status(http.StatusOK)
			})

			w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, w.Header().Get(tt.header), captured)

			_, err := uuid.Parse(captured)
			assert.NoError(t, err)
		})

		t.Run(tt.name+" propagated", func(t *testing.T) {
			t.Parallel()

			logger, buf := newBufferLogger()

			router := gin.New()
			router.Use(Recovery(logger), tt.middleware)
			router.GET("/test", func(c *gin.Context) {
				logging.FromContext(c.Request.Context()).Info("handled")
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(tt.header, "upstream-123")

			w := serve(router, req)

			assert.Equal(t, "upstream-123", w.Header().Get(tt.header))
			assert.Contains(t, buf.String(), `"`+tt.logKey+`":"upstream-123"`)
		})
	}
}

func TestGetIDs_NotSet(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Empty(t, GetRequestID(c))
	assert.Empty(t, GetCorrelationID(c))
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		status    int
		skip      []string
		wantLevel string
		wantLog   bool
	}{
		{name: "success", path: "/api/v1/lessons", status: http.StatusOK, wantLevel: "INFO", wantLog: true},
		{name: "client error", path: "/api/v1/lessons", status: http.StatusBadRequest, wantLevel: "WARN", wantLog: true},
		{name: "server error", path: "/api/v1/lessons", status: http.StatusInternalServerError, wantLevel: "ERROR", wantLog: true},
		{name: "probe", path: "/-/ready", status: http.StatusOK},
		{name: "skipped path", path: "/favicon.ico", status: http.StatusOK, skip: []string{"/favicon.ico"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := newBufferLogger()

			router := gin.New()
			router.Use(Recovery(logger), Logging(tt.skip...))
			router.GET(tt.path, func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := serve(router, httptest.NewRequest(http.MethodGet, tt.path+"?limit=5", nil))
			require.Equal(t, tt.status, w.Code)

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}

			out := buf.String()
			assert.Contains(t, out, `"msg":"request completed"`)
			assert.Contains(t, out, `"level":"`+tt.wantLevel+`"`)
			assert.Contains(t, out, `"path":"`+tt.path+`?limit=5"`)
			assert.Contains(t, out, `"route":"`+tt.path+`"`)
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("normal request passes through", func(t *testing.T) {
		t.Parallel()

		logger, buf := newBufferLogger()

		router := gin.New()
		router.Use(Recovery(logger))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, buf.String())
	})

	t.Run("panicking handler returns 500", func(t *testing.T) {
		t.Parallel()

		logger, buf := newBufferLogger()

		router := gin.New()
		router.Use(Recovery(logger))
		router.GET("/test", func(*gin.Context) { panic("something went wrong") })

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
		assert.NotContains(t, w.Body.String(), "something went wrong")
		assert.Contains(t, buf.String(), "panic recovered")
		assert.Contains(t, buf.String(), "something went wrong")
	})

	t.Run("panic after the response started", func(t *testing.T) {
		t.Parallel()

		logger, _ := newBufferLogger()

		router := gin.New()
		router.Use(Recovery(logger))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			panic("late")
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "partial", w.Body.String())
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("sets context deadline", func(t *testing.T) {
		t.Parallel()

		var deadline time.Time

		var ok bool

		router := gin.New()
		router.Use(Timeout(time.Second))
		router.GET("/test", func(c *gin.Context) {
			deadline, ok = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
	})

	t.Run("silent handler past the deadline gets 504", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Timeout(10 * time.Millisecond))
		router.GET("/slow", func(c *gin.Context) {
			<-c.Request.Context().Done()
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), "TIMEOUT")
	})

	t.Run("written response is kept", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Timeout(10 * time.Millisecond))
		router.GET("/slow", func(c *gin.Context) {
			<-c.Request.Context().Done()
			c.String(http.StatusServiceUnavailable, "busy")
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

// fakeSessions records the calls DBSession makes.
type fakeSessions struct {
	closeErr error

	mu       sync.Mutex
	bound    int
	closed   int
	closeCtx context.Context
}

type boundKey struct{}

func (f *fakeSessions) BindLazy(ctx context.Context) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bound++

	return context.WithValue(ctx, boundKey{}, f.bound)
}

func (f *fakeSessions) Close(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closeCtx = ctx

	if f.closeErr != nil {
		return false, f.closeErr
	}

	f.closed++

	return true, nil
}

func TestDBSession(t *testing.T) {
	t.Parallel()

	t.Run("binds before and closes after the handler", func(t *testing.T) {
		t.Parallel()

		sessions := &fakeSessions{}

		var handlerCtx context.Context

		router := gin.New()
		router.Use(DBSession(sessions))
		router.GET("/test", func(c *gin.Context) {
			handlerCtx = c.Request.Context()

			sessions.mu.Lock()
			assert.Equal(t, 1, sessions.bound)
			assert.Equal(t, 0, sessions.closed)
			sessions.mu.Unlock()

			c.Status(http.StatusOK)
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, sessions.closed)
		assert.Equal(t, 1, handlerCtx.Value(boundKey{}))
		assert.Same(t, sessions.closeCtx, handlerCtx)
	})

	t.Run("every request gets its own state", func(t *testing.T) {
		t.Parallel()

		sessions := &fakeSessions{}

		router := gin.New()
		router.Use(DBSession(sessions))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		for range 3 {
			serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
		}

		assert.Equal(t, 3, sessions.bound)
		assert.Equal(t, 3, sessions.closed)
	})

	t.Run("close failure keeps the response", func(t *testing.T) {
		t.Parallel()

		logger, buf := newBufferLogger()
		sessions := &fakeSessions{closeErr: errors.New("cannot close connection while a transaction is open")}

		router := gin.New()
		router.Use(Recovery(logger), DBSession(sessions))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, buf.String(), "closing request connection")
	})

	t.Run("connection is released when the handler panics", func(t *testing.T) {
		t.Parallel()

		logger, _ := newBufferLogger()
		sessions := &fakeSessions{}

		router := gin.New()
		router.Use(Recovery(logger), DBSession(sessions))
		router.GET("/test", func(*gin.Context) { panic("boom") })

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, 1, sessions.closed)
	})
}
