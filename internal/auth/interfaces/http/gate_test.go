package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/marketquery/internal/auth/domain"
	"github.com/wyfcoding/marketquery/pkg/metrics"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) FindActiveByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	args := m.Called(ctx, apiKey)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

type gateFixture struct {
	finder  *mockFinder
	metrics *metrics.Metrics
	router  *gin.Engine
	calls   int
	seen    *domain.User
}

func newGateFixture() *gateFixture {
	gin.SetMode(gin.TestMode)
	f := &gateFixture{finder: new(mockFinder), metrics: metrics.New("test")}

	r := gin.New()
	r.Use(NewGate(f.finder, "/internal", "X-API-KEY", f.metrics).Handler())
	handler := func(c *gin.Context) {
		f.calls++
		f.seen, _ = domain.PrincipalFromContext(c.Request.Context())
		if user, ok := PrincipalFrom(c); ok {
			c.String(http.StatusOK, user.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	}
	r.GET("/internal/ticker/:id", handler)
	r.GET("/internalfoo", handler)
	r.GET("/health", handler)
	f.router = r
	return f
}

func (f *gateFixture) do(path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = []string{v}
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestGateMissingHeader(t *testing.T) {
	f := newGateFixture()

	w := f.do("/internal/ticker/1", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgMissingAPIKey, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Zero(t, f.calls)
	f.finder.AssertNotCalled(t, "FindActiveByAPIKey", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthRejectionsTotal.WithLabelValues("missing")))
}

func TestGateEmptyHeader(t *testing.T) {
	f := newGateFixture()

	w := f.do("/internal/ticker/1", map[string]string{"X-Api-Key": ""})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgInvalidAPIKey, w.Body.String())
	assert.Zero(t, f.calls)
	f.finder.AssertNotCalled(t, "FindActiveByAPIKey", mock.Anything, mock.Anything)
}

func TestGateUnknownOrArchivedKey(t *testing.T) {
	f := newGateFixture()
	f.finder.On("FindActiveByAPIKey", mock.Anything, "archived-key").Return(nil, nil).Once()

	w := f.do("/internal/ticker/1", map[string]string{"X-Api-Key": "archived-key"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgInvalidAPIKey, w.Body.String())
	assert.Zero(t, f.calls)
	f.finder.AssertNumberOfCalls(t, "FindActiveByAPIKey", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthRejectionsTotal.WithLabelValues("invalid")))
}

func TestGateValidKey(t *testing.T) {
	f := newGateFixture()
	user := &domain.User{ID: 1, Email: "jane@example.com", APIKey: "valid-key", Active: true}
	f.finder.On("FindActiveByAPIKey", mock.Anything, "valid-key").Return(user, nil).Once()

	w := f.do("/internal/ticker/1", map[string]string{"X-Api-Key": "valid-key"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane@example.com", w.Body.String())
	assert.Equal(t, 1, f.calls)
	require.NotNil(t, f.seen)
	assert.Equal(t, user.ID, f.seen.ID)
	f.finder.AssertExpectations(t)
}

func TestGateHeaderNameIsCaseInsensitive(t *testing.T) {
	f := newGateFixture()
	user := &domain.User{ID: 2, Email: "joe@example.com", Active: true}
	f.finder.On("FindActiveByAPIKey", mock.Anything, "k").Return(user, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/internal/ticker/1", nil)
	req.Header.Set("x-api-key", "k")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateStoreFailure(t *testing.T) {
	f := newGateFixture()
	f.finder.On("FindActiveByAPIKey", mock.Anything, "k").Return(nil, errors.New("connection refused")).Once()

	w := f.do("/internal/ticker/1", map[string]string{"X-Api-Key": "k"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"msg":"internal server error","detail":"INTERNAL"}`, w.Body.String())
	assert.Zero(t, f.calls)
}

func TestGateOutsidePrefixPassesThrough(t *testing.T) {
	f := newGateFixture()

	w := f.do("/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
	assert.Nil(t, f.seen)
	f.finder.AssertNotCalled(t, "FindActiveByAPIKey", mock.Anything, mock.Anything)
}

func TestGatePrefixIsPlainStringMatch(t *testing.T) {
	f := newGateFixture()

	w := f.do("/internalfoo", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgMissingAPIKey, w.Body.String())
}

func TestGateCoversUnmatchedRoutes(t *testing.T) {
	f := newGateFixture()

	w := f.do("/internal/nothing-here", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgMissingAPIKey, w.Body.String())
}

func TestRateLimitKey(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, RateLimitKey(c))

	c.Set(principalKey, &domain.User{ID: 42})
	assert.Equal(t, "user:42", RateLimitKey(c))
}
