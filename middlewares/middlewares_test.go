package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fixmyarea-be/models"
	authUtils "fixmyarea-be/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T, ttl time.Duration) *authUtils.TokenService {
	t.Helper()
	tokens, err := authUtils.NewTokenService("middleware-secret", ttl)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func issue(t *testing.T, tokens *authUtils.TokenService, role models.Role) (string, primitive.ObjectID) {
	t.Helper()
	user := &models.User{ID: primitive.NewObjectID(), Name: "Test", Role: role}
	token, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token, user.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	valid, userID := issue(t, tokens, models.RoleCitizen)
	expired, _ := issue(t, newTokens(t, -time.Minute), models.RoleCitizen)

	tests := []struct {
		name   string
		header map[string]string
		status int
		code   string
	}{
		{name: "missing token", status: http.StatusUnauthorized, code: "UNAUTHENTICATED"},
		{name: "bearer token", header: map[string]string{"Authorization": "Bearer " + valid}, status: http.StatusOK},
		{name: "legacy header", header: map[string]string{"x-auth-token": valid}, status: http.StatusOK},
		{name: "garbage", header: map[string]string{"Authorization": "Bearer nope"}, status: http.StatusUnauthorized, code: "INVALID_CREDENTIAL"},
		{name: "expired", header: map[string]string{"Authorization": "Bearer " + expired}, status: http.StatusUnauthorized, code: "INVALID_CREDENTIAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			var seen *models.Identity
			r.GET("/me", Authenticate(tokens), func(c *gin.Context) {
				seen = IdentityFrom(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.code != "" {
				if body := decodeError(t, w); body["code"] != tt.code {
					t.Errorf("expected code %s, got %v", tt.code, body["code"])
				}
				return
			}
			if seen == nil || seen.UserID != userID {
				t.Errorf("expected identity for %s, got %+v", userID.Hex(), seen)
			}
		})
	}
}

func TestQueryTokenOnlyForWebsocket(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	valid, _ := issue(t, tokens, models.RoleAdmin)
	r := gin.New()
	r.GET("/ws", Authenticate(tokens), func(c *gin.Context) { c.Status(http.StatusOK) })

	plain := httptest.NewRequest(http.MethodGet, "/ws?token="+valid, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, plain)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected query token to be ignored on plain requests, got %d", w.Code)
	}

	upgrade := httptest.NewRequest(http.MethodGet, "/ws?token="+valid, nil)
	upgrade.Header.Set("Connection", "Upgrade")
	upgrade.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, upgrade)
	if w.Code != http.StatusOK {
		t.Errorf("expected query token accepted on upgrade, got %d", w.Code)
	}
}

func TestAuthorize(t *testing.T) {
	citizen := &models.Identity{Role: models.RoleCitizen}

	if err := Authorize(nil, adminOnly); err == nil {
		t.Error("expected nil identity to be rejected")
	}
	if err := Authorize(citizen, adminOnly); err == nil {
		t.Error("expected citizen to be rejected from admin operation")
	}
	if err := Authorize(citizen, citizenOnly); err != nil {
		t.Errorf("expected citizen allowed, got %v", err)
	}
	if err := Authorize(citizen, nil); err != nil {
		t.Errorf("expected any authenticated role allowed, got %v", err)
	}
}

func TestGateBlocksBeforeHandler(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	gate := NewGate(DefaultPolicy, tokens)

	adminOps := []string{OpComplaintsAnalytics, OpComplaintsByVillage, OpComplaintsAssign, OpUsersWorkers, OpUsersWorkersByVillage, OpUsersRemoveWorker}
	for _, role := range []models.Role{models.RoleCitizen, models.RoleWorker} {
		token, _ := issue(t, tokens, role)
		for _, op := range adminOps {
			called := false
			r := gin.New()
			r.GET("/op", append(gate.Require(op), func(c *gin.Context) { called = true })...)

			req := httptest.NewRequest(http.MethodGet, "/op", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Errorf("%s on %s: expected 403, got %d", role, op, w.Code)
			}
			if called {
				t.Errorf("%s on %s: handler must not run", role, op)
			}
		}
	}
}

func TestGatePanicsOnUnknownOperation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown operation")
		}
	}()
	NewGate(DefaultPolicy, newTokens(t, time.Hour)).Require("complaints.delete")
}

type fakeCounter struct {
	counts  map[string]int64
	ttl     map[string]time.Duration
	incrErr error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, ttl: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	if f.incrErr != nil {
		return redis.NewIntResult(0, f.incrErr)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCounter) TTL(ctx context.Context, key string) *redis.DurationCmd {
	return redis.NewDurationResult(f.ttl[key], nil)
}

func limitedRouter(counter Counter, limit int, identity *models.Identity) *gin.Engine {
	r := gin.New()
	r.POST("/complaints", func(c *gin.Context) {
		if identity != nil {
			c.Set(identityKey, *identity)
		}
	}, ComplaintRateLimiter(counter, "complaint-limit", limit, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func TestComplaintRateLimiter(t *testing.T) {
	counter := newFakeCounter()
	identity := &models.Identity{UserID: primitive.NewObjectID(), Role: models.RoleCitizen}
	r := limitedRouter(counter, 2, identity)

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/complaints", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}
	key := "complaint-limit:" + identity.UserID.Hex()
	if counter.ttl[key] != 24*time.Hour {
		t.Errorf("expected 24h window on %s, got %v", key, counter.ttl[key])
	}
}

func TestComplaintRateLimiterRedisFailure(t *testing.T) {
	counter := newFakeCounter()
	counter.incrErr = errors.New("connection refused")
	identity := &models.Identity{UserID: primitive.NewObjectID(), Role: models.RoleCitizen}
	r := limitedRouter(counter, 2, identity)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/complaints", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestComplaintRateLimiterNeedsIdentity(t *testing.T) {
	r := limitedRouter(newFakeCounter(), 2, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/complaints", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestLoginThrottle(t *testing.T) {
	throttle := NewLoginThrottle(2)
	r := gin.New()
	r.POST("/login", throttle.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if send("10.0.0.1") != http.StatusOK || send("10.0.0.1") != http.StatusOK {
		t.Fatal("expected burst to be allowed")
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("expected other IP to be unaffected, got %d", code)
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "3f0e8f8e-5a8c-4c39-9d55-0c6a3c1e6f11")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "3f0e8f8e-5a8c-4c39-9d55-0c6a3c1e6f11" {
		t.Errorf("expected incoming request id echoed, got %s", got)
	}
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if body := decodeError(t, w); body["error"] != "Something went wrong" {
		t.Errorf("unexpected body %v", body)
	}
}
