// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"log"
	"sync"
	"testing"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/origin"
	logsvc "github.com/trezcool/pathwise/services/logger"
)

// Origin is an in-process origin.Doer recording every request it gets.
type Origin struct {
	mu       sync.Mutex
	requests []origin.Request

	// Handle answers a request; a nil Handle answers 200 [].
	Handle func(req origin.Request) (origin.Response, error)
}

var _ origin.Doer = (*Origin)(nil)

func (o *Origin) Do(_ context.Context, req origin.Request) (origin.Response, error) {
	o.mu.Lock()
	o.requests = append(o.requests, req)
	handle := o.Handle
	o.mu.Unlock()

	if handle == nil {
		return origin.NewResponse(200, nil), nil
	}
	return handle(req)
}

// Requests returns a copy of the recorded requests.
func (o *Origin) Requests() []origin.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]origin.Request(nil), o.requests...)
}

// LastRequest fails the test when nothing was recorded.
func (o *Origin) LastRequest(t *testing.T) origin.Request {
	t.Helper()
	reqs := o.Requests()
	if len(reqs) == 0 {
		t.Fatal("LastRequest(): no request reached the origin")
	}
	return reqs[len(reqs)-1]
}

// JSON builds an origin.Response from a status and a JSON literal.
func JSON(status int, body string) (origin.Response, error) {
	return origin.NewResponse(status, []byte(body)), nil
}

// Token returns an unsigned three-segment token carrying claims.
func Token(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." + enc.EncodeToString(payload) + ".unsigned"
}

// SignedToken returns an HS256 token signed with secret.
func SignedToken(t *testing.T, secret string, claims map[string]interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims)).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedToken() failed: %v", err)
	}
	return token
}

// Config returns a configuration suitable for tests.
func Config() *core.Config {
	return &core.Config{
		AppName:  "Pathwise",
		Env:      "TEST",
		Build:    "test",
		TestMode: true,
		Server: core.ServerConfig{
			Host:           "localhost",
			DisableReqLogs: true,
		},
		Auth: core.AuthConfig{CookieName: "token"},
		Backend: core.BackendConfig{
			DashboardSections: map[string]string{
				"users":        "/api/admin/users",
				"achievements": "/api/achievements",
				"courses":      "/api/courses",
				"comments":     "/api/admin/comments",
				"feedback":     "/api/feedback",
			},
		},
	}
}

// Logger returns a silent logger that never reports.
func Logger() core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), Config())
	logger.Enable(false)
	return logger
}
