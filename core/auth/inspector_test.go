package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func unsignedToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signedToken() failed: %v", err)
	}
	return token
}

func TestInspector_Inspect_unverified(t *testing.T) {
	in := NewInspector("")

	tests := []struct {
		name      string
		token     string
		wantAdmin bool
		wantSub   string
		wantErr   error
	}{
		{name: "empty", token: "", wantErr: ErrMissingToken},
		{name: "two segments", token: "abc.def", wantErr: ErrMalformedToken},
		{name: "payload not base64", token: "a.%%%.c", wantErr: ErrMalformedToken},
		{name: "payload not json", token: unsignedToken("lol"), wantErr: ErrMalformedToken},
		{name: "subject admin, no roles", token: unsignedToken(`{"sub":"admin"}`), wantAdmin: true, wantSub: "admin"},
		{name: "subject admin, user roles", token: unsignedToken(`{"sub":"admin","roles":["ROLE_USER"]}`), wantAdmin: true, wantSub: "admin"},
		{name: "subject contains admin", token: unsignedToken(`{"sub":"site-Admin-2"}`), wantAdmin: true, wantSub: "site-Admin-2"},
		{name: "roles string list", token: unsignedToken(`{"sub":"jane","roles":["ROLE_USER","ROLE_ADMIN"]}`), wantAdmin: true, wantSub: "jane"},
		{name: "authorities objects", token: unsignedToken(`{"sub":"jane","authorities":[{"authority":"ROLE_ADMIN"}]}`), wantAdmin: true, wantSub: "jane"},
		{name: "roles comma string", token: unsignedToken(`{"sub":"jane","roles":"user,admin"}`), wantAdmin: true, wantSub: "jane"},
		{name: "is_admin flag", token: unsignedToken(`{"sub":"jane","is_admin":true}`), wantAdmin: true, wantSub: "jane"},
		{name: "plain user", token: unsignedToken(`{"sub":"jane","roles":["ROLE_USER"]}`), wantSub: "jane"},
		{name: "username fallback", token: unsignedToken(`{"username":"bob"}`), wantSub: "bob"},
		{name: "numeric subject", token: unsignedToken(`{"sub":42}`), wantSub: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := in.Inspect(tt.token)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Inspect() error = %v; wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			assert.Equal(t, tt.wantAdmin, id.IsAdmin)
			assert.Equal(t, tt.wantSub, id.Subject)
			assert.False(t, id.Verified)
		})
	}
}

func TestInspector_Inspect_verified(t *testing.T) {
	secret := "s3cr3t"
	in := NewInspector(secret)
	if !in.Verifies() {
		t.Fatal("Verifies() = false with a secret")
	}

	valid := signedToken(t, secret, jwt.MapClaims{"sub": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signedToken(t, secret, jwt.MapClaims{"sub": "admin", "exp": time.Now().Add(-time.Hour).Unix()})
	forged := signedToken(t, "other", jwt.MapClaims{"sub": "admin"})

	id, err := in.Inspect(valid)
	if err != nil {
		t.Fatalf("Inspect(valid) error = %v", err)
	}
	assert.True(t, id.IsAdmin)
	assert.True(t, id.Verified)

	for name, token := range map[string]string{
		"expired":  expired,
		"forged":   forged,
		"unsigned": unsignedToken(`{"sub":"admin"}`),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := in.Inspect(token); errors.Cause(err) != ErrInvalidToken {
				t.Errorf("Inspect() error = %v; wantErr %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "none"},
		{name: "cookie", cookie: "c.o.k", want: "c.o.k"},
		{name: "bearer header", header: "Bearer h.e.a", want: "h.e.a"},
		{name: "lowercase scheme", header: "bearer h.e.a", want: "h.e.a"},
		{name: "raw header", header: "h.e.a", want: "h.e.a"},
		{name: "cookie wins", cookie: "c.o.k", header: "Bearer h.e.a", want: "c.o.k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(req, "token"))
		})
	}
}
