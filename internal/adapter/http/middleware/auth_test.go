package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/auth"
)

func principalEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := domain.PrincipalFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(p.Subject))
	})
}

func TestAuthenticate(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := manager.Generate(&domain.Principal{Subject: "bot-1", Role: domain.RoleService})
	require.NoError(t, err)

	expired := auth.NewJWTManager("test-secret", -time.Minute)
	old, err := expired.Generate(&domain.Principal{Subject: "bot-1", Role: domain.RoleService})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + old, http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}

	h := Authenticate(manager)(principalEcho(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/envelopes/e1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "bot-1", rr.Body.String())
			} else {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name      string
		principal *domain.Principal
		want      int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"service", &domain.Principal{Subject: "bot", Role: domain.RoleService}, http.StatusForbidden},
		{"admin", &domain.Principal{Subject: "ops", Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/adjustments", nil)
			if tt.principal != nil {
				req = req.WithContext(domain.ContextWithPrincipal(req.Context(), tt.principal))
			}
			rr := httptest.NewRecorder()
			RequireRole(domain.RoleAdmin)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
