package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(keys KeySet, method, path, header string) *httptest.ResponseRecorder {
	handler := BearerAuthMiddleware(keys)(okHandler())
	req := httptest.NewRequest(method, path, http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_EmptyKeys_PassThrough(t *testing.T) {
	if rr := serveAuth(KeySet{}, "POST", "/v1/search", ""); rr.Code != http.StatusOK {
		t.Errorf("empty keys: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr := serveAuth(KeySet{Keys: []string{"", ""}}, "POST", "/v1/search", ""); rr.Code != http.StatusOK {
		t.Errorf("empty string keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	rr := serveAuth(KeySet{Keys: []string{"secret"}}, "POST", "/v1/search", "")

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorResponseCodeUnauthorized {
		t.Errorf("error code: got %s, want %s", errResp.Code, ErrorResponseCodeUnauthorized)
	}
}

func TestAuthMiddleware_BasicScheme_401(t *testing.T) {
	rr := serveAuth(KeySet{Keys: []string{"secret"}}, "POST", "/v1/search", "Basic dXNlcjpwYXNz")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("basic scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	rr := serveAuth(KeySet{Keys: []string{"secret"}}, "POST", "/v1/search", "Bearer wrong-key")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_MultipleKeys(t *testing.T) {
	keys := KeySet{Keys: []string{"key1", "key2"}}
	for _, key := range []string{"key1", "key2"} {
		if rr := serveAuth(keys, "POST", "/v1/search", "Bearer "+key); rr.Code != http.StatusOK {
			t.Errorf("key %s: got %d, want %d", key, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		if rr := serveAuth(KeySet{Keys: []string{"secret"}}, "GET", path, ""); rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_AdminRoutes(t *testing.T) {
	keys := KeySet{Keys: []string{"reader"}, AdminKeys: []string{"admin"}}

	cases := []struct {
		method, path, token string
		want                int
	}{
		{"POST", "/v1/admin/init", "reader", http.StatusForbidden},
		{"POST", "/v1/admin/init", "admin", http.StatusOK},
		{"PUT", "/v1/settings", "reader", http.StatusForbidden},
		{"GET", "/v1/settings", "reader", http.StatusOK},
		{"POST", "/v1/search", "admin", http.StatusOK},
		{"POST", "/v1/search", "reader", http.StatusOK},
	}
	for _, tc := range cases {
		rr := serveAuth(keys, tc.method, tc.path, "Bearer "+tc.token)
		if rr.Code != tc.want {
			t.Errorf("%s %s with %s: got %d, want %d", tc.method, tc.path, tc.token, rr.Code, tc.want)
		}
	}
}

func TestAuthMiddleware_NoAdminKeysFallsBackToRegular(t *testing.T) {
	rr := serveAuth(KeySet{Keys: []string{"secret"}}, "POST", "/v1/admin/migrate", "Bearer secret")
	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rr.Code, http.StatusOK)
	}
}
