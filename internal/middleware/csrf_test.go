package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newCSRFHandler(t *testing.T, called *bool, token *string) http.Handler {
	t.Helper()
	mw := NewCSRFMiddleware(CSRFConfig{CookieSecure: false, CookieDomain: ""})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		if token != nil {
			*token = CSRFTokenFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCSRFMiddleware_SafeMethods_PassThroughWithoutToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			handler := newCSRFHandler(t, &called, nil)

			req := httptest.NewRequest(method, "/creator/create", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if !called {
				t.Fatalf("handler should have been called for %s", method)
			}
			if w.Result().StatusCode != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
			}
		})
	}
}

func TestCSRFMiddleware_GETRequest_SetsCSRFCookieAndContextToken(t *testing.T) {
	var token string
	handler := newCSRFHandler(t, nil, &token)

	req := httptest.NewRequest(http.MethodGet, "/creator/create", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var csrfCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			csrfCookie = c
		}
	}
	if csrfCookie == nil {
		t.Fatal("expected CSRF cookie to be set on GET request")
	}
	if csrfCookie.Value == "" {
		t.Error("CSRF cookie value should not be empty")
	}
	if csrfCookie.HttpOnly {
		t.Error("CSRF cookie should NOT be HttpOnly")
	}
	if csrfCookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want %v", csrfCookie.SameSite, http.SameSiteLaxMode)
	}
	// テンプレートに埋め込むトークンは発行したCookieと一致する
	if token != csrfCookie.Value {
		t.Errorf("context token = %q, want %q", token, csrfCookie.Value)
	}
}

func TestCSRFMiddleware_GETRequest_ExistingCookie_DoesNotReplace(t *testing.T) {
	var token string
	handler := newCSRFHandler(t, nil, &token)

	req := httptest.NewRequest(http.MethodGet, "/creator/create", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			t.Error("CSRF cookie should not be re-set when already present")
		}
	}
	if token != "existing-token" {
		t.Errorf("context token = %q, want %q", token, "existing-token")
	}
}

func TestCSRFMiddleware_POSTRequest_NoCookie_Returns403(t *testing.T) {
	handler := newCSRFHandler(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/creator/create/handler", nil)
	req.Header.Set(csrfHeaderName, "some-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestCSRFMiddleware_POSTRequest_MismatchToken_Returns403(t *testing.T) {
	called := false
	handler := newCSRFHandler(t, &called, nil)

	req := httptest.NewRequest(http.MethodPost, "/creator/create/handler", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "cookie-token"})
	req.Header.Set(csrfHeaderName, "other-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Error("handler should not be called on token mismatch")
	}
	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestCSRFMiddleware_POSTRequest_ValidHeader_PassesThrough(t *testing.T) {
	called := false
	handler := newCSRFHandler(t, &called, nil)

	req := httptest.NewRequest(http.MethodPost, "/creator/create/handler", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "valid-token"})
	req.Header.Set(csrfHeaderName, "valid-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("handler should have been called with valid token")
	}
}

func TestCSRFMiddleware_POSTRequest_ValidFormField_PassesThrough(t *testing.T) {
	called := false
	handler := newCSRFHandler(t, &called, nil)

	form := url.Values{}
	form.Set(CSRFFormField, "form-token")
	form.Set("action", "next")
	req := httptest.NewRequest(http.MethodPost, "/creator/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "form-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("handler should have been called with valid form token")
	}
}

func TestCSRFMiddleware_AllStateMutatingMethods_RequireToken(t *testing.T) {
	methods := []string{
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			mw := NewCSRFMiddleware(CSRFConfig{})
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called for " + method + " without token")
			}))

			req := httptest.NewRequest(method, "/logout", nil)
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "cookie-token"})
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusForbidden {
				t.Errorf("%s: status = %d, want %d", method, w.Result().StatusCode, http.StatusForbidden)
			}
		})
	}
}
