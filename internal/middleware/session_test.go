package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/bbeditor/internal/model"
)

// --- モック定義 ---

type mockSessionRepository struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func validSessionRepo() *mockSessionRepository {
	return &mockSessionRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id == "valid-session-id" {
				return &model.Session{
					ID:          "valid-session-id",
					UserID:      123,
					UserName:    "editor",
					AccessToken: "token-abc",
					ExpiresAt:   time.Now().Add(1 * time.Hour),
				}, nil
			}
			return nil, nil
		},
	}
}

// --- テスト ---

func TestSessionMiddleware_ValidSession_InjectsSession(t *testing.T) {
	mw := NewSessionMiddleware(validSessionRepo())

	var captured *model.Session
	var capturedUserID int
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok {
			t.Error("expected session in context")
		}
		captured = session
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID
	}))

	req := httptest.NewRequest(http.MethodGet, "/creator/create", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if captured == nil || captured.AccessToken != "token-abc" {
		t.Errorf("session = %+v, want access token %q", captured, "token-abc")
	}
	if capturedUserID != 123 {
		t.Errorf("userID = %d, want 123", capturedUserID)
	}
}

func TestSessionMiddleware_NoCookie_PassesThroughWithoutSession(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			t.Fatal("FindByID should not be called without cookie")
			return nil, nil
		},
	})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := SessionFromContext(r.Context()); ok {
			t.Error("expected no session in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/creator/abc", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("handler should be called without session")
	}
}

func TestSessionMiddleware_UnknownOrFailedLookup_PassesThroughWithoutSession(t *testing.T) {
	repos := map[string]*mockSessionRepository{
		"unknown": validSessionRepo(),
		"error": {
			findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return nil, errors.New("db down")
			},
		},
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			handler := NewSessionMiddleware(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := UserIDFromContext(r.Context()); err == nil {
					t.Error("expected no user ID in context")
				}
			}))

			req := httptest.NewRequest(http.MethodGet, "/creator/abc", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "other-session-id"})
			handler.ServeHTTP(httptest.NewRecorder(), req)
		})
	}
}

func TestRequirePageSession_NoSession_RedirectsToLogin(t *testing.T) {
	handler := RequirePageSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/creator/abc/edit?tab=2", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	want := "/login?next=%2Fcreator%2Fabc%2Fedit%3Ftab%3D2"
	if loc := w.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestRequirePageSession_WithSession_CallsNext(t *testing.T) {
	called := false
	handler := RequirePageSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/creator/create", nil)
	req = req.WithContext(ContextWithSession(req.Context(), &model.Session{UserID: 1}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("handler should be called with session")
	}
}

func TestRequireAPISession_NoSession_ReturnsRedirectWithoutEntity(t *testing.T) {
	handler := RequireAPISession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/creator/create/handler", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["redirect"] != LoginPath {
		t.Errorf("redirect = %v, want %q", body["redirect"], LoginPath)
	}
	// エンティティ参照を含まない
	if _, ok := body["entity"]; ok {
		t.Error("response should not contain an entity reference")
	}
}

func TestUserIDFromContext_Empty_ReturnsError(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
}
