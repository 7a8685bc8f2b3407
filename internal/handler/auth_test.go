package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elpijiku/api/internal/auth"
	"github.com/elpijiku/api/internal/database"
	"github.com/elpijiku/api/internal/enum"
	"github.com/elpijiku/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	userByEmail map[string]database.User
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{userByEmail: make(map[string]database.User)}
}

func (m *mockAuthStore) addUser(u database.User) {
	m.userByEmail[u.Email] = u
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (database.User, error) {
	u, ok := m.userByEmail[email]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

// --- Helpers ---

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func makeTestUser(t *testing.T) database.User {
	t.Helper()
	return database.User{
		ID:           uuid.New(),
		Email:        "operator@test.com",
		PasswordHash: hashPassword(t, "correct-password"),
		FullName:     "Test Operator",
		Role:         enum.UserRoleOperator,
		IsActive:     true,
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Login tests ---

func TestLogin_ValidCredentials(t *testing.T) {
	store := newMockAuthStore()
	user := makeTestUser(t)
	store.addUser(user)

	h := handler.NewAuthHandler(store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rr := postJSON(t, r, "/auth/login", map[string]string{
		"email":    "operator@test.com",
		"password": "correct-password",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["token"] == nil || resp["token"] == "" {
		t.Error("expected non-empty token")
	}

	userResp, ok := resp["user"].(map[string]interface{})
	if !ok {
		t.Fatal("expected user object in response")
	}
	if userResp["email"] != "operator@test.com" {
		t.Errorf("user email: got %v, want operator@test.com", userResp["email"])
	}
	if userResp["role"] != "OPERATOR" {
		t.Errorf("user role: got %v, want OPERATOR", userResp["role"])
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMockAuthStore()
	store.addUser(makeTestUser(t))

	h := handler.NewAuthHandler(store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rr := postJSON(t, r, "/auth/login", map[string]string{
		"email":    "operator@test.com",
		"password": "wrong-password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	store := newMockAuthStore()
	h := handler.NewAuthHandler(store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rr := postJSON(t, r, "/auth/login", map[string]string{
		"email":    "nobody@test.com",
		"password": "password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	store := newMockAuthStore()
	h := handler.NewAuthHandler(store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rr := postJSON(t, r, "/auth/login", map[string]string{
		"email": "operator@test.com",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLogin_ReturnsValidToken(t *testing.T) {
	store := newMockAuthStore()
	user := makeTestUser(t)
	store.addUser(user)

	h := handler.NewAuthHandler(store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rr := postJSON(t, r, "/auth/login", map[string]string{
		"email":    "operator@test.com",
		"password": "correct-password",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rr)
	token, ok := resp["token"].(string)
	if !ok || token == "" {
		t.Fatal("expected non-empty token string")
	}

	claims, err := auth.ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims user ID: got %v, want %v", claims.UserID, user.ID)
	}
	if claims.Role != user.Role {
		t.Errorf("claims role: got %v, want %v", claims.Role, user.Role)
	}
}
