package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jenyyy4/gigflow/db"
	"github.com/jenyyy4/gigflow/internal/handlers"
)

func TestRegisterHandler(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	mockStore := &MockStorage{}
	handler := handlers.NewHandler(mockStore, nil)

	reqBody := `{"name": "Alice", "email": "alice@example.com", "password": "secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.RegisterHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Contains(t, w.Body.String(), "alice@example.com")

	// cookie с токеном выставлен
	var token *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "token" {
			token = c
		}
	}
	require.NotNil(t, token)
	require.NotEmpty(t, token.Value)
	require.True(t, token.HttpOnly)
}

func TestRegisterHandlerEmailTaken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	mockStore := &MockStorage{createUserErr: db.ErrEmailTaken}
	handler := handlers.NewHandler(mockStore, nil)

	reqBody := `{"name": "Alice", "email": "alice@example.com", "password": "secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(reqBody))
	w := httptest.NewRecorder()

	handler.RegisterHandler(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Email already registered")
}

func TestRegisterHandlerValidation(t *testing.T) {
	handler := handlers.NewHandler(&MockStorage{}, nil)

	cases := []string{
		`{"name": "", "email": "a@b.c", "password": "secret1"}`,
		`{"name": "A", "email": "not-an-email", "password": "secret1"}`,
		`{"name": "A", "email": "a@b.c", "password": "short"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.RegisterHandler(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestLoginHandler(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	mockStore := &MockStorage{user: &db.User{ID: 1, Name: "Alice", Email: "alice@example.com", PasswordHash: string(hash)}}
	handler := handlers.NewHandler(mockStore, nil)

	reqBody := `{"email": "alice@example.com", "password": "secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(reqBody))
	w := httptest.NewRecorder()

	handler.LoginHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Cookies())
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	mockStore := &MockStorage{user: &db.User{ID: 1, Email: "alice@example.com", PasswordHash: string(hash)}}
	handler := handlers.NewHandler(mockStore, nil)

	for _, body := range []string{
		`{"email": "alice@example.com", "password": "wrong"}`,
		`{"email": "nobody@example.com", "password": "secret1"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.LoginHandler(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, body)
		require.Contains(t, w.Body.String(), "Invalid email or password")
	}
}

func TestLogoutHandler(t *testing.T) {
	handler := handlers.NewHandler(&MockStorage{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()

	handler.LogoutHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	cookies := res.Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, -1, cookies[0].MaxAge)
}

// Полный круг: register выдаёт cookie, RequireAuth пускает с ним к /auth/me
func TestRequireAuthRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	mockStore := &MockStorage{user: &db.User{ID: 1, Name: "Alice", Email: "alice@example.com"}}
	handler := handlers.NewHandler(mockStore, nil)

	reqBody := `{"name": "Alice", "email": "alice@example.com", "password": "secret1"}`
	regReq := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(reqBody))
	regW := httptest.NewRecorder()
	handler.RegisterHandler(regW, regReq)
	require.Equal(t, http.StatusCreated, regW.Code)

	meReq := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range regW.Result().Cookies() {
		meReq.AddCookie(c)
	}
	meW := httptest.NewRecorder()
	handler.RequireAuth(http.HandlerFunc(handler.MeHandler)).ServeHTTP(meW, meReq)

	require.Equal(t, http.StatusOK, meW.Code)
	require.Contains(t, meW.Body.String(), "alice@example.com")
}

func TestRequireAuthNoCookie(t *testing.T) {
	handler := handlers.NewHandler(&MockStorage{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	handler.RequireAuth(http.HandlerFunc(handler.MeHandler)).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Not authorized to access this route")
}

func TestRequireAuthBadToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := handlers.NewHandler(&MockStorage{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	handler.RequireAuth(http.HandlerFunc(handler.MeHandler)).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// Токен с alg=none не проходит: принимается только HS256
func TestRequireAuthRejectsUnsignedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	mockStore := &MockStorage{user: &db.User{ID: 1, Email: "alice@example.com"}}
	handler := handlers.NewHandler(mockStore, nil)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: unsigned})
	w := httptest.NewRecorder()
	handler.RequireAuth(http.HandlerFunc(handler.MeHandler)).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Not authorized to access this route")
}
