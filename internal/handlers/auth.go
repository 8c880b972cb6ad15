package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jenyyy4/gigflow/db"
)

const tokenTTL = 7 * 24 * time.Hour

// RegisterHandler обрабатывает POST /api/auth/register запрос
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		fail(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := validateRegisterRequest(input.Name, input.Email, input.Password); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	user := &db.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
	}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			fail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	if err := h.setTokenCookie(w, user.ID); err != nil {
		fail(w, http.StatusInternalServerError, "Failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func validateRegisterRequest(name, email, password string) error {
	if strings.TrimSpace(name) == "" || utf8.RuneCountInString(name) > 50 {
		return errors.New("name is required and max length 50")
	}
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("valid email is required")
	}
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// LoginHandler обрабатывает POST /api/auth/login запрос
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		fail(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := h.setTokenCookie(w, user.ID); err != nil {
		fail(w, http.StatusInternalServerError, "Failed to login")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// LogoutHandler сбрасывает cookie с токеном
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

// MeHandler возвращает текущего пользователя (после RequireAuth)
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    UserFromContext(r.Context()),
	})
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, userID int) error {
	now := time.Now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(tokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
