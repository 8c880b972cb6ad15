package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jenyyy4/gigflow/db"
)

type contextKey string

const userContextKey contextKey = "user"

const tokenCookieName = "token"

type tokenClaims struct {
	UserID int `json:"userId"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// RequireAuth проверяет JWT из cookie и кладёт пользователя в контекст запроса
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(tokenCookieName)
		if err != nil {
			fail(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
			return jwtSecret(), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			fail(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		user, err := h.Store.GetUser(r.Context(), claims.UserID)
		if err != nil {
			fail(w, http.StatusUnauthorized, "User not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// ContextWithUser возвращает контекст с аутентифицированным пользователем
func ContextWithUser(ctx context.Context, u *db.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext достаёт пользователя, положенного RequireAuth
func UserFromContext(ctx context.Context) *db.User {
	u, _ := ctx.Value(userContextKey).(*db.User)
	return u
}
