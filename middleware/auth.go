package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greencart/models"
	"greencart/utils"
)

// UserFinder resolves token subjects to user documents.
type UserFinder interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Auth carries the dependencies of the authentication middlewares.
type Auth struct {
	Users       UserFinder
	SellerEmail string
	Log         *zap.Logger
}

type contextKey string

const userContextKey = contextKey("user")

// Cookie names for the two session kinds.
const (
	UserCookie   = "token"
	SellerCookie = "sellerToken"
)

// WithUser attaches an authenticated user to the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

// RequireUser authenticates a buyer from the session cookie or a bearer
// header, loads the user record and attaches it to the request context.
func (a *Auth) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, UserCookie)
		if token == "" {
			unauthorized(w, "Not Authorized, no token provided")
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil || claims.UserID == "" {
			unauthorized(w, "Invalid or expired token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		user, err := a.Users.UserByID(r.Context(), userID)
		if err != nil {
			unauthorized(w, "User not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireVerified rejects buyers who have not completed email verification.
// It must run after RequireUser.
func (a *Auth) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w, "Not Authorized")
			return
		}
		if !user.IsVerified {
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"success":          false,
				"message":          "Please verify your email address to access this resource.",
				"redirectToVerify": true,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSeller authenticates the seller console. The token is validated
// against the configured seller email, never against the users collection.
func (a *Auth) RequireSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, SellerCookie)
		if token == "" {
			unauthorized(w, "Not Authorized: No seller token provided")
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			unauthorized(w, "Invalid or expired seller token")
			return
		}
		if claims.Email == "" || claims.Email != a.SellerEmail {
			a.Log.Warn("seller token email mismatch")
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"success": false,
				"message": "Forbidden: Invalid seller credentials",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken prefers the Authorization header, then falls back to the named
// cookie.
func extractToken(r *http.Request, cookieName string) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
