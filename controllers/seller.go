package controllers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"greencart/middleware"
	"greencart/utils"
)

// SellerController handles the credential-based seller console session.
// Seller identity lives entirely in configuration; the users collection is
// never consulted here.
type SellerController struct {
	Email        string
	Password     string
	CookieSecure bool
	Log          *zap.Logger
}

// NewSellerController creates a new SellerController.
func NewSellerController(email, password string, cookieSecure bool, log *zap.Logger) *SellerController {
	return &SellerController{Email: email, Password: password, CookieSecure: cookieSecure, Log: log}
}

// Login checks the configured credentials and issues a seller token.
func (sc *SellerController) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(sc.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(sc.Password)) == 1
	if !emailOK || !passOK {
		sc.Log.Warn("seller login rejected", zap.String("email", req.Email))
		respondFail(w, "Invalid Credentials")
		return
	}

	token, err := utils.GenerateSellerToken(sc.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	setSessionCookie(w, middleware.SellerCookie, token, sc.CookieSecure)
	respondOK(w, "Logged In")
}

// IsAuth confirms an authenticated seller session.
func (sc *SellerController) IsAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"email":   sc.Email,
	})
}

// Logout clears the seller session cookie.
func (sc *SellerController) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, middleware.SellerCookie, sc.CookieSecure)
	respondOK(w, "Logged out")
}
