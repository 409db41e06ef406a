package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"greencart/middleware"
	"greencart/models"
	"greencart/store"
	"greencart/utils"
)

// UserStore is the persistence surface of the account flows.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserVerified(ctx context.Context, id primitive.ObjectID) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	CreateVerification(ctx context.Context, userID primitive.ObjectID, otp string) error
	ConsumeVerification(ctx context.Context, userID primitive.ObjectID, otp string) error
	DeleteVerificationForUser(ctx context.Context, userID primitive.ObjectID) error
}

// Mailer delivers verification codes.
type Mailer interface {
	SendOTPEmail(toEmail, otp string) error
}

// UserController handles registration, OTP verification and buyer sessions.
type UserController struct {
	Store        UserStore
	Mailer       Mailer
	CookieSecure bool
	Log          *zap.Logger
}

// NewUserController creates a new UserController.
func NewUserController(s UserStore, mailer Mailer, cookieSecure bool, log *zap.Logger) *UserController {
	return &UserController{Store: s, Mailer: mailer, CookieSecure: cookieSecure, Log: log}
}

// Register creates an unverified account and emails it a one-time code. An
// existing unverified account is reused and simply gets a fresh code.
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondFail(w, "Missing Details")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	isNewUser := false
	user, err := uc.Store.UserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if user.IsVerified {
			respondFail(w, "User already exists and is verified. Please log in.")
			return
		}
		// Unverified account, restart verification with a fresh code.
		if err := uc.Store.DeleteVerificationForUser(ctx, user.ID); err != nil {
			uc.Log.Error("discard pending otp", zap.Error(err))
			respondFail(w, "Registration failed. Please try again.")
			return
		}
	case errors.Is(err, store.ErrNotFound):
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Registration failed")
			return
		}
		user = &models.User{Name: req.Name, Email: req.Email, Password: string(hashed)}
		user.ID, err = uc.Store.CreateUser(ctx, user)
		if err != nil {
			uc.Log.Error("create user", zap.Error(err))
			respondFail(w, "Registration failed. Please try again.")
			return
		}
		isNewUser = true
	default:
		uc.Log.Error("lookup user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	if err := uc.Store.CreateVerification(ctx, user.ID, otp); err != nil {
		uc.Log.Error("store otp", zap.Error(err))
		respondFail(w, "Registration failed. Please try again.")
		return
	}

	if err := uc.Mailer.SendOTPEmail(user.Email, otp); err != nil {
		uc.Log.Error("send otp email", zap.String("email", user.Email), zap.Error(err))
		// A brand-new account without a deliverable code is useless; roll it
		// back so the email can be registered again.
		if isNewUser {
			if derr := uc.Store.DeleteUser(ctx, user.ID); derr != nil {
				uc.Log.Error("rollback user", zap.Error(derr))
			}
		}
		respondFail(w, "Registration failed: Could not send verification email. Please try again.")
		return
	}

	respondOK(w, "Registration successful! OTP sent to your email. Please verify.")
}

// Login authenticates a verified buyer and issues a session token.
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondFail(w, "Email and password are required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Store.UserByEmail(ctx, req.Email)
	if err != nil {
		respondFail(w, "Invalid email or password")
		return
	}
	if !user.IsVerified {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":          false,
			"message":          "Please verify your email address to log in.",
			"redirectToVerify": true,
		})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondFail(w, "Invalid email or password")
		return
	}

	uc.issueSession(w, user)
}

// VerifyEmailOTP consumes a one-time code, marks the account verified and
// logs the buyer in.
func (uc *UserController) VerifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}
	if req.Email == "" || req.OTP == "" {
		respondFail(w, "Email and OTP are required.")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Store.UserByEmail(ctx, req.Email)
	if err != nil {
		respondFail(w, "User not found.")
		return
	}
	if user.IsVerified {
		respondFail(w, "Email already verified.")
		return
	}

	if err := uc.Store.ConsumeVerification(ctx, user.ID, req.OTP); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondFail(w, "Invalid or expired OTP.")
			return
		}
		uc.Log.Error("consume otp", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Verification failed")
		return
	}
	if err := uc.Store.SetUserVerified(ctx, user.ID); err != nil {
		uc.Log.Error("mark verified", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Verification failed")
		return
	}
	user.IsVerified = true

	uc.issueSession(w, user)
}

// ResendEmailOTP replaces a pending code with a fresh one.
func (uc *UserController) ResendEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}
	if req.Email == "" {
		respondFail(w, "Email is required.")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Store.UserByEmail(ctx, req.Email)
	if err != nil {
		respondFail(w, "User not found.")
		return
	}
	if user.IsVerified {
		respondFail(w, "Email already verified.")
		return
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to resend OTP")
		return
	}
	if err := uc.Store.CreateVerification(ctx, user.ID, otp); err != nil {
		uc.Log.Error("store otp", zap.Error(err))
		respondFail(w, "Failed to resend OTP. Please try again.")
		return
	}
	if err := uc.Mailer.SendOTPEmail(user.Email, otp); err != nil {
		uc.Log.Error("send otp email", zap.String("email", user.Email), zap.Error(err))
		respondFail(w, "Failed to resend OTP. Please try again.")
		return
	}

	respondOK(w, "New OTP sent to your email. Please check your inbox.")
}

// IsAuth reports the authenticated buyer's identity.
func (uc *UserController) IsAuth(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    userSummary(user),
	})
}

// Logout clears the buyer session cookie.
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, middleware.UserCookie, uc.CookieSecure)
	respondOK(w, "Logged out")
}

func (uc *UserController) issueSession(w http.ResponseWriter, user *models.User) {
	token, err := utils.GenerateUserToken(user.ID.Hex())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	setSessionCookie(w, middleware.UserCookie, token, uc.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    userSummary(user),
		"token":   token,
	})
}

func userSummary(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"_id":        user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"isVerified": user.IsVerified,
		"cartItems":  user.CartItems,
	}
}
