package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/learn-connect/internal/model"
	"github.com/iliyamo/learn-connect/internal/service"
)

// AuthFlow is the account lifecycle behind /api/auth. *service.AuthService
// implements it.
type AuthFlow interface {
	Register(ctx context.Context, in service.RegisterInput) (service.RegisterResult, error)
	VerifyEmail(ctx context.Context, email, code string) (service.AuthResult, error)
	ResendCode(ctx context.Context, email string) (service.ResendResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth AuthFlow
	Log  *zap.Logger
}

func NewAuthHandler(a AuthFlow, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Auth: a, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}
type verifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type resendReq struct {
	Email string `json:"email"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerData struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	IsVerified bool   `json:"isVerified"`
	EmailSent  bool   `json:"emailSent"`
}
type sessionData struct {
	Token string         `json:"token"`
	User  model.AuthUser `json:"user"`
}

const (
	msgRegisteredPending  = "Registration successful! Please check your email for verification code."
	msgRegisteredVerified = "Registration successful! Your account has been automatically verified."
	msgResent             = "New verification code sent to your email"
	msgResendVerified     = "Email service unavailable. Your account has been automatically verified."
	msgUserNotFound       = "User not found"
	msgAlreadyVerified    = "Email already verified"
)

// Register: create a pending account and send its first code.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all required fields")
	}
	res, err := h.Auth.Register(c.Request().Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, "Please provide all required fields")
	case errors.Is(err, service.ErrConflict):
		return fail(c, http.StatusConflict, "Email already registered")
	case err != nil:
		return h.internal(c, "Server error during registration", err)
	}

	msg := msgRegisteredPending
	if !res.EmailSent {
		msg = msgRegisteredVerified
	}
	return c.JSON(http.StatusCreated, envelope{Success: true, Message: msg, Data: registerData{
		UserID:     res.User.ID,
		Email:      res.User.Email,
		FullName:   res.User.FullName,
		IsVerified: res.User.Verified,
		EmailSent:  res.EmailSent,
	}})
}

// VerifyEmail: consume the pending code and return a session.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide email and verification code")
	}
	res, err := h.Auth.VerifyEmail(c.Request().Context(), req.Email, req.Code)
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, "Please provide email and verification code")
	case errors.Is(err, service.ErrNotFound):
		return fail(c, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, service.ErrAlreadyVerified):
		return fail(c, http.StatusBadRequest, msgAlreadyVerified)
	case errors.Is(err, service.ErrInvalidCode):
		return fail(c, http.StatusBadRequest, "Invalid verification code")
	case errors.Is(err, service.ErrExpiredCode):
		return fail(c, http.StatusBadRequest, "Verification code expired. Please request a new one.")
	case err != nil:
		return h.internal(c, "Server error during verification", err)
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Email verified successfully!",
		Data:    sessionData{Token: res.Token, User: res.User.Auth()},
	})
}

// ResendCode: replace the pending code with a fresh one.
func (h *AuthHandler) ResendCode(c echo.Context) error {
	var req resendReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide email")
	}
	res, err := h.Auth.ResendCode(c.Request().Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, "Please provide email")
	case errors.Is(err, service.ErrNotFound):
		return fail(c, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, service.ErrAlreadyVerified):
		return fail(c, http.StatusBadRequest, msgAlreadyVerified)
	case err != nil:
		return h.internal(c, "Server error", err)
	}
	msg := msgResent
	if !res.EmailSent {
		msg = msgResendVerified
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Message: msg})
}

// Login: verified accounts with a matching password get a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide email and password")
	}
	res, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, "Please provide email and password")
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrNotVerified):
		return fail(c, http.StatusForbidden, "Please verify your email before logging in")
	case err != nil:
		return h.internal(c, "Server error during login", err)
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Login successful",
		Data:    sessionData{Token: res.Token, User: res.User.Auth()},
	})
}

func (h *AuthHandler) internal(c echo.Context, msg string, err error) error {
	h.Log.Error(msg, zap.String("path", c.Path()), zap.Error(err))
	return failWith(c, http.StatusInternalServerError, msg, err)
}
