package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/learn-connect/internal/middleware"
	"github.com/iliyamo/learn-connect/internal/model"
	"github.com/iliyamo/learn-connect/internal/service"
)

// Profiles reads and updates the signed-in user's profile.
// *service.ProfileService implements it.
type Profiles interface {
	Get(ctx context.Context, userID string) (model.PublicUser, error)
	Update(ctx context.Context, userID string, upd model.ProfileUpdate) (model.PublicUser, error)
}

// ProfileHandler serves /me. Routes must sit behind middleware.JWTAuth.
type ProfileHandler struct {
	Profiles Profiles
	Log      *zap.Logger
}

func NewProfileHandler(p Profiles, log *zap.Logger) *ProfileHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{Profiles: p, Log: log}
}

type updateProfileReq struct {
	FullName string `json:"fullName"`
	School   string `json:"school"`
	Course   string `json:"course"`
}

type profileResp struct {
	Success bool             `json:"success"`
	User    model.PublicUser `json:"user"`
}

// Me: current user's public profile.
func (h *ProfileHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Not authorized, no token")
	}
	p, err := h.Profiles.Get(c.Request().Context(), uid)
	if err != nil {
		return h.profileError(c, err)
	}
	return c.JSON(http.StatusOK, profileResp{Success: true, User: p})
}

// UpdateMe: apply the non-empty fields of the body.
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Not authorized, no token")
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	p, err := h.Profiles.Update(c.Request().Context(), uid, model.ProfileUpdate{
		FullName: strings.TrimSpace(req.FullName),
		School:   strings.TrimSpace(req.School),
		Course:   strings.TrimSpace(req.Course),
	})
	if err != nil {
		return h.profileError(c, err)
	}
	return c.JSON(http.StatusOK, profileResp{Success: true, User: p})
}

func (h *ProfileHandler) profileError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return fail(c, http.StatusNotFound, msgUserNotFound)
	}
	h.Log.Error("profile request failed", zap.String("path", c.Path()), zap.Error(err))
	return failWith(c, http.StatusInternalServerError, "Server error", err)
}
