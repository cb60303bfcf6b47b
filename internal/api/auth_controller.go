package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/config"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
)

// AuthController mints development tokens. It is only mounted when
// auth.dev_tokens is enabled and must never reach production.
type AuthController struct {
	cfg   config.AuthConfig
	users repository.UserRepository
}

// NewAuthController creates an auth controller.
func NewAuthController(cfg config.AuthConfig, users repository.UserRepository) *AuthController {
	return &AuthController{cfg: cfg, users: users}
}

// TokenRequest is the dev token mint payload.
type TokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email"`
	Role   string `json:"role" binding:"required"`
}

// Token issues a signed token and upserts the matching user profile so
// name and email lookups resolve.
// @Summary Mint development token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "identity"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/auth/token [post]
func (ctl *AuthController) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	role := model.Role(req.Role)
	if !role.Valid() {
		Error(c, http.StatusBadRequest, "invalid request", "unknown role "+req.Role)
		return
	}

	now := time.Now()
	profile := &model.UserProfile{
		ID:        req.UserID,
		Name:      req.Name,
		Email:     req.Email,
		Role:      role,
		Approved:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ctl.users.Save(profile); err != nil {
		Error(c, http.StatusInternalServerError, "internal server error", "")
		return
	}

	ttl := time.Duration(ctl.cfg.TokenTTL) * time.Second
	token, err := auth.IssueToken(ctl.cfg.Secret, req.UserID, req.Name, req.Email, role, ttl)
	if err != nil {
		Error(c, http.StatusInternalServerError, "internal server error", "")
		return
	}

	Success(c, gin.H{"token": token, "expires_in": int(ttl.Seconds())})
}
