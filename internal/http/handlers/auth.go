package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/jobsapi/internal/apperrors"
	"github.com/geocoder89/jobsapi/internal/auth"
	"github.com/geocoder89/jobsapi/internal/config"
	"github.com/geocoder89/jobsapi/internal/domain/user"
	"github.com/geocoder89/jobsapi/internal/observability"
	"github.com/geocoder89/jobsapi/internal/repo/postgres"
	"github.com/geocoder89/jobsapi/internal/security"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        *auth.Manager
	prom       *observability.Prom
	cfg        config.Config
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwtManager *auth.Manager, prom *observability.Prom, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwtManager,
		prom:       prom,
		cfg:        cfg,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password, h.cfg.BcryptCost)

	if err != nil {
		h.fail(ctx, "register", apperrors.Wrap(apperrors.KindUnknown, "could not hash password", err))
		return
	}

	u, err := h.userWriter.Create(cctx, req.Email, hash, req.Name)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			h.fail(ctx, "register", apperrors.Duplicate("Email is already in use"))
			return
		}

		h.fail(ctx, "register", apperrors.Wrap(apperrors.KindUnknown, "could not create user", err))
		return
	}

	token, err := h.jwt.GenerateToken(u.ID, u.Name)

	if err != nil {
		h.fail(ctx, "register", apperrors.Wrap(apperrors.KindUnknown, "could not generate token", err))
		return
	}

	h.prom.ObserveAuth("register", "ok")

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  userBody{Name: u.Name, Email: u.Email},
		"token": token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			// same rejection as a bad password, on purpose
			h.fail(ctx, "login", apperrors.Authentication())
			return
		}

		h.fail(ctx, "login", apperrors.Wrap(apperrors.KindUnknown, "could not look up user", err))
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.fail(ctx, "login", apperrors.Authentication())
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Name)

	if err != nil {
		h.fail(ctx, "login", apperrors.Wrap(apperrors.KindUnknown, "could not generate token", err))
		return
	}

	h.prom.ObserveAuth("login", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"user":  userBody{Name: foundUser.Name, Email: foundUser.Email},
		"token": token,
	})
}

func (h *AuthHandler) fail(ctx *gin.Context, op string, err *apperrors.Error) {
	result := "rejected"

	if err.Kind == apperrors.KindUnknown {
		result = "error"
	}

	h.prom.ObserveAuth(op, result)

	_ = ctx.Error(err)
	ctx.Abort()
}
