package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Godszeal/votting-sub000/internal/auth"
	"github.com/Godszeal/votting-sub000/internal/identity"
	"github.com/Godszeal/votting-sub000/internal/obs"
)

type registerRequest struct {
	MatricNumber string `json:"matricNumber" binding:"required"`
	Username     string `json:"username"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	Faculty      string `json:"faculty" binding:"required"`
	Department   string `json:"department" binding:"required"`
}

type loginRequest struct {
	MatricNumber string `json:"matricNumber" binding:"required"`
	Password     string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token      string `json:"token"`
	Role       string `json:"role"`
	Faculty    string `json:"faculty"`
	Department string `json:"department"`
}

// Register handles POST /auth/register (and its /auth/signup alias).
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	u, err := h.users.Register(c.Request.Context(), identity.RegisterInput{
		MatricNo:   req.MatricNumber,
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Faculty:    req.Faculty,
		Department: req.Department,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.session(c, http.StatusCreated, u)
}

// Login handles POST /auth/login. Behind the account lockout limiter:
// repeated failures for a matric number answer 429 until the window expires.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.logins.Blocked(ctx, req.MatricNumber) {
		obs.Login("locked")
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "too many failed attempts, try again later"})
		return
	}

	u, err := h.users.Login(ctx, req.MatricNumber, req.Password)
	if err != nil {
		h.logins.RecordFailure(ctx, req.MatricNumber)
		obs.Login("failure")
		respondError(c, err)
		return
	}
	h.logins.Reset(ctx, req.MatricNumber)
	obs.Login("success")

	h.session(c, http.StatusOK, u)
}

func (h *Handler) session(c *gin.Context, status int, u *identity.User) {
	tok, err := auth.Issue(u.ID, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.TokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, sessionResponse{
		Token:      tok.Value,
		Role:       u.Role,
		Faculty:    u.Faculty,
		Department: u.Department,
	})
}
