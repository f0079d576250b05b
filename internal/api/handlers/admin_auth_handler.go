package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

// AdminAuthHandler issues admin JWTs against env-configured credentials.
type AdminAuthHandler struct {
	cfg *config.Config
}

// NewAdminAuthHandler creates a new AdminAuthHandler.
func NewAdminAuthHandler(cfg *config.Config) *AdminAuthHandler {
	return &AdminAuthHandler{cfg: cfg}
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login.
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "account or password required"})
		return
	}

	if h.cfg.AdminUsername == "" || h.cfg.AdminPassword == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "admin login not configured"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminPassword)) == 1
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid credentials"})
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": h.cfg.AdminUsername,
		"role":     "admin",
		"iat":      now.Unix(),
		"exp":      now.Add(h.cfg.JwtTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(h.cfg.JwtSecret))
	if err != nil {
		log.Printf("Failed to sign admin token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "token": signed})
}
