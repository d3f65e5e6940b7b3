package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillorbit/skillorbit/internal/auth"
	"github.com/skillorbit/skillorbit/internal/models"
)

// envelope is the response shape every auth endpoint answers with
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	UserName  string `json:"userName" binding:"required"`
	UserEmail string `json:"userEmail" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role" binding:"omitempty,oneof=user instructor"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	UserEmail string `json:"userEmail" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string `json:"_id"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Role      string `json:"role"`
}

// LoginData is the data payload of a successful login
type LoginData struct {
	AccessToken string      `json:"accessToken"`
	User        *UserDetail `json:"user"`
}

// UserData is the data payload of a successful session check
type UserData struct {
	User *UserDetail `json:"user"`
}

func newUserDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:        user.ID,
		UserName:  user.UserName,
		UserEmail: user.UserEmail,
		Role:      user.Role,
	}
}

func (s *Server) setAccessTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, token, maxAge, "/", "", s.config.Auth.SecureCookies, true)
}

// @Summary Register
// @Description Create a learner or instructor account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} envelope
// @Failure 400 {object} envelope
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Rejected request body")
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: bindErrorMessage(err)})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).
		Where("user_name = ? OR user_email = ?", req.UserName, req.UserEmail).
		Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing users")
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "Internal server error"})
		return
	}

	if count > 0 {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "User name or user email already exists"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "Failed to create user"})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		UserName:     req.UserName,
		UserEmail:    req.UserEmail,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.UserEmail).Msg("User registered")

	c.JSON(http.StatusCreated, envelope{Success: true, Message: "User registered successfully!"})
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Rejected request body")
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: bindErrorMessage(err)})
		return
	}

	var user models.User
	if err := s.db.Where("user_email = ?", req.UserEmail).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "Invalid credentials"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "Invalid credentials"})
		return
	}

	token, _, err := s.signer.GenerateToken(user.ID, user.UserEmail, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "Failed to generate token"})
		return
	}

	s.setAccessTokenCookie(c, token, int(s.config.Auth.TokenTTL/time.Second))

	s.logger.Info().Str("user_id", user.ID).Str("email", user.UserEmail).Msg("User logged in")

	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Logged in successfully",
		Data: LoginData{
			AccessToken: token,
			User:        newUserDetail(&user),
		},
	})
}

// @Summary Check session
// @Description Return the user behind the presented token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Router /api/auth/check-auth [get]
func (s *Server) checkAuth(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "User is not authenticated"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Authenticated user!",
		Data:    UserData{User: newUserDetail(&user)},
	})
}

// @Summary Logout
// @Description Revoke the presented token and clear the session cookie
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "User is not authenticated"})
		return
	}

	expiresAt := sessionData.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(s.config.Auth.TokenTTL)
	}

	revocation := &models.RevokedToken{
		ID:        sessionData.TokenID,
		UserID:    sessionData.UserID,
		ExpiresAt: expiresAt,
	}
	if err := s.db.Create(revocation).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to revoke token")
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "Internal server error"})
		return
	}

	s.setAccessTokenCookie(c, "", -1)

	s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")

	c.JSON(http.StatusOK, envelope{Success: true, Message: "Logged out successfully!"})
}
