package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medicare-api/config"
	"medicare-api/repository"
	"medicare-api/service"
)

type api struct {
	auth    *service.AuthService
	users   repository.UserRepository
	uploads repository.UploadRepository
	cfg     config.Config
	log     *zap.Logger
}

func newAPI(auth *service.AuthService, users repository.UserRepository, uploads repository.UploadRepository, cfg config.Config, log *zap.Logger) *api {
	return &api{auth: auth, users: users, uploads: uploads, cfg: cfg, log: log}
}

func (a *api) setupRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/register", a.registerHandler)
	auth.POST("/login", a.loginHandler)
	auth.POST("/refresh", a.refreshHandler)
	auth.POST("/logout", a.logoutHandler)
	auth.GET("/me", a.authRequired(), a.meHandler)

	r.POST("/upload/license", a.uploadLicenseHandler)
}

// respondOK writes the success envelope.
func respondOK(c *gin.Context, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// respondError translates the service error taxonomy to a status code and
// the error envelope. Anything unclassified is a 500 with a generic message.
func (a *api) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var conflict *service.ConflictError
	var authErr *service.AuthenticationError
	var validation *service.ValidationError
	var storage *service.StorageError
	switch {
	case errors.As(err, &conflict):
		status, message = http.StatusConflict, conflict.Message
	case errors.As(err, &authErr):
		status, message = http.StatusUnauthorized, authErr.Message
	case errors.As(err, &validation):
		status, message = http.StatusBadRequest, validation.Message
	case errors.As(err, &storage):
		status, message = http.StatusBadRequest, storage.Message
	default:
		a.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

func (a *api) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		userID, err := a.auth.VerifyAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			c.Abort()
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

type registerRequest struct {
	Role            string   `json:"role" binding:"required"`
	Name            string   `json:"name" binding:"required"`
	Email           string   `json:"email" binding:"required"`
	Password        string   `json:"password" binding:"required"`
	Phone           string   `json:"phone"`
	DateOfBirth     string   `json:"dateOfBirth"`
	Gender          string   `json:"gender"`
	Specialization  string   `json:"specialization"`
	LicenseDocument string   `json:"licenseDocument"`
	Degrees         []string `json:"degrees"`
	Experience      int      `json:"experience"`
	ConsultationFee int64    `json:"consultationFee"`
	FollowUpFee     int64    `json:"followUpFee"`
	About           string   `json:"about"`
	Location        string   `json:"location"`
}

func (a *api) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, &service.ValidationError{Message: err.Error()})
		return
	}
	user, pair, err := a.auth.Register(c.Request.Context(), service.RegisterInput{
		Role:            req.Role,
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Phone:           req.Phone,
		DateOfBirth:     req.DateOfBirth,
		Gender:          req.Gender,
		Specialization:  req.Specialization,
		LicenseDocument: req.LicenseDocument,
		Degrees:         req.Degrees,
		Experience:      req.Experience,
		ConsultationFee: req.ConsultationFee,
		FollowUpFee:     req.FollowUpFee,
		About:           req.About,
		Location:        req.Location,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	respondOK(c, "registered successfully", gin.H{
		"user":         user.Public(),
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (a *api) loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, &service.ValidationError{Message: err.Error()})
		return
	}
	user, pair, err := a.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		a.respondError(c, err)
		return
	}
	respondOK(c, "login successful", gin.H{
		"user":         user.Public(),
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (a *api) refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, &service.ValidationError{Message: err.Error()})
		return
	}
	pair, err := a.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		a.respondError(c, err)
		return
	}
	respondOK(c, "token refreshed", gin.H{
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (a *api) logoutHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	// Logout never fails from the caller's view, bad bodies included.
	_ = c.ShouldBindJSON(&req)
	if err := a.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		a.respondError(c, err)
		return
	}
	respondOK(c, "logged out", nil)
}

func (a *api) meHandler(c *gin.Context) {
	userID := c.GetUint("userID")
	user, err := a.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			a.respondError(c, service.ErrInvalidCredentials)
			return
		}
		a.respondError(c, err)
		return
	}
	if !user.Active {
		a.respondError(c, service.ErrAccountDeactivated)
		return
	}
	respondOK(c, "ok", gin.H{"user": user.Public()})
}
