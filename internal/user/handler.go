package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const birthDateLayout = "2006-01-02"

// CreateUserRequest represents the payload for registering a new user.
type CreateUserRequest struct {
	FullName  string `json:"fullName" binding:"required"`
	Email     string `json:"email" binding:"required"`
	BirthDate string `json:"birthDate" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// UpdateUserRequest represents a partial profile update; omitted fields are
// left unchanged.
type UpdateUserRequest struct {
	FullName  *string `json:"fullName"`
	Email     *string `json:"email"`
	BirthDate *string `json:"birthDate"`
}

// UpdatePasswordRequest represents the payload for changing a password.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// MessageResponse is the generic success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserHandler handles HTTP requests for user resources.
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler registers the public user endpoints on the given router
// group. The /users/me endpoints are attached to the authenticated group by
// the caller.
func NewUserHandler(router *gin.RouterGroup, service UserService, logger *zap.Logger) *UserHandler {
	h := &UserHandler{service: service, logger: logger}
	router.POST("/users", h.CreateUser)
	router.GET("/users", h.ListUsers)
	return h
}

// CreateUser godoc
// @Summary      Register
// @Description  Register a new user account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateUserRequest  true  "User payload"
// @Success      201      {object}  MessageResponse
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create user payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "fullName, email, birthDate and password are required"})
		return
	}
	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "birthDate must be formatted as YYYY-MM-DD"})
		return
	}

	_, err = h.service.CreateUser(c.Request.Context(), req.FullName, req.Email, birthDate, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, MessageResponse{Message: "user created"})
	case errors.Is(err, ErrEmailAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
	case IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("service.CreateUser failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
	}
}

// ListUsers godoc
// @Summary      List users
// @Description  Fetch all users without hashes or timestamps
// @Tags         users
// @Produce      json
// @Success      200  {array}   Profile
// @Failure      500  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("service.ListUsers failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch users"})
		return
	}
	profiles := make([]Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	c.JSON(http.StatusOK, profiles)
}

// Me godoc
// @Summary      Get current user
// @Description  Fetch the profile of the authenticated user
// @Tags         users
// @Produce      json
// @Success      200  {object}  Profile
// @Failure      401  {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := fromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// UpdateMe godoc
// @Summary      Update current user
// @Description  Partially update the authenticated user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      UpdateUserRequest  true  "Fields to update"
// @Success      200      {object}  MessageResponse
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := fromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update user payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	update := UserUpdate{FullName: req.FullName, Email: req.Email}
	if req.BirthDate != nil {
		birthDate, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "birthDate must be formatted as YYYY-MM-DD"})
			return
		}
		update.BirthDate = &birthDate
	}

	err := h.service.UpdateUser(c.Request.Context(), user.ID, update)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, MessageResponse{Message: "user updated"})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, ErrEmailAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
	case IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("service.UpdateUser failed", zap.Uint("id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update user"})
	}
}

// UpdateMyPassword godoc
// @Summary      Change password
// @Description  Change the authenticated user's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      UpdatePasswordRequest  true  "Password payload"
// @Success      200      {object}  MessageResponse
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /users/me/password [put]
func (h *UserHandler) UpdateMyPassword(c *gin.Context) {
	user, ok := fromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update password payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "oldPassword and newPassword are required"})
		return
	}

	err := h.service.UpdatePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, ErrWrongPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "wrong password"})
	case IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("service.UpdatePassword failed", zap.Uint("id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update password"})
	}
}

func fromContext(c *gin.Context) (*User, bool) {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := raw.(*User)
	return user, ok
}
