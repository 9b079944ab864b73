package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/middleware"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// @Summary List Users
// @Description Get a paginated list of users
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by name, email or phone"
// @Param role query string false "Filter by role"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "role", "status")

	users, total, err := h.userService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.UserResponse
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get User
// @Description Get a user by ID
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /users/{user_id} [get]
func (h *UserHandler) Show(c *gin.Context) {
	user, err := h.userService.FindByID(c.Request.Context(), idParam(c, "user_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// @Summary Create User
// @Description Registers a new user account
// @Tags Users
// @Accept json
// @Produce json
// @Param request body services.CreateUserInput true "User payload"
// @Success 201 {object} models.UserResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var input services.CreateUserInput
	if err := BindNestedOrFlat(c, "user", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.Email == "" || input.Password == "" || input.FullName == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Email, password and full name are required"})
		return
	}

	actorID := middleware.GetUserID(c)
	user, err := h.userService.Create(c.Request.Context(), &input, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToResponse()})
}

// @Summary Update User
// @Description Updates profile and admin-managed fields
// @Tags Users
// @Accept json
// @Produce json
// @Param user_id path int true "User ID"
// @Param request body services.UpdateUserInput true "Fields to change"
// @Success 200 {object} models.UserResponse
// @Security BearerAuth
// @Router /users/{user_id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var input services.UpdateUserInput
	if err := BindNestedOrFlat(c, "user", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Only admins may change roles and account status
	if !middleware.IsAdmin(c) {
		input.Role = nil
		input.Status = nil
	}

	actorID := middleware.GetUserID(c)
	user, err := h.userService.Update(c.Request.Context(), idParam(c, "user_id"), &input, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// @Summary Delete User
// @Description Soft deletes a user account
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/{user_id} [delete]
func (h *UserHandler) Destroy(c *gin.Context) {
	actorID := middleware.GetUserID(c)
	if err := h.userService.SoftDelete(c.Request.Context(), idParam(c, "user_id"), &actorID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// @Summary Change Password
// @Description Changes the current user's password
// @Tags Users
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/change_password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current and new password are required"})
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// @Summary My Units
// @Description Lists the units owned by a user
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users/{user_id}/units [get]
func (h *UserHandler) Units(c *gin.Context) {
	units, err := h.userService.Units(c.Request.Context(), idParam(c, "user_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var responses []models.UnitResponse
	for _, u := range units {
		responses = append(responses, u.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"units": responses})
}
