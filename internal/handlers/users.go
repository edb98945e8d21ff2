package handlers

import (
	"net/http"
	"strconv"

	"github.com/GunarsK-portfolio/user-service/internal/models"
	"github.com/GunarsK-portfolio/user-service/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user management HTTP requests.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateUserRequest represents the profile update payload. Omitted fields
// are left unchanged.
type UpdateUserRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Email       *string             `json:"email" validate:"omitempty,email,max=255"`
	PushToken   *string             `json:"push_token" validate:"omitempty,max=500"`
	Preferences *PreferencesRequest `json:"preferences" validate:"omitempty"`
}

// List godoc
// @Summary List users
// @Description Return a page of users, newest first
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10) maximum(100)
// @Success 200 {object} Response{data=[]models.PublicUser}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", models.DefaultPage)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, err := queryInt(c, "limit", models.DefaultLimit)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	result, err := h.userService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondPaginated(c, result.Users, result.Meta, "Users retrieved successfully")
}

// Get godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Response{data=models.PublicUser}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, user, "User retrieved successfully")
}

// Update godoc
// @Summary Update a user
// @Description Change the profile fields present in the body
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} Response{data=models.PublicUser}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 409 {object} Response
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	input := service.UpdateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		PushToken: req.PushToken,
	}
	if req.Preferences != nil {
		prefs := req.Preferences.toModel()
		input.Preferences = &prefs
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, user, "User updated successfully")
}

// UpdatePreferences godoc
// @Summary Replace notification preferences
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body PreferencesRequest true "Preferences"
// @Success 200 {object} Response{data=models.PublicUser}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /users/{id}/preferences [patch]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := bindAndValidate(c, &req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.UpdatePreferences(c.Request.Context(), c.Param("id"), req.toModel())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, user, "User preferences updated successfully")
}

// Delete godoc
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, nil, "User deleted successfully")
}

// queryInt reads an optional positive integer query parameter.
func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
