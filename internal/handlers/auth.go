package handlers

import (
	"errors"
	"net/http"

	"github.com/GunarsK-portfolio/user-service/internal/metrics"
	"github.com/GunarsK-portfolio/user-service/internal/middleware"
	"github.com/GunarsK-portfolio/user-service/internal/models"
	"github.com/GunarsK-portfolio/user-service/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration, login and identity HTTP requests.
type AuthHandler struct {
	authService service.AuthService
	metrics     *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService service.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     m,
	}
}

// PreferencesRequest carries notification opt-ins. Both flags are
// required; pointers distinguish false from missing.
type PreferencesRequest struct {
	Email *bool `json:"email" validate:"required"`
	Push  *bool `json:"push" validate:"required"`
}

func (p *PreferencesRequest) toModel() models.Preferences {
	return models.Preferences{Email: *p.Email, Push: *p.Push}
}

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Name        string              `json:"name" validate:"required,min=1,max=100"`
	Email       string              `json:"email" validate:"required,email,max=255"`
	Password    string              `json:"password" validate:"required,min=6,bcrypt_max"`
	PushToken   *string             `json:"push_token" validate:"omitempty,max=500"`
	Preferences *PreferencesRequest `json:"preferences" validate:"required"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register godoc
// @Summary Register a user
// @Description Create an account and return it with an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} Response{data=service.AuthResult}
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Failure 503 {object} Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PushToken:   req.PushToken,
		Preferences: req.Preferences.toModel(),
	})
	if err != nil {
		h.metrics.RecordAuth(metrics.OperationRegister, authOutcome(err))
		respondServiceError(c, err)
		return
	}

	h.metrics.RecordAuth(metrics.OperationRegister, metrics.OutcomeSuccess)
	RespondSuccess(c, http.StatusCreated, result, "User registered successfully")
}

// Login godoc
// @Summary User login
// @Description Verify credentials and return the user with an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} Response{data=service.AuthResult}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 503 {object} Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordAuth(metrics.OperationLogin, authOutcome(err))
		respondServiceError(c, err)
		return
	}

	h.metrics.RecordAuth(metrics.OperationLogin, metrics.OutcomeSuccess)
	RespondSuccess(c, http.StatusOK, result, "Login successful")
}

// Me godoc
// @Summary Current user
// @Description Return the user the bearer token was issued for
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.PublicUser}
// @Failure 401 {object} Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	RespondSuccess(c, http.StatusOK, user, "User retrieved successfully")
}

func authOutcome(err error) string {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		return metrics.OutcomeDuplicate
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthenticated):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
