package handlers

import (
	"log"

	"webstudio/internal/models"
	"webstudio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
// protect guards the routes that need a session.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/oauth/:provider", h.HandleProviderLogin)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Get("/me", protect, h.HandleMe)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest represents the request body for login.
// Field presence is checked by the service so that empty attempts still count
// against the rate limit.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.Register(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		log.Printf("Error registering user %s: %v", req.Email, err)
		return respondError(c, "Registration failed", err)
	}
	return h.respondSession(c, fiber.StatusCreated, "User registered successfully", user)
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for %s: %v", req.Email, err)
		return respondError(c, "Authentication failed", err)
	}
	return h.respondSession(c, fiber.StatusOK, "Login successful", user)
}

// HandleProviderLogin signs in through an OAuth provider.
func (h *AuthHandler) HandleProviderLogin(c *fiber.Ctx) error {
	provider := c.Params("provider")
	user, err := h.authService.LoginWithProvider(c.UserContext(), provider)
	if err != nil {
		log.Printf("Error during %s login: %v", provider, err)
		return respondError(c, "Authentication failed", err)
	}
	return h.respondSession(c, fiber.StatusOK, "Login successful", user)
}

// HandleLogout ends the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(); err != nil {
		return respondError(c, "Could not log out", err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// HandleMe returns the session user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return respondError(c, "Not signed in", services.ErrAuthenticationRequired)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) respondSession(c *fiber.Ctx, status int, message string, user *models.User) error {
	token, err := h.authService.IssueToken(user)
	if err != nil {
		return respondError(c, "Could not issue token", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"token":   token,
		"user":    user,
	})
}
