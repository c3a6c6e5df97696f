package session

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"auth-backend/internal/apperr"
	"auth-backend/internal/auth"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns the HTTP handlers for svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createSessionRequest struct {
	Login string `json:"login"`
	Role  string `json:"role"`
}

func (r createSessionRequest) Validate() error {
	allowed := make([]any, 0, len(auth.Roles()))
	for _, role := range auth.Roles() {
		allowed = append(allowed, string(role))
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, validation.Required, validation.Length(1, 320)),
		validation.Field(&r.Role, validation.Required, validation.In(allowed...)),
	)
}

// Create handles POST /accounts/session?role=<Role>.
func (h *Handler) Create(c *fiber.Ctx) error {
	var body struct {
		Login string `json:"login"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.MalformedRequest("Invalid request body")
	}

	req := createSessionRequest{Login: body.Login, Role: c.Query("role")}
	if err := req.Validate(); err != nil {
		return apperr.FromValidation(err)
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return apperr.Validation(map[string][]string{"role": {err.Error()}})
	}

	pair, err := h.svc.CreateSession(c.UserContext(), req.Login, role)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

// Permissions handles GET /accounts/permission. The identity comes from
// auth.IdentityMiddleware.
func (h *Handler) Permissions(c *fiber.Ctx) error {
	perms, err := h.svc.PermissionsFor(c.UserContext(), auth.CurrentIdentity(c))
	if err != nil {
		return err
	}
	return c.JSON(perms)
}

// RegisterRoutes mounts the account routes.
func RegisterRoutes(app fiber.Router, h *Handler) {
	accounts := app.Group("/accounts")
	accounts.Post("/session", h.Create)
	accounts.Get("/permission", auth.IdentityMiddleware(h.svc), h.Permissions)
}
