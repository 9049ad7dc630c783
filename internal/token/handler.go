package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/simplepass/simplepass/internal/auth"
	"github.com/simplepass/simplepass/internal/enroll"
)

// Handler exposes the token-administration and verification endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a token HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type enrollRequest struct {
	Description string `json:"description"`
	PIN         string `json:"pin"`
	PINConfirm  string `json:"pin_confirm"`
}

type tokenResponse struct {
	Serial      string `json:"serial"`
	Type        string `json:"type"`
	Description string `json:"description"`
	PINSet      bool   `json:"pin_set"`
	CreatedAt   string `json:"created_at"`
}

func toResponse(t Token) tokenResponse {
	return tokenResponse{
		Serial:      t.ID,
		Type:        t.Type,
		Description: t.Description,
		PINSet:      t.PINSet(),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// Enroll handles a static-pass enrollment form submission. The confirmation
// check runs here, before the request mapping is built; the builder itself
// takes the first PIN field verbatim.
func (h *Handler) Enroll(c *fiber.Ctx) error {
	var req enrollRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	form := enroll.FormState{Description: req.Description, PIN: req.PIN, PINConfirm: req.PINConfirm}
	if err := enroll.ConfirmPIN(form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	owner := enroll.Owner{Login: auth.Login(c), Realm: auth.Realm(c)}
	tok, err := h.service.Enroll(c.UserContext(), enroll.Build(form, owner))
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(toResponse(tok))
}

type verifyRequest struct {
	Serial string `json:"serial"`
	Pass   string `json:"pass"`
}

// Verify evaluates an authentication attempt against an enrolled token.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	switch err := h.service.Verify(c.UserContext(), req.Serial, req.Pass); {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{"value": true})
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrPINRejected):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

// List returns the authenticated owner's tokens.
func (h *Handler) List(c *fiber.Ctx) error {
	tokens, err := h.service.ListByOwner(c.UserContext(), auth.Login(c), auth.Realm(c))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		resp = append(resp, toResponse(t))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"tokens": resp})
}

type setPINRequest struct {
	PIN        string `json:"pin"`
	PINConfirm string `json:"pin_confirm"`
}

// SetPIN sets or clears a token's PIN. Only the enrolling owner may do so.
func (h *Handler) SetPIN(c *fiber.Ctx) error {
	var req setPINRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := enroll.ConfirmPIN(enroll.FormState{PIN: req.PIN, PINConfirm: req.PINConfirm}); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	// Params strings are backed by the reused request buffer; copy before the
	// serial outlives this request as a store key.
	serial := utils.CopyString(c.Params("serial"))
	if err := h.requireOwner(c, serial); err != nil {
		return err
	}
	if err := h.service.SetPIN(c.UserContext(), serial, req.PIN); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"serial": serial, "pin_set": req.PIN != ""})
}

// Delete destroys a token. Only the enrolling owner may do so.
func (h *Handler) Delete(c *fiber.Ctx) error {
	serial := utils.CopyString(c.Params("serial"))
	if err := h.requireOwner(c, serial); err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), serial); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) requireOwner(c *fiber.Ctx, serial string) error {
	t, err := h.service.Get(c.UserContext(), serial)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if t.OwnerLogin != auth.Login(c) || t.OwnerRealm != auth.Realm(c) {
		return fiber.NewError(http.StatusForbidden, "not the token owner")
	}
	return nil
}
