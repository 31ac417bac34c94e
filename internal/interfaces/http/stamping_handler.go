package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nominamx/timbrado-api/internal/application/dto"
	"github.com/nominamx/timbrado-api/internal/application/stamping"
	"github.com/nominamx/timbrado-api/internal/domain"
)

// StampingHandler maneja las peticiones HTTP del ciclo de timbrado.
type StampingHandler struct {
	orch *stamping.Orchestrator
}

// NewStampingHandler construye el handler.
func NewStampingHandler(orch *stamping.Orchestrator) *StampingHandler {
	return &StampingHandler{orch: orch}
}

// CreateRecord valida el documento fiscal y crea el registro en pending.
// POST /api/records
func (h *StampingHandler) CreateRecord(c *fiber.Ctx) error {
	var in dto.CreateRecordRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.CompanyID == "" || in.PayrollID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "companyId y payrollId requeridos"})
	}
	record, err := h.orch.CreateRecord(c.Context(), in.CompanyID, in.PayrollID, in.Document)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDocument) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DOCUMENT", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewRecordResponse(record))
}

// Stamp ejecuta el intento de timbrado del registro.
// POST /api/stamping
func (h *StampingHandler) Stamp(c *fiber.Ctx) error {
	var in dto.StampRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.RecordID == "" || in.CompanyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "recordId y companyId requeridos"})
	}

	outcome, err := h.orch.Stamp(c.Context(), in.CompanyID, in.RecordID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		case errors.Is(err, domain.ErrAlreadyStamped):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "ALREADY_STAMPED", Message: err.Error()})
		case errors.Is(err, domain.ErrAlreadyFailed):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "ALREADY_FAILED", Message: err.Error()})
		case errors.Is(err, domain.ErrConfigurationMissing):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "CONFIGURATION_MISSING", Message: err.Error()})
		case errors.Is(err, domain.ErrUnsupportedProvider):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "UNSUPPORTED_PROVIDER", Message: err.Error()})
		case errors.Is(err, domain.ErrInvalidDocument):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DOCUMENT", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	// Un rechazo del PAC también es una respuesta completa: success=false + causa.
	return c.JSON(outcome)
}

// GetRecord devuelve el estado del registro (polling).
// GET /api/records/:id?companyId=...
func (h *StampingHandler) GetRecord(c *fiber.Ctx) error {
	id := c.Params("id")
	companyID := c.Query("companyId")
	if id == "" || companyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id y companyId requeridos"})
	}
	record, err := h.orch.GetRecord(c.Context(), companyID, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.NewRecordResponse(record))
}
