package dto

import (
	"time"

	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
	"github.com/nominamx/timbrado-api/internal/domain/entity"
)

// ErrorResponse respuesta de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRecordRequest alta de un registro de timbrado en pending.
type CreateRecordRequest struct {
	CompanyID string        `json:"companyId"`
	PayrollID string        `json:"payrollId"`
	Document  cfdi.Document `json:"document"`
}

// StampRequest identifica el registro a timbrar.
type StampRequest struct {
	RecordID  string `json:"recordId"`
	CompanyID string `json:"companyId"`
}

// RecordResponse estado persistido del registro, para polling y consulta.
type RecordResponse struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"companyId"`
	PayrollID    string     `json:"payrollId"`
	Status       string     `json:"status"`
	UUID         string     `json:"uuid,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StampedAt    *time.Time `json:"stampedAt,omitempty"`
}

// NewRecordResponse mapea la entidad al DTO (sin el XML timbrado completo).
func NewRecordResponse(r *entity.StampRecord) RecordResponse {
	return RecordResponse{
		ID:           r.ID,
		CompanyID:    r.CompanyID,
		PayrollID:    r.PayrollID,
		Status:       r.Status,
		UUID:         r.UUID,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		StampedAt:    r.StampedAt,
	}
}
