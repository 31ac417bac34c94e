package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
	"github.com/nominamx/timbrado-api/internal/domain/entity"
	"github.com/nominamx/timbrado-api/internal/domain/repository"
)

var _ repository.StampRecordRepository = (*StampRecordRepo)(nil)

// StampRecordRepo implementación de StampRecordRepository (usable con pool o tx).
// El documento fiscal viaja embebido como JSONB en la columna document.
type StampRecordRepo struct {
	q Querier
}

// NewStampRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStampRecordRepository(q Querier) *StampRecordRepo {
	return &StampRecordRepo{q: q}
}

// Create persiste un registro nuevo en estado pending.
func (r *StampRecordRepo) Create(ctx context.Context, record *entity.StampRecord) error {
	docJSON, err := json.Marshal(record.Document)
	if err != nil {
		return fmt.Errorf("serializar documento: %w", err)
	}
	query := `
		INSERT INTO stamp_records (id, company_id, payroll_id, document, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.q.Exec(ctx, query,
		record.ID, record.CompanyID, record.PayrollID, docJSON, record.Status, record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("registro de timbrado duplicado: %w", err)
		}
		return fmt.Errorf("insert stamp record: %w", err)
	}
	return nil
}

// GetByID obtiene el registro completo, acotado a la empresa dueña.
// Devuelve (nil, nil) cuando no existe.
func (r *StampRecordRepo) GetByID(ctx context.Context, companyID, id string) (*entity.StampRecord, error) {
	query := `
		SELECT id, company_id, payroll_id, document, status,
		       uuid, stamped_xml, error_message, created_at, stamped_at
		FROM stamp_records WHERE id = $1 AND company_id = $2`
	var rec entity.StampRecord
	var docJSON []byte
	var uuid, stampedXML, errorMessage *string
	var stampedAt *time.Time
	err := r.q.QueryRow(ctx, query, id, companyID).Scan(
		&rec.ID, &rec.CompanyID, &rec.PayrollID, &docJSON, &rec.Status,
		&uuid, &stampedXML, &errorMessage, &rec.CreatedAt, &stampedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stamp record: %w", err)
	}
	if len(docJSON) > 0 {
		var doc cfdi.Document
		if err := json.Unmarshal(docJSON, &doc); err != nil {
			return nil, fmt.Errorf("deserializar documento: %w", err)
		}
		rec.Document = &doc
	}
	rec.UUID = derefStr(uuid)
	rec.StampedXML = derefStr(stampedXML)
	rec.ErrorMessage = derefStr(errorMessage)
	rec.StampedAt = stampedAt
	return &rec, nil
}

// MarkStamped transición terminal a stamped: status, uuid, xml timbrado y
// timestamp terminal en una sola escritura atómica.
func (r *StampRecordRepo) MarkStamped(ctx context.Context, id, uuid, stampedXML string) error {
	query := `
		UPDATE stamp_records
		SET status      = $2,
		    uuid        = $3,
		    stamped_xml = $4,
		    stamped_at  = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		id, entity.StampStatusStamped, uuid, nullIfEmpty(stampedXML), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark stamped: %w", err)
	}
	return nil
}

// MarkFailed transición terminal a error, también atómica.
func (r *StampRecordRepo) MarkFailed(ctx context.Context, id, reason string) error {
	query := `
		UPDATE stamp_records
		SET status        = $2,
		    error_message = $3,
		    stamped_at    = $4
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		id, entity.StampStatusError, reason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}
