package repository

import (
	"context"

	"github.com/nominamx/timbrado-api/internal/domain/entity"
)

// StampRecordRepository define el puerto de persistencia para StampRecord.
type StampRecordRepository interface {
	Create(ctx context.Context, record *entity.StampRecord) error
	GetByID(ctx context.Context, companyID, id string) (*entity.StampRecord, error)
	// MarkStamped persiste la transición terminal a stamped en una sola escritura:
	// status, uuid, xml timbrado y timestamp terminal.
	MarkStamped(ctx context.Context, id, uuid, stampedXML string) error
	// MarkFailed persiste la transición terminal a error en una sola escritura.
	MarkFailed(ctx context.Context, id, reason string) error
}

// PACConfigRepository puerto de lectura de la configuración PAC por empresa.
type PACConfigRepository interface {
	GetByCompany(ctx context.Context, companyID string) (*entity.PACConfiguration, error)
}
