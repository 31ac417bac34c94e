package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nominamx/timbrado-api/internal/domain/entity"
	"github.com/nominamx/timbrado-api/internal/domain/repository"
)

var _ repository.PACConfigRepository = (*PACConfigRepo)(nil)

// PACConfigRepo lectura de la configuración PAC por empresa. Este servicio no
// la escribe: la administra el almacenamiento de configuración.
type PACConfigRepo struct {
	q Querier
}

// NewPACConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPACConfigRepository(q Querier) *PACConfigRepo {
	return &PACConfigRepo{q: q}
}

// GetByCompany devuelve la configuración de la empresa o (nil, nil) si no hay.
func (r *PACConfigRepo) GetByCompany(ctx context.Context, companyID string) (*entity.PACConfiguration, error) {
	query := `
		SELECT company_id, provider, username, password, sandbox
		FROM pac_configurations WHERE company_id = $1`
	var cfg entity.PACConfiguration
	err := r.q.QueryRow(ctx, query, companyID).Scan(
		&cfg.CompanyID, &cfg.Provider, &cfg.Username, &cfg.Password, &cfg.Sandbox,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pac configuration: %w", err)
	}
	return &cfg, nil
}
