// Package stamping contiene el orquestador de timbrado: la máquina de estados
// que carga el registro pendiente, selecciona el adaptador PAC configurado y
// persiste el desenlace terminal exactamente una vez por invocación.
package stamping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nominamx/timbrado-api/internal/domain"
	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
	"github.com/nominamx/timbrado-api/internal/domain/entity"
	"github.com/nominamx/timbrado-api/internal/domain/repository"
	"github.com/nominamx/timbrado-api/internal/infrastructure/pac"
)

// Outcome resultado estructurado de un intento de timbrado. Es la respuesta
// del límite de invocación: nunca se lanza nada más allá de esta capa.
type Outcome struct {
	Success bool   `json:"success"`
	UUID    string `json:"uuid,omitempty"`
	Message string `json:"message,omitempty"`
}

// Orchestrator núcleo de la máquina de estados pending → stamped | error.
// Sin estado compartido entre invocaciones: todo vive en el StampRecord.
type Orchestrator struct {
	records  repository.StampRecordRepository
	configs  repository.PACConfigRepository
	registry *Registry
	log      zerolog.Logger
}

// NewOrchestrator construye el orquestador con sus dependencias.
func NewOrchestrator(
	records repository.StampRecordRepository,
	configs repository.PACConfigRepository,
	registry *Registry,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{records: records, configs: configs, registry: registry, log: log}
}

// CreateRecord valida el documento y persiste un registro nuevo en pending.
// Es la única entrada a la máquina de estados: un reintento de timbrado tras
// un desenlace terminal pasa otra vez por aquí, nunca muta el registro viejo.
func (o *Orchestrator) CreateRecord(ctx context.Context, companyID, payrollID string, doc cfdi.Document) (*entity.StampRecord, error) {
	validated, err := cfdi.NewDocument(doc)
	if err != nil {
		return nil, err
	}
	record := &entity.StampRecord{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		PayrollID: payrollID,
		Document:  validated,
		Status:    entity.StampStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("crear registro de timbrado: %w", err)
	}
	return record, nil
}

// GetRecord devuelve el estado persistido del registro (para polling).
func (o *Orchestrator) GetRecord(ctx context.Context, companyID, recordID string) (*entity.StampRecord, error) {
	record, err := o.records.GetByID(ctx, companyID, recordID)
	if err != nil {
		return nil, fmt.Errorf("consultar registro: %w", err)
	}
	if record == nil {
		return nil, domain.ErrRecordNotFound
	}
	return record, nil
}

// Stamp ejecuta un intento de timbrado completo:
//
//	cargar registro → guarda de idempotencia → validar documento →
//	cargar configuración PAC → resolver adaptador → invocar → persistir terminal
//
// La guarda de idempotencia corre antes de consultar configuración para fallar
// rápido sin trabajo externo desperdiciado. Todo modo de fallo regresa como
// error tipado o como Outcome fallido; nada se propaga sin tipificar.
func (o *Orchestrator) Stamp(ctx context.Context, companyID, recordID string) (*Outcome, error) {
	log := o.log.With().Str("record", recordID).Str("company", companyID).Logger()

	record, err := o.records.GetByID(ctx, companyID, recordID)
	if err != nil {
		return nil, fmt.Errorf("cargar registro: %w", err)
	}
	if record == nil {
		return nil, domain.ErrRecordNotFound
	}

	// Guarda de idempotencia: un registro terminal jamás se reenvía ni se muta.
	// Tras un error terminal el reintento pasa por CreateRecord, nunca por aquí.
	if record.Status == entity.StampStatusStamped {
		log.Warn().Str("uuid", record.UUID).Msg("intento de retimbrado rechazado")
		return nil, domain.ErrAlreadyStamped
	}
	if record.IsTerminal() {
		log.Warn().Str("status", record.Status).Msg("registro terminal; el reintento requiere un registro nuevo")
		return nil, domain.ErrAlreadyFailed
	}

	// Las escrituras terminales sobreviven a la cancelación del contexto HTTP:
	// un registro atorado en pending no se puede resolver sin intervención manual.
	persistCtx := context.WithoutCancel(ctx)

	// markFailed transición terminal a error en una sola escritura.
	markFailed := func(step, reason string) {
		if err := o.records.MarkFailed(persistCtx, record.ID, reason); err != nil {
			log.Error().Err(err).Str("step", step).Msg("no se pudo persistir el estado error")
		}
		log.Warn().Str("step", step).Str("reason", reason).Msg("timbrado fallido")
	}

	// Validación antes de cualquier llamada de red.
	if record.Document == nil {
		markFailed("validate", "registro sin documento fiscal")
		return nil, fmt.Errorf("%w: registro sin documento fiscal", domain.ErrInvalidDocument)
	}
	if err := record.Document.Validate(); err != nil {
		markFailed("validate", err.Error())
		return nil, err
	}

	cfg, err := o.configs.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("cargar configuración PAC: %w", err)
	}
	if cfg == nil || !cfg.Complete() {
		markFailed("config", domain.ErrConfigurationMissing.Error())
		return nil, domain.ErrConfigurationMissing
	}

	stamper, ok := o.registry.Resolve(cfg.Provider)
	if !ok {
		// Error de configuración, no transitorio: no se reintenta solo.
		reason := fmt.Sprintf("%s: %q", domain.ErrUnsupportedProvider.Error(), cfg.Provider)
		markFailed("dispatch", reason)
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, cfg.Provider)
	}

	creds := pac.Credentials{Username: cfg.Username, Password: cfg.Password}
	result := stamper.Stamp(ctx, record.Document, creds, cfg.Sandbox)

	if !result.Stamped() && ctx.Err() != nil {
		// Si el proveedor alcanzó a responder con una causa propia, esa causa se
		// persiste; "cancelled" queda solo para fallos que son la cancelación misma.
		reason := "cancelled"
		if result.Err != "" && !strings.Contains(result.Err, "cancel") {
			reason = result.Err
		}
		markFailed("stamp", reason)
		return &Outcome{Success: false, Message: reason}, nil
	}

	if result.Stamped() {
		if err := o.records.MarkStamped(persistCtx, record.ID, result.UUID, result.StampedXML); err != nil {
			return nil, fmt.Errorf("persistir timbre: %w", err)
		}
		log.Info().Str("uuid", result.UUID).Str("provider", cfg.Provider).Msg("registro timbrado")
		return &Outcome{Success: true, UUID: result.UUID}, nil
	}

	// Rechazo del proveedor o fallo de transporte: la causa textual se persiste
	// sin reinterpretar, el detalle exacto importa para auditoría.
	markFailed("stamp", result.Err)
	return &Outcome{Success: false, Message: result.Err}, nil
}
