package entity

import (
	"time"

	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
)

// Estados del ciclo de vida de un registro de timbrado.
// La máquina de estados es estricta: pending → stamped o pending → error,
// ambos terminales. Un reintento crea un registro nuevo, nunca muta uno terminal.
const (
	StampStatusPending = "pending" // creado, aún sin enviar al PAC
	StampStatusStamped = "stamped" // timbrado con éxito; UUID y XML timbrado presentes
	StampStatusError   = "error"   // falló; ErrorMessage contiene la causa
)

// StampRecord entidad persistida: un intento de timbrado de un documento fiscal.
type StampRecord struct {
	ID        string
	CompanyID string
	PayrollID string // referencia a la entidad de nómina origen

	Document *cfdi.Document // documento fiscal embebido (JSONB en BD)

	Status       string
	UUID         string // folio fiscal asignado por el PAC; solo si stamped
	StampedXML   string // XML timbrado devuelto por el PAC; solo si stamped
	ErrorMessage string // solo si error

	CreatedAt time.Time
	StampedAt *time.Time // timestamp de la transición terminal
}

// IsTerminal indica si el registro ya alcanzó un estado final.
func (r *StampRecord) IsTerminal() bool {
	return r.Status == StampStatusStamped || r.Status == StampStatusError
}
