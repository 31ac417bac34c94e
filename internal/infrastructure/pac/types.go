// Package pac contiene el contrato de timbrado y los adaptadores concretos
// hacia los proveedores autorizados de certificación (PAC). Cada adaptador
// traduce el documento fiscal al formato de su proveedor y normaliza la
// respuesta heterogénea a un StampResult único.
package pac

import (
	"context"

	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
)

// Credentials par de credenciales de la cuenta PAC de la empresa.
type Credentials struct {
	Username string
	Password string
}

// StampResult resultado normalizado de un intento de timbrado.
// Exactamente uno de los dos casos aplica: timbrado (UUID presente) o fallido
// (Err presente). Los errores de transporte también terminan aquí: el
// orquestador siempre necesita un resultado para persistir el estado terminal.
type StampResult struct {
	UUID       string // folio fiscal emitido por el PAC
	StampedXML string // comprobante timbrado devuelto por el PAC
	Err        string // causa del fallo, textual y sin reinterpretar
}

// Stamped indica si el intento fue exitoso.
func (r *StampResult) Stamped() bool {
	return r.UUID != ""
}

// Ok construye un resultado exitoso.
func Ok(uuid, stampedXML string) *StampResult {
	return &StampResult{UUID: uuid, StampedXML: stampedXML}
}

// Fail construye un resultado fallido con la causa textual.
func Fail(reason string) *StampResult {
	return &StampResult{Err: reason}
}

// Stamper contrato uniforme de timbrado. Agregar un proveedor es implementar
// esta interfaz y registrarla; el orquestador no cambia.
//
// La implementación nunca propaga excepciones de transporte: todo fallo
// (timeout, conexión, respuesta malformada, rechazo del proveedor) regresa
// como StampResult fallido.
type Stamper interface {
	Stamp(ctx context.Context, doc *cfdi.Document, creds Credentials, sandbox bool) *StampResult
}
