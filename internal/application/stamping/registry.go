package stamping

import (
	"strings"

	"github.com/nominamx/timbrado-api/internal/infrastructure/pac"
)

// Registry resuelve el adaptador PAC por identificador de proveedor.
// Conjunto cerrado y chequeado en arranque: agregar un proveedor es registrar
// una implementación de pac.Stamper, no tocar el orquestador.
type Registry struct {
	stampers map[string]pac.Stamper
}

// NewRegistry crea un registro vacío.
func NewRegistry() *Registry {
	return &Registry{stampers: make(map[string]pac.Stamper)}
}

// Register asocia un identificador (insensible a mayúsculas) con su adaptador.
func (r *Registry) Register(provider string, s pac.Stamper) {
	r.stampers[normalize(provider)] = s
}

// Resolve busca el adaptador del proveedor configurado.
func (r *Registry) Resolve(provider string) (pac.Stamper, bool) {
	s, ok := r.stampers[normalize(provider)]
	return s, ok
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
