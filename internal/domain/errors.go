package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	// ErrRecordNotFound el registro de timbrado no existe.
	ErrRecordNotFound = errors.New("registro de timbrado no encontrado")
	// ErrAlreadyStamped el registro ya tiene un timbre vigente; no se reintenta.
	ErrAlreadyStamped = errors.New("el registro ya fue timbrado")
	// ErrAlreadyFailed el registro ya terminó en error; un reintento exige crear un registro nuevo.
	ErrAlreadyFailed = errors.New("el registro ya falló; reintente con un registro nuevo")
	// ErrConfigurationMissing la empresa no tiene configuración PAC o las credenciales están incompletas.
	ErrConfigurationMissing = errors.New("configuración PAC ausente o incompleta")
	// ErrUnsupportedProvider el identificador de proveedor PAC no corresponde a ningún adaptador registrado.
	ErrUnsupportedProvider = errors.New("proveedor PAC no soportado")
	// ErrInvalidDocument el documento fiscal viola alguna invariante de construcción.
	ErrInvalidDocument = errors.New("documento fiscal inválido")
	// ErrInvalidInput entrada inválida en la capa HTTP.
	ErrInvalidInput = errors.New("entrada inválida")
)
