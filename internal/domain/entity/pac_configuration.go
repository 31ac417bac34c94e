package entity

// PACConfiguration configuración PAC por empresa. Este servicio la consume
// como entrada de solo lectura; la administra el almacenamiento de configuración.
type PACConfiguration struct {
	CompanyID string
	Provider  string // identificador del proveedor (ej. "solucionfactible", "facturama")
	Username  string
	Password  string
	Sandbox   bool // true = ambiente de pruebas del PAC
}

// Complete indica si el par de credenciales está completo.
func (c *PACConfiguration) Complete() bool {
	return c.Provider != "" && c.Username != "" && c.Password != ""
}
