package cfdi

import (
	"time"

	"github.com/shopspring/decimal"
)

// NominaVersion versión del complemento soportada por el serializador.
const NominaVersion = "1.2"

// NominaEmisor datos patronales del complemento.
type NominaEmisor struct {
	RegistroPatronal string `json:"registroPatronal"`
}

// NominaReceptor sub-registro del empleado dentro del complemento.
type NominaReceptor struct {
	CURP                   string          `json:"curp"`
	NumSeguridadSocial     string          `json:"numSeguridadSocial"`
	FechaInicioRelLab      time.Time       `json:"fechaInicioRelLaboral"`
	TipoContrato           string          `json:"tipoContrato"`
	TipoJornada            string          `json:"tipoJornada"`
	TipoRegimen            string          `json:"tipoRegimen"`
	NumEmpleado            string          `json:"numEmpleado"`
	RiesgoPuesto           string          `json:"riesgoPuesto"`
	PeriodicidadPago       string          `json:"periodicidadPago"`
	Banco                  string          `json:"banco,omitempty"`
	CuentaBancaria         string          `json:"cuentaBancaria,omitempty"`
	SalarioBaseCotApor     decimal.Decimal `json:"salarioBaseCotApor"`
	SalarioDiarioIntegrado decimal.Decimal `json:"salarioDiarioIntegrado"`
}

// Percepcion línea de percepción (ingreso del empleado).
type Percepcion struct {
	TipoPercepcion string          `json:"tipoPercepcion"`
	Clave          string          `json:"clave"`
	Concepto       string          `json:"concepto"`
	ImporteGravado decimal.Decimal `json:"importeGravado"`
	ImporteExento  decimal.Decimal `json:"importeExento"`
}

// Percepciones agrupa las líneas de percepción con totales opcionales.
// Los totales en cero se tratan como ausentes (no se emiten).
type Percepciones struct {
	TotalSueldos decimal.Decimal `json:"totalSueldos"`
	TotalGravado decimal.Decimal `json:"totalGravado"`
	TotalExento  decimal.Decimal `json:"totalExento"`
	Lineas       []Percepcion    `json:"lineas"`
}

// Deduccion línea de deducción (descuento al empleado).
type Deduccion struct {
	TipoDeduccion string          `json:"tipoDeduccion"`
	Clave         string          `json:"clave"`
	Concepto      string          `json:"concepto"`
	Importe       decimal.Decimal `json:"importe"`
}

// Deducciones agrupa las líneas de deducción con totales opcionales.
type Deducciones struct {
	TotalOtrasDeducciones   decimal.Decimal `json:"totalOtrasDeducciones"`
	TotalImpuestosRetenidos decimal.Decimal `json:"totalImpuestosRetenidos"`
	Lineas                  []Deduccion     `json:"lineas"`
}

// OtroPago línea de otros pagos (subsidio, viáticos, saldos a favor).
type OtroPago struct {
	TipoOtroPago    string          `json:"tipoOtroPago"`
	Clave           string          `json:"clave"`
	Concepto        string          `json:"concepto"`
	Importe         decimal.Decimal `json:"importe"`
	SubsidioCausado decimal.Decimal `json:"subsidioCausado"` // cero = sin nodo SubsidioAlEmpleo
}

// Nomina complemento de nómina 1.2. Presente solo en comprobantes tipo N.
type Nomina struct {
	Version           string          `json:"version"`
	TipoNomina        string          `json:"tipoNomina"`
	FechaPago         time.Time       `json:"fechaPago"`
	FechaInicialPago  time.Time       `json:"fechaInicialPago"`
	FechaFinalPago    time.Time       `json:"fechaFinalPago"`
	NumDiasPagados    decimal.Decimal `json:"numDiasPagados"`
	TotalPercepciones decimal.Decimal `json:"totalPercepciones"`
	TotalDeducciones  decimal.Decimal `json:"totalDeducciones"`
	TotalOtrosPagos   decimal.Decimal `json:"totalOtrosPagos"`

	Emisor       NominaEmisor   `json:"emisor"`
	Receptor     NominaReceptor `json:"receptor"`
	Percepciones *Percepciones  `json:"percepciones,omitempty"`
	Deducciones  *Deducciones   `json:"deducciones,omitempty"`
	OtrosPagos   []OtroPago     `json:"otrosPagos,omitempty"`
}

// validate invariantes propias del complemento. El serializador asume este
// resultado; la validación ocurre antes de cualquier envío.
func (n *Nomina) validate() error {
	if n.Version != NominaVersion {
		return invalid("versión de nómina %q no soportada (se espera %s)", n.Version, NominaVersion)
	}
	if n.TipoNomina == "" {
		return invalid("tipo de nómina requerido")
	}
	if n.FechaPago.IsZero() || n.FechaInicialPago.IsZero() || n.FechaFinalPago.IsZero() {
		return invalid("fechas de pago del complemento requeridas")
	}
	if n.FechaFinalPago.Before(n.FechaInicialPago) {
		return invalid("fecha final de pago anterior a la inicial")
	}
	if !n.NumDiasPagados.IsPositive() {
		return invalid("número de días pagados debe ser positivo")
	}
	r := n.Receptor
	if r.CURP == "" || r.TipoContrato == "" || r.TipoRegimen == "" || r.PeriodicidadPago == "" {
		return invalid("receptor de nómina incompleto: CURP, contrato, régimen y periodicidad son obligatorios")
	}
	if err := n.validatePercepciones(); err != nil {
		return err
	}
	if err := n.validateDeducciones(); err != nil {
		return err
	}
	if n.Percepciones == nil && len(n.OtrosPagos) == 0 {
		return invalid("el complemento requiere percepciones u otros pagos")
	}
	return nil
}

// validatePercepciones los totales, cuando vienen, deben cuadrar con las líneas.
func (n *Nomina) validatePercepciones() error {
	p := n.Percepciones
	if p == nil {
		return nil
	}
	if len(p.Lineas) == 0 {
		return invalid("nodo de percepciones sin líneas")
	}
	gravado, exento := decimal.Zero, decimal.Zero
	for _, l := range p.Lineas {
		if l.TipoPercepcion == "" || l.Clave == "" || l.Concepto == "" {
			return invalid("línea de percepción incompleta")
		}
		gravado = gravado.Add(l.ImporteGravado)
		exento = exento.Add(l.ImporteExento)
	}
	if !p.TotalGravado.IsZero() && !p.TotalGravado.Equal(gravado) {
		return invalid("total gravado de percepciones %s no cuadra con las líneas (%s)", p.TotalGravado, gravado)
	}
	if !p.TotalExento.IsZero() && !p.TotalExento.Equal(exento) {
		return invalid("total exento de percepciones %s no cuadra con las líneas (%s)", p.TotalExento, exento)
	}
	if !n.TotalPercepciones.IsZero() && !n.TotalPercepciones.Equal(gravado.Add(exento)) {
		return invalid("total de percepciones %s no cuadra con las líneas (%s)",
			n.TotalPercepciones, gravado.Add(exento))
	}
	return nil
}

func (n *Nomina) validateDeducciones() error {
	d := n.Deducciones
	if d == nil {
		return nil
	}
	if len(d.Lineas) == 0 {
		return invalid("nodo de deducciones sin líneas")
	}
	suma := decimal.Zero
	for _, l := range d.Lineas {
		if l.TipoDeduccion == "" || l.Clave == "" || l.Concepto == "" {
			return invalid("línea de deducción incompleta")
		}
		suma = suma.Add(l.Importe)
	}
	if !n.TotalDeducciones.IsZero() && !n.TotalDeducciones.Equal(suma) {
		return invalid("total de deducciones %s no cuadra con las líneas (%s)", n.TotalDeducciones, suma)
	}
	return nil
}
