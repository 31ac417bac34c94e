// Package cfdi define el modelo en memoria del comprobante fiscal CFDI 4.0
// con complemento de Nómina 1.2. Datos puros, sin I/O: la única conducta es
// la validación de invariantes al construir el documento.
package cfdi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nominamx/timbrado-api/internal/domain"
	pkgcfdi "github.com/nominamx/timbrado-api/pkg/cfdi"
)

// Emisor datos del emisor del comprobante. Inmutable una vez creado el documento.
type Emisor struct {
	RFC           string `json:"rfc"`
	Nombre        string `json:"nombre"`
	RegimenFiscal string `json:"regimenFiscal"`
}

// Receptor datos del receptor del comprobante.
type Receptor struct {
	RFC             string `json:"rfc"`
	Nombre          string `json:"nombre"`
	UsoCFDI         string `json:"usoCfdi"`
	RegimenFiscal   string `json:"regimenFiscal"`
	DomicilioFiscal string `json:"domicilioFiscal"` // código postal
}

// Traslado impuesto trasladado de un concepto o del resumen del comprobante.
type Traslado struct {
	Base       decimal.Decimal `json:"base"`
	Impuesto   string          `json:"impuesto"`   // c_Impuesto: 001, 002, 003
	TipoFactor string          `json:"tipoFactor"` // Tasa, Cuota, Exento
	TasaOCuota decimal.Decimal `json:"tasaOCuota"`
	Importe    decimal.Decimal `json:"importe"`
}

// Retencion impuesto retenido de un concepto o del resumen del comprobante.
type Retencion struct {
	Base       decimal.Decimal `json:"base"`
	Impuesto   string          `json:"impuesto"`
	TipoFactor string          `json:"tipoFactor"`
	TasaOCuota decimal.Decimal `json:"tasaOCuota"`
	Importe    decimal.Decimal `json:"importe"`
}

// Concepto línea del comprobante.
type Concepto struct {
	ClaveProdServ    string          `json:"claveProdServ"`
	NoIdentificacion string          `json:"noIdentificacion,omitempty"`
	Cantidad         decimal.Decimal `json:"cantidad"`
	ClaveUnidad      string          `json:"claveUnidad"`
	Unidad           string          `json:"unidad,omitempty"`
	Descripcion      string          `json:"descripcion"`
	ValorUnitario    decimal.Decimal `json:"valorUnitario"`
	Importe          decimal.Decimal `json:"importe"`
	Descuento        decimal.Decimal `json:"descuento"`
	ObjetoImp        string          `json:"objetoImp"`
	Traslados        []Traslado      `json:"traslados,omitempty"`
	Retenciones      []Retencion     `json:"retenciones,omitempty"`
}

// Impuestos resumen de impuestos a nivel comprobante.
type Impuestos struct {
	TotalTrasladados decimal.Decimal `json:"totalTrasladados"`
	TotalRetenidos   decimal.Decimal `json:"totalRetenidos"`
	Traslados        []Traslado      `json:"traslados,omitempty"`
	Retenciones      []Retencion     `json:"retenciones,omitempty"`
}

// Document representación canónica del comprobante a timbrar.
// Montos con decimal.Decimal: la aritmética monetaria nunca usa float binario.
type Document struct {
	Serie             string          `json:"serie"`
	Folio             string          `json:"folio"`
	Fecha             time.Time       `json:"fecha"`
	FormaPago         string          `json:"formaPago"`
	MetodoPago        string          `json:"metodoPago"`
	TipoDeComprobante string          `json:"tipoDeComprobante"`
	Exportacion       string          `json:"exportacion"`
	Moneda            string          `json:"moneda"`
	TipoCambio        decimal.Decimal `json:"tipoCambio"`
	LugarExpedicion   string          `json:"lugarExpedicion"` // código postal de expedición
	CondicionesDePago string          `json:"condicionesDePago,omitempty"`
	SubTotal          decimal.Decimal `json:"subTotal"`
	Descuento         decimal.Decimal `json:"descuento"`
	Total             decimal.Decimal `json:"total"`

	Emisor    Emisor     `json:"emisor"`
	Receptor  Receptor   `json:"receptor"`
	Conceptos []Concepto `json:"conceptos"`
	Impuestos *Impuestos `json:"impuestos,omitempty"`
	Nomina    *Nomina    `json:"nomina,omitempty"`

	// Datos de sellado opcionales (pass-through: los genera el sistema emisor,
	// este servicio no firma).
	NoCertificado string `json:"noCertificado,omitempty"`
	Certificado   string `json:"certificado,omitempty"`
	Sello         string `json:"sello,omitempty"`
}

// NewDocument valida las invariantes del comprobante y devuelve el documento.
// Todo incumplimiento regresa domain.ErrInvalidDocument envuelto con el detalle.
func NewDocument(d Document) (*Document, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate verifica las invariantes de §cabecera, emisor, receptor, conceptos
// y complemento. Igualdad decimal exacta: sin tolerancias de punto flotante.
func (d *Document) Validate() error {
	if err := d.validateHeader(); err != nil {
		return err
	}
	if err := d.validateParties(); err != nil {
		return err
	}
	if err := d.validateConceptos(); err != nil {
		return err
	}
	if err := d.validateTotals(); err != nil {
		return err
	}
	if d.Nomina != nil {
		if d.TipoDeComprobante != pkgcfdi.TipoComprobanteNomina {
			return invalid("complemento de nómina en comprobante tipo %q (debe ser %q)",
				d.TipoDeComprobante, pkgcfdi.TipoComprobanteNomina)
		}
		if err := d.Nomina.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) validateHeader() error {
	if d.Fecha.IsZero() {
		return invalid("fecha de emisión requerida")
	}
	if !pkgcfdi.ValidTipoComprobante[d.TipoDeComprobante] {
		return invalid("tipo de comprobante desconocido: %q", d.TipoDeComprobante)
	}
	if d.Moneda == "" {
		return invalid("moneda requerida")
	}
	if d.LugarExpedicion == "" {
		return invalid("lugar de expedición requerido")
	}
	if d.SubTotal.IsNegative() || d.Descuento.IsNegative() || d.Total.IsNegative() {
		return invalid("los montos de cabecera no pueden ser negativos")
	}
	// Moneda nacional exige tipo de cambio 1; moneda extranjera, un tipo positivo.
	if d.Moneda == pkgcfdi.MonedaMXN {
		if !d.TipoCambio.Equal(decimal.NewFromInt(1)) {
			return invalid("tipo de cambio debe ser 1 para moneda %s", pkgcfdi.MonedaMXN)
		}
	} else if !d.TipoCambio.IsPositive() {
		return invalid("tipo de cambio debe ser positivo para moneda %s", d.Moneda)
	}
	return nil
}

func (d *Document) validateParties() error {
	if d.Emisor.RFC == "" || d.Emisor.Nombre == "" || d.Emisor.RegimenFiscal == "" {
		return invalid("emisor incompleto: RFC, nombre y régimen fiscal son obligatorios")
	}
	if d.Receptor.RFC == "" || d.Receptor.Nombre == "" {
		return invalid("receptor incompleto: RFC y nombre son obligatorios")
	}
	if d.Receptor.UsoCFDI == "" || d.Receptor.RegimenFiscal == "" || d.Receptor.DomicilioFiscal == "" {
		return invalid("receptor incompleto: uso CFDI, régimen y domicilio fiscal son obligatorios")
	}
	return nil
}

func (d *Document) validateConceptos() error {
	if len(d.Conceptos) == 0 {
		return invalid("el comprobante requiere al menos un concepto")
	}
	for i, c := range d.Conceptos {
		if c.ClaveProdServ == "" || c.ClaveUnidad == "" || c.Descripcion == "" {
			return invalid("concepto %d incompleto: clave de producto, unidad y descripción son obligatorios", i+1)
		}
		if !c.Cantidad.IsPositive() {
			return invalid("concepto %d: cantidad debe ser positiva", i+1)
		}
		if c.ValorUnitario.IsNegative() || c.Descuento.IsNegative() {
			return invalid("concepto %d: montos negativos", i+1)
		}
		// Importe == Cantidad * ValorUnitario - Descuento, con igualdad exacta.
		want := c.Cantidad.Mul(c.ValorUnitario).Sub(c.Descuento)
		if !c.Importe.Equal(want) {
			return invalid("concepto %d: importe %s no cuadra con cantidad*valorUnitario-descuento = %s",
				i+1, c.Importe, want)
		}
	}
	return nil
}

// validateTotals verifica Total == SubTotal - Descuento + trasladados - retenidos.
func (d *Document) validateTotals() error {
	taxes := decimal.Zero
	if d.Impuestos != nil {
		taxes = d.Impuestos.TotalTrasladados.Sub(d.Impuestos.TotalRetenidos)
	}
	want := d.SubTotal.Sub(d.Descuento).Add(taxes)
	if !d.Total.Equal(want) {
		return invalid("total %s no cuadra: subtotal %s - descuento %s + impuestos %s = %s",
			d.Total, d.SubTotal, d.Descuento, taxes, want)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidDocument, fmt.Sprintf(format, args...))
}
