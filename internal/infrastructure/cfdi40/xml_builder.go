// Package cfdi40 serializa el modelo cfdi.Document al XML exacto del esquema
// CFDI 4.0 (Anexo 20) con complemento nomina12. Función pura y determinista:
// el mismo documento produce siempre los mismos bytes, requisito para poder
// comparar contra la copia timbrada que regresa el PAC.
package cfdi40

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
	pkgcfdi "github.com/nominamx/timbrado-api/pkg/cfdi"
)

// Namespaces oficiales SAT (Anexo 20 v4.0 y complemento de nómina 1.2).
const (
	NsCfdi     = "http://www.sat.gob.mx/cfd/4"
	NsNomina12 = "http://www.sat.gob.mx/nomina12"
	nsXsi      = "http://www.w3.org/2001/XMLSchema-instance"

	schemaLocationCfdi   = "http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
	schemaLocationNomina = "http://www.sat.gob.mx/nomina12 http://www.sat.gob.mx/sitio_internet/cfd/nomina/nomina12.xsd"

	// Formato de fecha del Anexo 20 (hora local del lugar de expedición, sin zona).
	fechaLayout = "2006-01-02T15:04:05"
	diaLayout   = "2006-01-02"
)

// Builder construye el XML del comprobante. Sin estado: seguro para uso concurrente.
type Builder struct{}

// NewBuilder crea el serializador.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build genera los bytes del comprobante. El orden de atributos sigue el del
// esquema, nunca orden alfabético ni de mapa: etree preserva el orden de
// inserción y escapa texto y atributos por sí mismo.
//
// Asume un documento válido (cfdi.Document.Validate); no re-valida.
func (b *Builder) Build(d *cfdi.Document) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cfdi40: documento nil")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("cfdi:Comprobante")
	root.CreateAttr("xmlns:cfdi", NsCfdi)
	schemaLocation := schemaLocationCfdi
	if d.Nomina != nil {
		root.CreateAttr("xmlns:nomina12", NsNomina12)
		schemaLocation += " " + schemaLocationNomina
	}
	root.CreateAttr("xmlns:xsi", nsXsi)
	root.CreateAttr("xsi:schemaLocation", schemaLocation)

	root.CreateAttr("Version", "4.0")
	attrIf(root, "Serie", d.Serie)
	attrIf(root, "Folio", d.Folio)
	root.CreateAttr("Fecha", d.Fecha.Format(fechaLayout))
	attrIf(root, "Sello", d.Sello)
	attrIf(root, "FormaPago", d.FormaPago)
	attrIf(root, "NoCertificado", d.NoCertificado)
	attrIf(root, "Certificado", d.Certificado)
	attrIf(root, "CondicionesDePago", d.CondicionesDePago)
	root.CreateAttr("SubTotal", amount(d.SubTotal))
	attrIfAmount(root, "Descuento", d.Descuento)
	root.CreateAttr("Moneda", d.Moneda)
	// TipoCambio solo para moneda extranjera; en MXN el esquema lo da por implícito.
	if d.Moneda != pkgcfdi.MonedaMXN && d.Moneda != pkgcfdi.MonedaXXX {
		root.CreateAttr("TipoCambio", rate(d.TipoCambio))
	}
	root.CreateAttr("Total", amount(d.Total))
	root.CreateAttr("TipoDeComprobante", d.TipoDeComprobante)
	exportacion := d.Exportacion
	if exportacion == "" {
		exportacion = pkgcfdi.ExportacionNoAplica
	}
	root.CreateAttr("Exportacion", exportacion)
	attrIf(root, "MetodoPago", d.MetodoPago)
	root.CreateAttr("LugarExpedicion", d.LugarExpedicion)

	buildEmisor(root, d.Emisor)
	buildReceptor(root, d.Receptor)
	buildConceptos(root, d.Conceptos)
	buildImpuestos(root, d.Impuestos)
	if d.Nomina != nil {
		comp := root.CreateElement("cfdi:Complemento")
		buildNomina(comp, d.Nomina)
	}

	return doc.WriteToBytes()
}

func buildEmisor(parent *etree.Element, e cfdi.Emisor) {
	el := parent.CreateElement("cfdi:Emisor")
	el.CreateAttr("Rfc", e.RFC)
	el.CreateAttr("Nombre", e.Nombre)
	el.CreateAttr("RegimenFiscal", e.RegimenFiscal)
}

func buildReceptor(parent *etree.Element, r cfdi.Receptor) {
	el := parent.CreateElement("cfdi:Receptor")
	el.CreateAttr("Rfc", r.RFC)
	el.CreateAttr("Nombre", r.Nombre)
	el.CreateAttr("DomicilioFiscalReceptor", r.DomicilioFiscal)
	el.CreateAttr("RegimenFiscalReceptor", r.RegimenFiscal)
	el.CreateAttr("UsoCFDI", r.UsoCFDI)
}

func buildConceptos(parent *etree.Element, conceptos []cfdi.Concepto) {
	wrapper := parent.CreateElement("cfdi:Conceptos")
	for _, c := range conceptos {
		el := wrapper.CreateElement("cfdi:Concepto")
		el.CreateAttr("ClaveProdServ", c.ClaveProdServ)
		attrIf(el, "NoIdentificacion", c.NoIdentificacion)
		el.CreateAttr("Cantidad", quantity(c.Cantidad))
		el.CreateAttr("ClaveUnidad", c.ClaveUnidad)
		attrIf(el, "Unidad", c.Unidad)
		el.CreateAttr("Descripcion", c.Descripcion)
		el.CreateAttr("ValorUnitario", amount(c.ValorUnitario))
		el.CreateAttr("Importe", amount(c.Importe))
		attrIfAmount(el, "Descuento", c.Descuento)
		objeto := c.ObjetoImp
		if objeto == "" {
			objeto = pkgcfdi.ObjetoImpNo
		}
		el.CreateAttr("ObjetoImp", objeto)

		// cfdi:Impuestos del concepto solo cuando hay desglose; una colección
		// vacía no debe producir el elemento envolvente (minOccurs del esquema).
		if len(c.Traslados) > 0 || len(c.Retenciones) > 0 {
			imp := el.CreateElement("cfdi:Impuestos")
			if len(c.Traslados) > 0 {
				tras := imp.CreateElement("cfdi:Traslados")
				for _, t := range c.Traslados {
					buildTraslado(tras, t, true)
				}
			}
			if len(c.Retenciones) > 0 {
				ret := imp.CreateElement("cfdi:Retenciones")
				for _, r := range c.Retenciones {
					buildRetencion(ret, r, true)
				}
			}
		}
	}
}

// buildImpuestos resumen a nivel comprobante. El orden de atributos del nodo
// cfdi:Impuestos es Retenidos antes de Trasladados según el esquema.
func buildImpuestos(parent *etree.Element, imp *cfdi.Impuestos) {
	if imp == nil {
		return
	}
	el := parent.CreateElement("cfdi:Impuestos")
	if !imp.TotalRetenidos.IsZero() {
		el.CreateAttr("TotalImpuestosRetenidos", amount(imp.TotalRetenidos))
	}
	if !imp.TotalTrasladados.IsZero() || len(imp.Traslados) > 0 {
		el.CreateAttr("TotalImpuestosTrasladados", amount(imp.TotalTrasladados))
	}
	if len(imp.Retenciones) > 0 {
		ret := el.CreateElement("cfdi:Retenciones")
		for _, r := range imp.Retenciones {
			buildRetencion(ret, r, false)
		}
	}
	if len(imp.Traslados) > 0 {
		tras := el.CreateElement("cfdi:Traslados")
		for _, t := range imp.Traslados {
			buildTraslado(tras, t, true)
		}
	}
}

// buildTraslado withBase controla Base (obligatoria en concepto y en el resumen 4.0).
// Con TipoFactor Exento el esquema prohíbe TasaOCuota e Importe.
func buildTraslado(parent *etree.Element, t cfdi.Traslado, withBase bool) {
	el := parent.CreateElement("cfdi:Traslado")
	if withBase {
		el.CreateAttr("Base", amount(t.Base))
	}
	el.CreateAttr("Impuesto", t.Impuesto)
	el.CreateAttr("TipoFactor", t.TipoFactor)
	if t.TipoFactor != pkgcfdi.TipoFactorExento {
		el.CreateAttr("TasaOCuota", rate(t.TasaOCuota))
		el.CreateAttr("Importe", amount(t.Importe))
	}
}

func buildRetencion(parent *etree.Element, r cfdi.Retencion, concepto bool) {
	el := parent.CreateElement("cfdi:Retencion")
	if concepto {
		el.CreateAttr("Base", amount(r.Base))
		el.CreateAttr("Impuesto", r.Impuesto)
		el.CreateAttr("TipoFactor", r.TipoFactor)
		el.CreateAttr("TasaOCuota", rate(r.TasaOCuota))
		el.CreateAttr("Importe", amount(r.Importe))
		return
	}
	// En el resumen del comprobante la retención solo lleva Impuesto e Importe.
	el.CreateAttr("Impuesto", r.Impuesto)
	el.CreateAttr("Importe", amount(r.Importe))
}

// ── Complemento nomina12 ──────────────────────────────────────────────────────

func buildNomina(parent *etree.Element, n *cfdi.Nomina) {
	el := parent.CreateElement("nomina12:Nomina")
	el.CreateAttr("Version", n.Version)
	el.CreateAttr("TipoNomina", n.TipoNomina)
	el.CreateAttr("FechaPago", n.FechaPago.Format(diaLayout))
	el.CreateAttr("FechaInicialPago", n.FechaInicialPago.Format(diaLayout))
	el.CreateAttr("FechaFinalPago", n.FechaFinalPago.Format(diaLayout))
	el.CreateAttr("NumDiasPagados", days(n.NumDiasPagados))
	attrIfAmount(el, "TotalPercepciones", n.TotalPercepciones)
	attrIfAmount(el, "TotalDeducciones", n.TotalDeducciones)
	attrIfAmount(el, "TotalOtrosPagos", n.TotalOtrosPagos)

	if n.Emisor.RegistroPatronal != "" {
		em := el.CreateElement("nomina12:Emisor")
		em.CreateAttr("RegistroPatronal", n.Emisor.RegistroPatronal)
	}
	buildNominaReceptor(el, n.Receptor)
	buildPercepciones(el, n.Percepciones)
	buildDeducciones(el, n.Deducciones)
	buildOtrosPagos(el, n.OtrosPagos)
}

func buildNominaReceptor(parent *etree.Element, r cfdi.NominaReceptor) {
	el := parent.CreateElement("nomina12:Receptor")
	el.CreateAttr("Curp", r.CURP)
	attrIf(el, "NumSeguridadSocial", r.NumSeguridadSocial)
	if !r.FechaInicioRelLab.IsZero() {
		el.CreateAttr("FechaInicioRelLaboral", r.FechaInicioRelLab.Format(diaLayout))
	}
	el.CreateAttr("TipoContrato", r.TipoContrato)
	attrIf(el, "TipoJornada", r.TipoJornada)
	el.CreateAttr("TipoRegimen", r.TipoRegimen)
	el.CreateAttr("NumEmpleado", r.NumEmpleado)
	attrIf(el, "RiesgoPuesto", r.RiesgoPuesto)
	el.CreateAttr("PeriodicidadPago", r.PeriodicidadPago)
	attrIf(el, "Banco", r.Banco)
	attrIf(el, "CuentaBancaria", r.CuentaBancaria)
	attrIfAmount(el, "SalarioBaseCotApor", r.SalarioBaseCotApor)
	attrIfAmount(el, "SalarioDiarioIntegrado", r.SalarioDiarioIntegrado)
}

func buildPercepciones(parent *etree.Element, p *cfdi.Percepciones) {
	if p == nil || len(p.Lineas) == 0 {
		return
	}
	el := parent.CreateElement("nomina12:Percepciones")
	attrIfAmount(el, "TotalSueldos", p.TotalSueldos)
	attrIfAmount(el, "TotalGravado", p.TotalGravado)
	attrIfAmount(el, "TotalExento", p.TotalExento)
	for _, l := range p.Lineas {
		per := el.CreateElement("nomina12:Percepcion")
		per.CreateAttr("TipoPercepcion", l.TipoPercepcion)
		per.CreateAttr("Clave", l.Clave)
		per.CreateAttr("Concepto", l.Concepto)
		per.CreateAttr("ImporteGravado", amount(l.ImporteGravado))
		per.CreateAttr("ImporteExento", amount(l.ImporteExento))
	}
}

func buildDeducciones(parent *etree.Element, d *cfdi.Deducciones) {
	if d == nil || len(d.Lineas) == 0 {
		return
	}
	el := parent.CreateElement("nomina12:Deducciones")
	attrIfAmount(el, "TotalOtrasDeducciones", d.TotalOtrasDeducciones)
	attrIfAmount(el, "TotalImpuestosRetenidos", d.TotalImpuestosRetenidos)
	for _, l := range d.Lineas {
		ded := el.CreateElement("nomina12:Deduccion")
		ded.CreateAttr("TipoDeduccion", l.TipoDeduccion)
		ded.CreateAttr("Clave", l.Clave)
		ded.CreateAttr("Concepto", l.Concepto)
		ded.CreateAttr("Importe", amount(l.Importe))
	}
}

func buildOtrosPagos(parent *etree.Element, pagos []cfdi.OtroPago) {
	if len(pagos) == 0 {
		return
	}
	el := parent.CreateElement("nomina12:OtrosPagos")
	for _, p := range pagos {
		op := el.CreateElement("nomina12:OtroPago")
		op.CreateAttr("TipoOtroPago", p.TipoOtroPago)
		op.CreateAttr("Clave", p.Clave)
		op.CreateAttr("Concepto", p.Concepto)
		op.CreateAttr("Importe", amount(p.Importe))
		if !p.SubsidioCausado.IsZero() {
			sub := op.CreateElement("nomina12:SubsidioAlEmpleo")
			sub.CreateAttr("SubsidioCausado", amount(p.SubsidioCausado))
		}
	}
}

// ── formato numérico ──────────────────────────────────────────────────────────
// El Anexo 20 fija la precisión por campo: montos a 2 decimales, tasas a 6,
// cantidades a 6 y días pagados a 3. Nunca notación científica.

func amount(d decimal.Decimal) string   { return d.StringFixed(2) }
func rate(d decimal.Decimal) string     { return d.StringFixed(6) }
func quantity(d decimal.Decimal) string { return d.StringFixed(6) }
func days(d decimal.Decimal) string     { return d.StringFixed(3) }

// attrIf emite el atributo solo cuando el valor viene; un campo ausente jamás
// produce un atributo vacío.
func attrIf(el *etree.Element, name, value string) {
	if value != "" {
		el.CreateAttr(name, value)
	}
}

func attrIfAmount(el *etree.Element, name string, d decimal.Decimal) {
	if !d.IsZero() {
		el.CreateAttr(name, amount(d))
	}
}
