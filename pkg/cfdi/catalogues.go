// Package cfdi contiene catálogos SAT alineados al Anexo 20 (CFDI 4.0)
// y al complemento de Nómina 1.2. Solo se incluyen los subconjuntos que
// el servicio de timbrado usa o valida.
package cfdi

// =============================================================================
// c_TipoDeComprobante - Tipo de comprobante fiscal
// =============================================================================

const (
	TipoComprobanteIngreso  = "I" // Ingreso
	TipoComprobanteEgreso   = "E" // Egreso
	TipoComprobanteNomina   = "N" // Nómina (requiere complemento nomina12)
	TipoComprobantePago     = "P" // Pago
	TipoComprobanteTraslado = "T" // Traslado
)

// ValidTipoComprobante códigos válidos de tipo de comprobante.
var ValidTipoComprobante = map[string]bool{
	TipoComprobanteIngreso: true, TipoComprobanteEgreso: true,
	TipoComprobanteNomina: true, TipoComprobantePago: true,
	TipoComprobanteTraslado: true,
}

// =============================================================================
// c_FormaPago - Forma de pago (Anexo 20 - catálogo c_FormaPago)
// =============================================================================

const (
	FormaPagoEfectivo      = "01" // Efectivo
	FormaPagoChequeNom     = "02" // Cheque nominativo
	FormaPagoTransferencia = "03" // Transferencia electrónica de fondos
	FormaPagoPorDefinir    = "99" // Por definir
)

// =============================================================================
// c_MetodoPago - Método de pago
// =============================================================================

const (
	MetodoPagoPUE = "PUE" // Pago en una sola exhibición
	MetodoPagoPPD = "PPD" // Pago en parcialidades o diferido
)

// =============================================================================
// c_Moneda - Monedas de uso común
// =============================================================================

const (
	MonedaMXN = "MXN" // Peso mexicano
	MonedaUSD = "USD" // Dólar americano
	MonedaXXX = "XXX" // Sin moneda (comprobantes tipo T y P)
)

// =============================================================================
// c_Exportacion - CFDI 4.0, atributo obligatorio del Comprobante
// =============================================================================

const (
	ExportacionNoAplica   = "01" // No aplica
	ExportacionDefinitiva = "02" // Definitiva con clave A1
)

// =============================================================================
// c_ObjetoImp - Indica si el concepto es objeto de impuesto
// =============================================================================

const (
	ObjetoImpNo       = "01" // No objeto de impuesto
	ObjetoImpSi       = "02" // Sí objeto de impuesto
	ObjetoImpNoDesglo = "03" // Sí objeto del impuesto y no obligado al desglose
)

// =============================================================================
// c_Impuesto - Claves de impuesto federales
// =============================================================================

const (
	ImpuestoISR  = "001" // ISR
	ImpuestoIVA  = "002" // IVA
	ImpuestoIEPS = "003" // IEPS
)

// =============================================================================
// c_TipoFactor
// =============================================================================

const (
	TipoFactorTasa   = "Tasa"
	TipoFactorCuota  = "Cuota"
	TipoFactorExento = "Exento"
)

// =============================================================================
// Complemento Nómina 1.2 - c_TipoNomina
// =============================================================================

const (
	TipoNominaOrdinaria      = "O" // Nómina ordinaria
	TipoNominaExtraordinaria = "E" // Nómina extraordinaria
)

// =============================================================================
// Complemento Nómina 1.2 - c_PeriodicidadPago
// =============================================================================

const (
	PeriodicidadDiario     = "01"
	PeriodicidadSemanal    = "02"
	PeriodicidadCatorcenal = "03"
	PeriodicidadQuincenal  = "04"
	PeriodicidadMensual    = "05"
	PeriodicidadOtra       = "99"
)

// =============================================================================
// Complemento Nómina 1.2 - c_TipoContrato (subconjunto de uso común)
// =============================================================================

const (
	ContratoIndefinido        = "01" // Contrato de trabajo por tiempo indeterminado
	ContratoObraDeterminada   = "02" // Contrato de trabajo para obra determinada
	ContratoTiempoDeterminado = "03" // Contrato de trabajo por tiempo determinado
)

// =============================================================================
// Complemento Nómina 1.2 - c_TipoJornada (subconjunto)
// =============================================================================

const (
	JornadaDiurna   = "01"
	JornadaNocturna = "02"
	JornadaMixta    = "03"
)

// =============================================================================
// Complemento Nómina 1.2 - c_TipoRegimen (subconjunto)
// =============================================================================

const (
	RegimenSueldos    = "02" // Sueldos (incluye ingresos señalados en la fracción I del artículo 94 de LISR)
	RegimenJubilados  = "03" // Jubilados
	RegimenAsimilados = "09" // Asimilados otros
)

// =============================================================================
// Complemento Nómina 1.2 - c_RiesgoPuesto
// =============================================================================

const (
	RiesgoClaseI   = "1"
	RiesgoClaseII  = "2"
	RiesgoClaseIII = "3"
	RiesgoClaseIV  = "4"
	RiesgoClaseV   = "5"
	RiesgoNoAplica = "99"
)

// =============================================================================
// c_RegimenFiscal - Regímenes fiscales de uso común en emisores de nómina
// =============================================================================

const (
	RegimenFiscalGeneralLeyPM    = "601" // General de Ley Personas Morales
	RegimenFiscalSueldosSalarios = "605" // Sueldos y Salarios e Ingresos Asimilados a Salarios
	RegimenFiscalPFActividad     = "612" // Personas Físicas con Actividades Empresariales y Profesionales
	RegimenFiscalRESICO          = "626" // Régimen Simplificado de Confianza
)

// =============================================================================
// c_UsoCFDI - Usos de uso común (el receptor de nómina siempre usa CN01)
// =============================================================================

const (
	UsoCFDINomina     = "CN01" // Nómina
	UsoCFDIGastosGral = "G03"  // Gastos en general
	UsoCFDISinEfectos = "S01"  // Sin efectos fiscales
)
