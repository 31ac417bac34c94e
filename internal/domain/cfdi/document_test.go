package cfdi_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nominamx/timbrado-api/internal/domain"
	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
	pkgcfdi "github.com/nominamx/timbrado-api/pkg/cfdi"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// baseDocument comprobante de ingreso válido: subtotal 1000.00, sin descuento,
// un traslado de IVA por 160.00, total 1160.00.
func baseDocument() cfdi.Document {
	return cfdi.Document{
		Serie:             "A",
		Folio:             "101",
		Fecha:             time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		FormaPago:         pkgcfdi.FormaPagoTransferencia,
		MetodoPago:        pkgcfdi.MetodoPagoPUE,
		TipoDeComprobante: pkgcfdi.TipoComprobanteIngreso,
		Exportacion:       pkgcfdi.ExportacionNoAplica,
		Moneda:            pkgcfdi.MonedaMXN,
		TipoCambio:        decimal.NewFromInt(1),
		LugarExpedicion:   "06600",
		SubTotal:          dec("1000.00"),
		Descuento:         decimal.Zero,
		Total:             dec("1160.00"),
		Emisor: cfdi.Emisor{
			RFC:           "EKU9003173C9",
			Nombre:        "ESCUELA KEMPER URGATE",
			RegimenFiscal: pkgcfdi.RegimenFiscalGeneralLeyPM,
		},
		Receptor: cfdi.Receptor{
			RFC:             "XAXX010101000",
			Nombre:          "PUBLICO EN GENERAL",
			UsoCFDI:         pkgcfdi.UsoCFDIGastosGral,
			RegimenFiscal:   pkgcfdi.RegimenFiscalSueldosSalarios,
			DomicilioFiscal: "06600",
		},
		Conceptos: []cfdi.Concepto{{
			ClaveProdServ: "84111506",
			Cantidad:      decimal.NewFromInt(1),
			ClaveUnidad:   "ACT",
			Descripcion:   "Servicios administrativos",
			ValorUnitario: dec("1000.00"),
			Importe:       dec("1000.00"),
			ObjetoImp:     pkgcfdi.ObjetoImpSi,
			Traslados: []cfdi.Traslado{{
				Base:       dec("1000.00"),
				Impuesto:   pkgcfdi.ImpuestoIVA,
				TipoFactor: pkgcfdi.TipoFactorTasa,
				TasaOCuota: dec("0.160000"),
				Importe:    dec("160.00"),
			}},
		}},
		Impuestos: &cfdi.Impuestos{
			TotalTrasladados: dec("160.00"),
			Traslados: []cfdi.Traslado{{
				Base:       dec("1000.00"),
				Impuesto:   pkgcfdi.ImpuestoIVA,
				TipoFactor: pkgcfdi.TipoFactorTasa,
				TasaOCuota: dec("0.160000"),
				Importe:    dec("160.00"),
			}},
		},
	}
}

// nominaDocument comprobante de nómina válido con complemento completo.
func nominaDocument() cfdi.Document {
	d := baseDocument()
	d.TipoDeComprobante = pkgcfdi.TipoComprobanteNomina
	d.FormaPago = pkgcfdi.FormaPagoPorDefinir
	d.MetodoPago = pkgcfdi.MetodoPagoPUE
	d.SubTotal = dec("8500.00")
	d.Descuento = dec("1300.00")
	d.Total = dec("7200.00")
	d.Impuestos = nil
	d.Receptor.UsoCFDI = pkgcfdi.UsoCFDINomina
	d.Conceptos = []cfdi.Concepto{{
		ClaveProdServ: "84111505",
		Cantidad:      decimal.NewFromInt(1),
		ClaveUnidad:   "ACT",
		Descripcion:   "Pago de nómina",
		ValorUnitario: dec("8500.00"),
		Importe:       dec("8500.00"),
		ObjetoImp:     pkgcfdi.ObjetoImpNo,
	}}
	d.Nomina = &cfdi.Nomina{
		Version:           cfdi.NominaVersion,
		TipoNomina:        pkgcfdi.TipoNominaOrdinaria,
		FechaPago:         time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		FechaInicialPago:  time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC),
		FechaFinalPago:    time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		NumDiasPagados:    decimal.NewFromInt(15),
		TotalPercepciones: dec("8500.00"),
		TotalDeducciones:  dec("1300.00"),
		Emisor:            cfdi.NominaEmisor{RegistroPatronal: "B5510768108"},
		Receptor: cfdi.NominaReceptor{
			CURP:                   "XEXX010101HNEXXXA4",
			NumSeguridadSocial:     "12345678901",
			FechaInicioRelLab:      time.Date(2022, 1, 17, 0, 0, 0, 0, time.UTC),
			TipoContrato:           pkgcfdi.ContratoIndefinido,
			TipoJornada:            pkgcfdi.JornadaDiurna,
			TipoRegimen:            pkgcfdi.RegimenSueldos,
			NumEmpleado:            "EMP-042",
			RiesgoPuesto:           pkgcfdi.RiesgoClaseI,
			PeriodicidadPago:       pkgcfdi.PeriodicidadQuincenal,
			SalarioBaseCotApor:     dec("566.67"),
			SalarioDiarioIntegrado: dec("591.23"),
		},
		Percepciones: &cfdi.Percepciones{
			TotalGravado: dec("8000.00"),
			TotalExento:  dec("500.00"),
			Lineas: []cfdi.Percepcion{
				{TipoPercepcion: "001", Clave: "P001", Concepto: "Sueldo quincenal", ImporteGravado: dec("8000.00"), ImporteExento: decimal.Zero},
				{TipoPercepcion: "029", Clave: "P029", Concepto: "Vales de despensa", ImporteGravado: decimal.Zero, ImporteExento: dec("500.00")},
			},
		},
		Deducciones: &cfdi.Deducciones{
			TotalImpuestosRetenidos: dec("950.00"),
			TotalOtrasDeducciones:   dec("350.00"),
			Lineas: []cfdi.Deduccion{
				{TipoDeduccion: "002", Clave: "D002", Concepto: "ISR", Importe: dec("950.00")},
				{TipoDeduccion: "001", Clave: "D001", Concepto: "IMSS", Importe: dec("350.00")},
			},
		},
	}
	return d
}

// ──────────────────────────────────────────────────────────────────────────────
// Invariantes de cabecera y totales
// ──────────────────────────────────────────────────────────────────────────────

func TestNewDocument_TotalesCorrectos(t *testing.T) {
	doc, err := cfdi.NewDocument(baseDocument())
	require.NoError(t, err)
	assert.Equal(t, "1160.00", doc.Total.StringFixed(2))
}

func TestNewDocument_TotalNoCuadra(t *testing.T) {
	d := baseDocument()
	d.Total = dec("1150.00") // subtotal 1000 + IVA 160 = 1160, no 1150

	_, err := cfdi.NewDocument(d)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_ImporteConceptoNoCuadra(t *testing.T) {
	d := baseDocument()
	d.Conceptos[0].Importe = dec("999.00") // 1 * 1000.00 - 0 = 1000.00

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_DescuentoAplicado(t *testing.T) {
	d := baseDocument()
	d.Descuento = dec("100.00")
	d.Total = dec("1060.00") // 1000 - 100 + 160
	d.Conceptos[0].Descuento = dec("100.00")
	d.Conceptos[0].Importe = dec("900.00")

	_, err := cfdi.NewDocument(d)
	assert.NoError(t, err)
}

func TestNewDocument_TipoCambioMXN(t *testing.T) {
	d := baseDocument()
	d.TipoCambio = dec("17.25") // MXN exige tipo de cambio 1

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_MonedaExtranjeraSinTipoCambio(t *testing.T) {
	d := baseDocument()
	d.Moneda = pkgcfdi.MonedaUSD
	d.TipoCambio = decimal.Zero

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_EmisorIncompleto(t *testing.T) {
	d := baseDocument()
	d.Emisor.RegimenFiscal = ""

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_SinConceptos(t *testing.T) {
	d := baseDocument()
	d.Conceptos = nil

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

// ──────────────────────────────────────────────────────────────────────────────
// Complemento de nómina
// ──────────────────────────────────────────────────────────────────────────────

func TestNewDocument_NominaValida(t *testing.T) {
	doc, err := cfdi.NewDocument(nominaDocument())
	require.NoError(t, err)
	require.NotNil(t, doc.Nomina)
	assert.Equal(t, "1.2", doc.Nomina.Version)
}

func TestNewDocument_NominaEnComprobanteNoNomina(t *testing.T) {
	d := nominaDocument()
	d.TipoDeComprobante = pkgcfdi.TipoComprobanteIngreso

	_, err := cfdi.NewDocument(d)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_TotalPercepcionesNoCuadra(t *testing.T) {
	d := nominaDocument()
	d.Nomina.TotalPercepciones = dec("9000.00") // líneas suman 8500.00

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_TotalDeduccionesNoCuadra(t *testing.T) {
	d := nominaDocument()
	d.Nomina.TotalDeducciones = dec("1000.00") // líneas suman 1300.00

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_NominaSinPercepcionesNiOtrosPagos(t *testing.T) {
	d := nominaDocument()
	d.Nomina.Percepciones = nil
	d.Nomina.TotalPercepciones = decimal.Zero

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestNewDocument_FechasDePagoInvertidas(t *testing.T) {
	d := nominaDocument()
	d.Nomina.FechaFinalPago = d.Nomina.FechaInicialPago.AddDate(0, 0, -1)

	_, err := cfdi.NewDocument(d)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}
