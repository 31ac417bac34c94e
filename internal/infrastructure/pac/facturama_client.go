package pac

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
	pkgcfdi "github.com/nominamx/timbrado-api/pkg/cfdi"
)

// ProviderFacturama identificador del adaptador REST.
const ProviderFacturama = "facturama"

const (
	fmURLSandbox    = "https://apisandbox.facturama.mx"
	fmURLProduction = "https://api.facturama.mx"
	fmAPIVersion    = "v1"
)

// FacturamaClient adaptador REST/JSON. No reutiliza el serializador XML: el
// proveedor modela impuestos, conceptos e identidad lo bastante distinto como
// para que compartir el mapeo creara acoplamiento oculto; el mapeo JSON es
// deliberadamente independiente.
type FacturamaClient struct {
	rest *resty.Client

	urlSandbox    string
	urlProduction string
}

var _ Stamper = (*FacturamaClient)(nil)

// NewFacturamaClient construye el adaptador con resty y timeout de 30 s.
// transport permite inyectar un RoundTripper falso en pruebas; nil usa el real.
func NewFacturamaClient(transport http.RoundTripper) *FacturamaClient {
	r := resty.New().SetTimeout(30 * time.Second)
	if transport != nil {
		r.SetTransport(transport)
	}
	return &FacturamaClient{
		rest:          r,
		urlSandbox:    fmURLSandbox,
		urlProduction: fmURLProduction,
	}
}

// ── Formas de alambre del proveedor ───────────────────────────────────────────

type fmTax struct {
	Name        string  `json:"Name"`
	Base        float64 `json:"Base"`
	Rate        float64 `json:"Rate"`
	Total       float64 `json:"Total"`
	IsRetention bool    `json:"IsRetention"`
}

type fmItem struct {
	ProductCode          string  `json:"ProductCode"`
	IdentificationNumber string  `json:"IdentificationNumber,omitempty"`
	Description          string  `json:"Description"`
	UnitCode             string  `json:"UnitCode"`
	Quantity             float64 `json:"Quantity"`
	UnitPrice            float64 `json:"UnitPrice"`
	Subtotal             float64 `json:"Subtotal"`
	Discount             float64 `json:"Discount,omitempty"`
	TaxObject            string  `json:"TaxObject"`
	Taxes                []fmTax `json:"Taxes,omitempty"`
	Total                float64 `json:"Total"`
}

type fmIssuer struct {
	Rfc          string `json:"Rfc"`
	Name         string `json:"Name"`
	FiscalRegime string `json:"FiscalRegime"`
}

type fmReceiver struct {
	Rfc          string `json:"Rfc"`
	Name         string `json:"Name"`
	CfdiUse      string `json:"CfdiUse"`
	FiscalRegime string `json:"FiscalRegime"`
	TaxZipCode   string `json:"TaxZipCode"`
}

type fmPayrollEmployee struct {
	Curp                    string  `json:"Curp"`
	SocialSecurityNumber    string  `json:"SocialSecurityNumber,omitempty"`
	StartDateLaborRelations string  `json:"StartDateLaborRelations,omitempty"`
	ContractType            string  `json:"ContractType"`
	TypeOfJourney           string  `json:"TypeOfJourney,omitempty"`
	RegimeType              string  `json:"RegimeType"`
	EmployeeNumber          string  `json:"EmployeeNumber"`
	PositionRisk            string  `json:"PositionRisk,omitempty"`
	FrequencyPayment        string  `json:"FrequencyPayment"`
	Bank                    string  `json:"Bank,omitempty"`
	BankAccount             string  `json:"BankAccount,omitempty"`
	BaseSalary              float64 `json:"BaseSalary,omitempty"`
	DailySalary             float64 `json:"DailySalary,omitempty"`
}

type fmPerceptionLine struct {
	PerceptionType string  `json:"PerceptionType"`
	Code           string  `json:"Code"`
	Description    string  `json:"Description"`
	TaxedAmount    float64 `json:"TaxedAmount"`
	ExemptedAmount float64 `json:"ExemptedAmount"`
}

type fmDeductionLine struct {
	DeduccionType string  `json:"DeduccionType"`
	Code          string  `json:"Code"`
	Description   string  `json:"Description"`
	Amount        float64 `json:"Amount"`
}

type fmOtherPayment struct {
	OtherPaymentType  string               `json:"OtherPaymentType"`
	Code              string               `json:"Code"`
	Description       string               `json:"Description"`
	Amount            float64              `json:"Amount"`
	EmploymentSubsidy *fmEmploymentSubsidy `json:"EmploymentSubsidy,omitempty"`
}

type fmEmploymentSubsidy struct {
	Amount float64 `json:"Amount"`
}

type fmPayroll struct {
	Type                 string             `json:"Type"`
	PaymentDate          string             `json:"PaymentDate"`
	InitialPaymentDate   string             `json:"InitialPaymentDate"`
	FinalPaymentDate     string             `json:"FinalPaymentDate"`
	DaysPaid             float64            `json:"DaysPaid"`
	EmployerRegistration string             `json:"EmployerRegistration,omitempty"`
	Employee             *fmPayrollEmployee `json:"Employee,omitempty"`
	Perceptions          []fmPerceptionLine `json:"Perceptions,omitempty"`
	Deductions           []fmDeductionLine  `json:"Deductions,omitempty"`
	OtherPayments        []fmOtherPayment   `json:"OtherPayments,omitempty"`
}

type fmDocumentRequest struct {
	Serie           string        `json:"Serie,omitempty"`
	Folio           string        `json:"Folio,omitempty"`
	CfdiType        string        `json:"CfdiType"`
	NameId          string        `json:"NameId,omitempty"`
	ExpeditionPlace string        `json:"ExpeditionPlace"`
	PaymentForm     string        `json:"PaymentForm,omitempty"`
	PaymentMethod   string        `json:"PaymentMethod,omitempty"`
	Currency        string        `json:"Currency"`
	ExchangeRate    float64       `json:"ExchangeRate,omitempty"`
	Date            string        `json:"Date"`
	Issuer          fmIssuer      `json:"Issuer"`
	Receiver        fmReceiver    `json:"Receiver"`
	Items           []fmItem      `json:"Items"`
	Complement      *fmComplement `json:"Complement,omitempty"`
}

type fmComplement struct {
	Payroll *fmPayroll `json:"Payroll,omitempty"`
}

// fmDocumentResponse respuesta 2xx: UUID anidado en el timbre y la cadena del
// documento original.
type fmDocumentResponse struct {
	ID         string `json:"Id"`
	Complement struct {
		TaxStamp struct {
			UUID string `json:"Uuid"`
		} `json:"TaxStamp"`
	} `json:"Complement"`
	OriginalString string `json:"OriginalString"`
}

// fmErrorResponse respuesta no-2xx del proveedor.
type fmErrorResponse struct {
	Message    string              `json:"Message"`
	ModelState map[string][]string `json:"ModelState"`
}

// ── Stamp ─────────────────────────────────────────────────────────────────────

// Stamp publica el documento en POST /{version}/documents con Basic auth.
// 2xx trae el UUID del timbre; cualquier otro status trae un campo Message,
// con el status HTTP como última causa cuando el campo no viene.
func (c *FacturamaClient) Stamp(ctx context.Context, doc *cfdi.Document, creds Credentials, sandbox bool) *StampResult {
	var ok fmDocumentResponse

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBasicAuth(creds.Username, creds.Password).
		SetHeader("Content-Type", "application/json").
		SetBody(mapDocument(doc)).
		SetResult(&ok).
		Post(c.baseURL(sandbox) + "/" + fmAPIVersion + "/documents")
	if err != nil {
		if ctx.Err() != nil {
			return Fail("timeout o cancelación: " + ctx.Err().Error())
		}
		return Fail("llamada HTTP fallida: " + err.Error())
	}

	if resp.IsError() {
		var apiErr fmErrorResponse
		if jsonErr := json.Unmarshal(resp.Body(), &apiErr); jsonErr == nil && apiErr.Message != "" {
			return Fail(apiErr.Message)
		}
		return Fail(fmt.Sprintf("HTTP %d del proveedor", resp.StatusCode()))
	}

	if ok.Complement.TaxStamp.UUID == "" {
		return Fail("respuesta 2xx sin UUID de timbre")
	}
	return Ok(ok.Complement.TaxStamp.UUID, ok.OriginalString)
}

// baseURL la selección sandbox/producción vive solo aquí.
func (c *FacturamaClient) baseURL(sandbox bool) string {
	if sandbox {
		return c.urlSandbox
	}
	return c.urlProduction
}

// ── mapeo Document → JSON del proveedor ───────────────────────────────────────

// mapDocument remapea el documento al esquema propio del proveedor. Los montos
// vienen en la precisión del Anexo 20 (2 a 6 decimales); ver num sobre el paso
// a número JSON.
func mapDocument(d *cfdi.Document) fmDocumentRequest {
	req := fmDocumentRequest{
		Serie:           d.Serie,
		Folio:           d.Folio,
		CfdiType:        d.TipoDeComprobante,
		ExpeditionPlace: d.LugarExpedicion,
		PaymentForm:     d.FormaPago,
		PaymentMethod:   d.MetodoPago,
		Currency:        d.Moneda,
		Date:            d.Fecha.Format("2006-01-02T15:04:05"),
		Issuer: fmIssuer{
			Rfc:          d.Emisor.RFC,
			Name:         d.Emisor.Nombre,
			FiscalRegime: d.Emisor.RegimenFiscal,
		},
		Receiver: fmReceiver{
			Rfc:          d.Receptor.RFC,
			Name:         d.Receptor.Nombre,
			CfdiUse:      d.Receptor.UsoCFDI,
			FiscalRegime: d.Receptor.RegimenFiscal,
			TaxZipCode:   d.Receptor.DomicilioFiscal,
		},
	}
	if d.Moneda != pkgcfdi.MonedaMXN {
		req.ExchangeRate = num(d.TipoCambio)
	}
	for _, con := range d.Conceptos {
		req.Items = append(req.Items, mapItem(con))
	}
	if d.Nomina != nil {
		req.Complement = &fmComplement{Payroll: mapPayroll(d.Nomina)}
	}
	return req
}

func mapItem(c cfdi.Concepto) fmItem {
	objeto := c.ObjetoImp
	if objeto == "" {
		objeto = pkgcfdi.ObjetoImpNo
	}
	item := fmItem{
		ProductCode:          c.ClaveProdServ,
		IdentificationNumber: c.NoIdentificacion,
		Description:          c.Descripcion,
		UnitCode:             c.ClaveUnidad,
		Quantity:             num(c.Cantidad),
		UnitPrice:            num(c.ValorUnitario),
		Subtotal:             num(c.Cantidad.Mul(c.ValorUnitario)),
		Discount:             num(c.Descuento),
		TaxObject:            objeto,
	}
	total := c.Importe
	for _, t := range c.Traslados {
		item.Taxes = append(item.Taxes, fmTax{
			Name:  taxName(t.Impuesto),
			Base:  num(t.Base),
			Rate:  num(t.TasaOCuota),
			Total: num(t.Importe),
		})
		total = total.Add(t.Importe)
	}
	for _, r := range c.Retenciones {
		item.Taxes = append(item.Taxes, fmTax{
			Name:        taxName(r.Impuesto),
			Base:        num(r.Base),
			Rate:        num(r.TasaOCuota),
			Total:       num(r.Importe),
			IsRetention: true,
		})
		total = total.Sub(r.Importe)
	}
	item.Total = num(total)
	return item
}

func mapPayroll(n *cfdi.Nomina) *fmPayroll {
	p := &fmPayroll{
		Type:                 n.TipoNomina,
		PaymentDate:          n.FechaPago.Format("2006-01-02"),
		InitialPaymentDate:   n.FechaInicialPago.Format("2006-01-02"),
		FinalPaymentDate:     n.FechaFinalPago.Format("2006-01-02"),
		DaysPaid:             num(n.NumDiasPagados),
		EmployerRegistration: n.Emisor.RegistroPatronal,
	}
	r := n.Receptor
	emp := &fmPayrollEmployee{
		Curp:                 r.CURP,
		SocialSecurityNumber: r.NumSeguridadSocial,
		ContractType:         r.TipoContrato,
		TypeOfJourney:        r.TipoJornada,
		RegimeType:           r.TipoRegimen,
		EmployeeNumber:       r.NumEmpleado,
		PositionRisk:         r.RiesgoPuesto,
		FrequencyPayment:     r.PeriodicidadPago,
		Bank:                 r.Banco,
		BankAccount:          r.CuentaBancaria,
		BaseSalary:           num(r.SalarioBaseCotApor),
		DailySalary:          num(r.SalarioDiarioIntegrado),
	}
	if !r.FechaInicioRelLab.IsZero() {
		emp.StartDateLaborRelations = r.FechaInicioRelLab.Format("2006-01-02")
	}
	p.Employee = emp

	if n.Percepciones != nil {
		for _, l := range n.Percepciones.Lineas {
			p.Perceptions = append(p.Perceptions, fmPerceptionLine{
				PerceptionType: l.TipoPercepcion,
				Code:           l.Clave,
				Description:    l.Concepto,
				TaxedAmount:    num(l.ImporteGravado),
				ExemptedAmount: num(l.ImporteExento),
			})
		}
	}
	if n.Deducciones != nil {
		for _, l := range n.Deducciones.Lineas {
			p.Deductions = append(p.Deductions, fmDeductionLine{
				DeduccionType: l.TipoDeduccion,
				Code:          l.Clave,
				Description:   l.Concepto,
				Amount:        num(l.Importe),
			})
		}
	}
	for _, op := range n.OtrosPagos {
		mapped := fmOtherPayment{
			OtherPaymentType: op.TipoOtroPago,
			Code:             op.Clave,
			Description:      op.Concepto,
			Amount:           num(op.Importe),
		}
		if !op.SubsidioCausado.IsZero() {
			mapped.EmploymentSubsidy = &fmEmploymentSubsidy{Amount: num(op.SubsidioCausado)}
		}
		p.OtherPayments = append(p.OtherPayments, mapped)
	}
	return p
}

// taxName el proveedor nombra los impuestos, no usa claves de catálogo.
func taxName(clave string) string {
	switch clave {
	case pkgcfdi.ImpuestoISR:
		return "ISR"
	case pkgcfdi.ImpuestoIVA:
		return "IVA"
	case pkgcfdi.ImpuestoIEPS:
		return "IEPS"
	default:
		return clave
	}
}

// num convierte a número JSON redondeando primero a los 6 decimales máximos del
// Anexo 20. La conversión a float64 es inexacta por naturaleza; en este rango
// (montos de nómina, tasas con 6 decimales) el drift queda por debajo de lo que
// el proveedor valida.
func num(d decimal.Decimal) float64 {
	return d.Round(6).InexactFloat64()
}
