package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nominamx/timbrado-api/internal/application/dto"
	"github.com/nominamx/timbrado-api/internal/application/stamping"
	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
	"github.com/nominamx/timbrado-api/internal/domain/entity"
	"github.com/nominamx/timbrado-api/internal/infrastructure/pac"
	api "github.com/nominamx/timbrado-api/internal/interfaces/http"
	pkgcfdi "github.com/nominamx/timbrado-api/pkg/cfdi"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles y armado de la app
// ──────────────────────────────────────────────────────────────────────────────

type memRecordRepo struct {
	records map[string]*entity.StampRecord
}

func (m *memRecordRepo) Create(_ context.Context, r *entity.StampRecord) error {
	m.records[r.ID] = r
	return nil
}

func (m *memRecordRepo) GetByID(_ context.Context, companyID, id string) (*entity.StampRecord, error) {
	r, ok := m.records[id]
	if !ok || r.CompanyID != companyID {
		return nil, nil
	}
	return r, nil
}

func (m *memRecordRepo) MarkStamped(_ context.Context, id, uuid, stampedXML string) error {
	r := m.records[id]
	now := time.Now().UTC()
	r.Status = entity.StampStatusStamped
	r.UUID = uuid
	r.StampedXML = stampedXML
	r.StampedAt = &now
	return nil
}

func (m *memRecordRepo) MarkFailed(_ context.Context, id, reason string) error {
	r := m.records[id]
	now := time.Now().UTC()
	r.Status = entity.StampStatusError
	r.ErrorMessage = reason
	r.StampedAt = &now
	return nil
}

type memConfigRepo struct {
	configs map[string]*entity.PACConfiguration
}

func (m *memConfigRepo) GetByCompany(_ context.Context, companyID string) (*entity.PACConfiguration, error) {
	return m.configs[companyID], nil
}

type stubStamper struct {
	result *pac.StampResult
}

func (s *stubStamper) Stamp(_ context.Context, _ *cfdi.Document, _ pac.Credentials, _ bool) *pac.StampResult {
	return s.result
}

type testApp struct {
	app     *fiber.App
	stamper *stubStamper
}

func newTestApp() *testApp {
	records := &memRecordRepo{records: make(map[string]*entity.StampRecord)}
	configs := &memConfigRepo{configs: map[string]*entity.PACConfiguration{
		"empresa-1": {CompanyID: "empresa-1", Provider: "stub", Username: "u", Password: "p", Sandbox: true},
	}}
	stamper := &stubStamper{result: pac.Ok("UUID-HTTP-1", "<timbrado/>")}
	registry := stamping.NewRegistry()
	registry.Register("stub", stamper)

	app := fiber.New()
	api.Router(app, api.RouterDeps{
		Orchestrator: stamping.NewOrchestrator(records, configs, registry, zerolog.Nop()),
	})
	return &testApp{app: app, stamper: stamper}
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func validDoc() cfdi.Document {
	return cfdi.Document{
		Serie:             "A",
		Folio:             "1",
		Fecha:             time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		FormaPago:         pkgcfdi.FormaPagoTransferencia,
		MetodoPago:        pkgcfdi.MetodoPagoPUE,
		TipoDeComprobante: pkgcfdi.TipoComprobanteIngreso,
		Exportacion:       pkgcfdi.ExportacionNoAplica,
		Moneda:            pkgcfdi.MonedaMXN,
		TipoCambio:        decimal.NewFromInt(1),
		LugarExpedicion:   "06600",
		SubTotal:          dec("1000.00"),
		Total:             dec("1000.00"),
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
			Descripcion:   "Servicios",
			ValorUnitario: dec("1000.00"),
			Importe:       dec("1000.00"),
			ObjetoImp:     pkgcfdi.ObjetoImpNo,
		}},
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func createRecord(t *testing.T, ta *testApp) dto.RecordResponse {
	t.Helper()
	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/records", dto.CreateRecordRequest{
		CompanyID: "empresa-1",
		PayrollID: "nomina-2026-05",
		Document:  validDoc(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var out dto.RecordResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────

func TestCreateRecordEndpoint(t *testing.T) {
	ta := newTestApp()

	record := createRecord(t, ta)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, entity.StampStatusPending, record.Status)
}

func TestCreateRecordEndpoint_DocumentoInvalido(t *testing.T) {
	ta := newTestApp()
	doc := validDoc()
	doc.Total = dec("999.00")

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/records", dto.CreateRecordRequest{
		CompanyID: "empresa-1",
		PayrollID: "nomina-2026-05",
		Document:  doc,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "INVALID_DOCUMENT", out.Code)
}

func TestCreateRecordEndpoint_CamposFaltantes(t *testing.T) {
	ta := newTestApp()

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/records", dto.CreateRecordRequest{
		Document: validDoc(),
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "VALIDATION", out.Code)
}

func TestStampEndpoint_Exitoso(t *testing.T) {
	ta := newTestApp()
	record := createRecord(t, ta)

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/stamping", dto.StampRequest{
		RecordID: record.ID, CompanyID: "empresa-1",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out stamping.Outcome
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Success)
	assert.Equal(t, "UUID-HTTP-1", out.UUID)
}

func TestStampEndpoint_RechazoDelPAC(t *testing.T) {
	ta := newTestApp()
	ta.stamper.result = pac.Fail("RFC inválido")
	record := createRecord(t, ta)

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/stamping", dto.StampRequest{
		RecordID: record.ID, CompanyID: "empresa-1",
	})

	// El rechazo del proveedor es una respuesta completa, no un error HTTP.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out stamping.Outcome
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.False(t, out.Success)
	assert.Equal(t, "RFC inválido", out.Message)
}

func TestStampEndpoint_YaTimbrado(t *testing.T) {
	ta := newTestApp()
	record := createRecord(t, ta)
	in := dto.StampRequest{RecordID: record.ID, CompanyID: "empresa-1"}

	resp, _ := doJSON(t, ta.app, http.MethodPost, "/api/stamping", in)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/stamping", in)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "ALREADY_STAMPED", out.Code)
}

func TestStampEndpoint_YaFallido(t *testing.T) {
	ta := newTestApp()
	ta.stamper.result = pac.Fail("RFC inválido")
	record := createRecord(t, ta)
	in := dto.StampRequest{RecordID: record.ID, CompanyID: "empresa-1"}

	resp, _ := doJSON(t, ta.app, http.MethodPost, "/api/stamping", in)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// El registro quedó en error terminal; el reintento sobre el mismo registro se rechaza.
	ta.stamper.result = pac.Ok("UUID-NUEVO", "<timbrado/>")
	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/stamping", in)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "ALREADY_FAILED", out.Code)
}

func TestStampEndpoint_RegistroInexistente(t *testing.T) {
	ta := newTestApp()

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/stamping", dto.StampRequest{
		RecordID: "no-existe", CompanyID: "empresa-1",
	})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "NOT_FOUND", out.Code)
}

func TestGetRecordEndpoint_Polling(t *testing.T) {
	ta := newTestApp()
	record := createRecord(t, ta)

	resp, raw := doJSON(t, ta.app, http.MethodGet, "/api/records/"+record.ID+"?companyId=empresa-1", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.RecordResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, record.ID, out.ID)
	assert.Equal(t, entity.StampStatusPending, out.Status)
}

func TestGetRecordEndpoint_NoExiste(t *testing.T) {
	ta := newTestApp()

	resp, _ := doJSON(t, ta.app, http.MethodGet, "/api/records/xyz?companyId=empresa-1", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ta := newTestApp()

	resp, raw := doJSON(t, ta.app, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"status":"ok"`)
}
