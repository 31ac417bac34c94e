package pac

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nominamx/timbrado-api/internal/domain/cfdi"
	"github.com/nominamx/timbrado-api/internal/infrastructure/cfdi40"
)

// ProviderSolucionFactible identificador del adaptador SOAP.
const ProviderSolucionFactible = "solucionfactible"

const (
	sfURLSandbox    = "https://testing.solucionfactible.com/ws/services/Timbrado"
	sfURLProduction = "https://solucionfactible.com/ws/services/Timbrado"

	sfSoapNS     = "http://schemas.xmlsoap.org/soap/envelope/"
	sfTimbradoNS = "http://timbrado.ws.cfdi.solucionfactible.com"
	sfSoapAction = "urn:timbrar"

	// Mensaje genérico cuando la respuesta no trae faultstring ni mensaje.
	sfUnknownError = "error de timbrado desconocido"
)

// SolucionFactibleClient adaptador SOAP. Serializa el documento a XML CFDI 4.0
// (vía cfdi40.Builder), lo incrusta escapado en el envelope junto con las
// credenciales y extrae de la respuesta el UUID o el faultstring.
type SolucionFactibleClient struct {
	httpClient *http.Client
	builder    *cfdi40.Builder

	// URLs sobrescribibles en pruebas.
	urlSandbox    string
	urlProduction string
}

var _ Stamper = (*SolucionFactibleClient)(nil)

// NewSolucionFactibleClient construye el adaptador. httpClient nil usa uno con
// timeout duro de 30 s: el WS remoto no puede colgarse indefinidamente porque
// arriba de esta capa no hay ciclo de reintentos.
func NewSolucionFactibleClient(httpClient *http.Client, builder *cfdi40.Builder) *SolucionFactibleClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SolucionFactibleClient{
		httpClient:    httpClient,
		builder:       builder,
		urlSandbox:    sfURLSandbox,
		urlProduction: sfURLProduction,
	}
}

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type sfEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	XmlnsS  string   `xml:"xmlns:soapenv,attr"`
	XmlnsT  string   `xml:"xmlns:tim,attr"`
	Body    sfBody   `xml:"soapenv:Body"`
}

type sfBody struct {
	Timbrar sfTimbrarOp `xml:"tim:timbrar"`
}

type sfTimbrarOp struct {
	Usuario  string `xml:"usuario"`
	Password string `xml:"password"`
	CFDI     string `xml:"cfdi"` // XML del comprobante; encoding/xml lo escapa
	ZIP      bool   `xml:"zip"`
}

// ── Stamp ─────────────────────────────────────────────────────────────────────

// Stamp envía el comprobante a la operación timbrar del WS. El éxito lo señala
// la presencia del UUID en el cuerpo, no el status HTTP: el servicio puede
// responder 200 con un SOAP fault embebido.
func (c *SolucionFactibleClient) Stamp(ctx context.Context, doc *cfdi.Document, creds Credentials, sandbox bool) *StampResult {
	xmlBytes, err := c.builder.Build(doc)
	if err != nil {
		return Fail("serializar CFDI: " + err.Error())
	}

	envelope := sfEnvelope{
		XmlnsS: sfSoapNS,
		XmlnsT: sfTimbradoNS,
		Body: sfBody{Timbrar: sfTimbrarOp{
			Usuario:  creds.Username,
			Password: creds.Password,
			CFDI:     string(xmlBytes),
			ZIP:      false,
		}},
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return Fail("serializar envelope SOAP: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(sandbox),
		bytes.NewReader(payload))
	if err != nil {
		return Fail("crear request SOAP: " + err.Error())
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", sfSoapAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Fail("timeout o cancelación: " + ctx.Err().Error())
		}
		return Fail("llamada HTTP fallida: " + err.Error())
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return Fail("leer respuesta SOAP: " + err.Error())
	}
	return parseTimbradoResponse(string(rawBody))
}

// endpoint la selección sandbox/producción vive solo aquí.
func (c *SolucionFactibleClient) endpoint(sandbox bool) string {
	if sandbox {
		return c.urlSandbox
	}
	return c.urlProduction
}

// parseTimbradoResponse extrae UUID, comprobante timbrado y errores del cuerpo
// de respuesta. Extracción dirigida por etiquetas y no parseo XML completo:
// el WS remoto a veces responde con XML levemente malformado y aun así trae
// el dato que importa.
func parseTimbradoResponse(body string) *StampResult {
	if uuid := extractTag(body, "uuid"); uuid != "" {
		stamped := extractTag(body, "cfdiTimbrado")
		// El WS regresa el comprobante timbrado en Base64; si no decodifica,
		// se conserva tal cual para auditoría.
		if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(stamped)); err == nil && len(decoded) > 0 {
			stamped = string(decoded)
		}
		return Ok(uuid, stamped)
	}
	if fault := extractTag(body, "faultstring"); fault != "" {
		return Fail(fault)
	}
	if msg := extractTag(body, "mensaje"); msg != "" {
		return Fail(msg)
	}
	return Fail(sfUnknownError)
}

// extractTag devuelve el contenido textual de la primera ocurrencia de la
// etiqueta local, con o sin prefijo de namespace.
func extractTag(body, local string) string {
	lower := strings.ToLower(body)
	needle := strings.ToLower(local)
	from := 0
	for {
		open := strings.Index(lower[from:], "<")
		if open < 0 {
			return ""
		}
		open += from
		end := strings.Index(lower[open:], ">")
		if end < 0 {
			return ""
		}
		end += open
		tag := lower[open+1 : end]
		// nombre local: descartar atributos y prefijo de namespace
		if i := strings.IndexAny(tag, " \t\r\n"); i >= 0 {
			tag = tag[:i]
		}
		if i := strings.LastIndex(tag, ":"); i >= 0 {
			tag = tag[i+1:]
		}
		if tag == needle {
			closing := strings.Index(lower[end:], "</")
			if closing < 0 {
				return ""
			}
			return xmlUnescape(strings.TrimSpace(body[end+1 : end+closing]))
		}
		from = end + 1
	}
}

func xmlUnescape(s string) string {
	r := strings.NewReplacer(
		"&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&",
	)
	return r.Replace(s)
}
