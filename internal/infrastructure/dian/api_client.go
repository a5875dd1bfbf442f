package dian

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Estados DIAN interpretados de la respuesta del WS.
const (
	StatusAceptado  = "ACEPTADO"
	StatusRechazado = "RECHAZADO"
	StatusPendiente = "PENDIENTE"
)

// maxTokenTTL límite superior del TTL del token en cache (por debajo del expires_in usual de 1 h).
const maxTokenTTL = 50 * time.Minute

// SubmitResult resultado de la entrega de un documento al WS DIAN.
type SubmitResult struct {
	Success    bool   // true si el WS respondió 2xx
	Status     string // ACEPTADO | RECHAZADO | PENDIENTE
	StatusCode int    // Código HTTP de la respuesta (0 si no hubo respuesta)
	Message    string // Mensaje de error o rechazo (puede ser vacío)
	Payload    string // Cuerpo crudo de la respuesta para auditoría
}

// DIANSubmitter define el puerto de salida para la entrega de documentos al WS DIAN.
// La implementación concreta usa el API REST; para tests se puede inyectar un fake.
type DIANSubmitter interface {
	// Submit envía el XML firmado al WS DIAN y clasifica la respuesta.
	Submit(ctx context.Context, xmlContent []byte) (*SubmitResult, error)
}

// APIClientConfig parámetros del cliente del WS DIAN.
type APIClientConfig struct {
	BaseURL      string
	ClientID     string // Vacío: se envía sin token (comportamiento legado)
	ClientSecret string
	Timeout      time.Duration
}

// APIClient implementa DIANSubmitter contra el API REST de la DIAN
// (GetToken + SendBillSync) con token OAuth2 cacheado en memoria.
type APIClient struct {
	cfg        APIClientConfig
	httpClient *http.Client
	tokens     *tokenCache
}

// NewAPIClient construye el cliente con un timeout de red generoso por defecto (60 s)
// ya que el WS DIAN puede tardar varios segundos en responder.
func NewAPIClient(cfg APIClientConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &APIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     newTokenCache(nil),
	}
}

// newAPIClientWithClock variante para tests con reloj inyectado.
func newAPIClientWithClock(cfg APIClientConfig, now func() time.Time) *APIClient {
	c := NewAPIClient(cfg)
	c.tokens = newTokenCache(now)
	return c
}

// getToken obtiene el token OAuth2 (client_credentials) con cache en memoria.
// Cualquier falla devuelve token vacío sin error: el envío procede sin Authorization
// y es la DIAN quien rechaza si el token era necesario.
func (c *APIClient) getToken(ctx context.Context) string {
	if tok, ok := c.tokens.Get(); ok {
		return tok
	}
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return ""
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/GetToken",
		strings.NewReader(form.Encode()))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.tokens.Clear()
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}

	var data struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"Token"` // variante legada del WS
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return ""
	}

	token := data.AccessToken
	if token == "" {
		token = data.Token
	}
	if token == "" {
		return ""
	}

	ttl := time.Duration(data.ExpiresIn) * time.Second
	if ttl <= 0 || ttl > maxTokenTTL {
		ttl = maxTokenTTL
	}
	c.tokens.Set(token, ttl)
	return token
}

// Submit envía el XML firmado a SendBillSync y clasifica la respuesta.
// Un error de transporte no se propaga: el resultado queda PENDIENTE para reintento.
func (c *APIClient) Submit(ctx context.Context, xmlContent []byte) (*SubmitResult, error) {
	token := c.getToken(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/SendBillSync",
		bytes.NewReader(xmlContent))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/xml")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SubmitResult{
			Success: false,
			Status:  StatusPendiente,
			Message: err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return &SubmitResult{
			Success: false,
			Status:  StatusPendiente,
			Message: "leer respuesta DIAN: " + err.Error(),
		}, nil
	}
	payload := string(rawBody)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &SubmitResult{
			Success:    true,
			Status:     classifyResponse(payload),
			StatusCode: resp.StatusCode,
			Payload:    payload,
		}, nil
	}

	return &SubmitResult{
		Success:    false,
		Status:     StatusRechazado,
		StatusCode: resp.StatusCode,
		Message:    parseErrorMessage(payload),
		Payload:    payload,
	}, nil
}

// classifyResponse clasifica una respuesta 2xx por palabras clave del cuerpo.
func classifyResponse(payload string) string {
	upper := strings.ToUpper(payload)
	switch {
	case strings.Contains(upper, "ACEPTADO") || strings.Contains(upper, "ACCEPTED"):
		return StatusAceptado
	case strings.Contains(upper, "RECHAZADO") || strings.Contains(upper, "REJECTED"):
		return StatusRechazado
	default:
		return StatusPendiente
	}
}

// parseErrorMessage extrae un mensaje legible de una respuesta de error.
// Busca los campos usuales del WS; si el cuerpo no es JSON devuelve el texto truncado.
func parseErrorMessage(payload string) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err == nil {
		for _, key := range []string{"ErrorMessage", "message", "Message", "error_description"} {
			if v, ok := obj[key]; ok && v != nil {
				if s, ok := v.(string); ok && s != "" {
					return truncate(s, 500)
				}
			}
		}
	}
	lower := strings.ToLower(payload)
	if strings.Contains(lower, "codigo") || strings.Contains(lower, "message") {
		return truncate(payload, 500)
	}
	return truncate(payload, 300)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
