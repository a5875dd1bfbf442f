package entity

import "time"

// Tipos de evento del ciclo de envío a la DIAN.
const (
	EventEnvio        = "ENVIO"        // Intento de envío al WS (cuenta para el límite de reintentos)
	EventAceptacion   = "ACEPTACION"   // Respuesta de aceptación
	EventRechazo      = "RECHAZO"      // Respuesta de rechazo
	EventNotificacion = "NOTIFICACION" // Respuesta pendiente u otra notificación
)

// DIANEvent registra un evento del ciclo de envío de un documento.
// Los eventos ENVIO se cuentan para determinar los reintentos consumidos.
type DIANEvent struct {
	ID         string
	DocumentID string
	EventType  string
	Detail     string // Resumen corto del evento (mensaje, código)
	CreatedAt  time.Time
}

// MaxAuditPayload limita el tamaño del cuerpo crudo almacenado en auditoría.
const MaxAuditPayload = 50000

// DIANHistory guarda la respuesta cruda del WS DIAN para auditoría.
// El cuerpo se trunca a MaxAuditPayload caracteres.
type DIANHistory struct {
	ID         string
	DocumentID string
	Status     string // Estado resultante de interpretar la respuesta
	StatusCode int    // Código HTTP de la respuesta
	Payload    string // Cuerpo crudo (truncado)
	CreatedAt  time.Time
}

// TruncateAuditPayload recorta el cuerpo de la respuesta al límite de auditoría.
func TruncateAuditPayload(s string) string {
	if len(s) > MaxAuditPayload {
		return s[:MaxAuditPayload]
	}
	return s
}
