package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Facturación electrónica
	ErrInvalidTransition       = errors.New("transición de estado no permitida")
	ErrMissingBillingReference = errors.New("la nota requiere referencia al documento afectado")
	ErrMaxRetries              = errors.New("número máximo de reintentos de envío alcanzado")
	ErrDocumentRejected        = errors.New("el documento fue rechazado por la DIAN")
	ErrSigning                 = errors.New("error firmando el documento")

	// Contabilidad
	ErrUnbalancedEntry       = errors.New("el asiento contable no está balanceado")
	ErrMissingAccountMapping = errors.New("no existe mapeo contable para la clave solicitada")
)
