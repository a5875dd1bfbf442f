package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	infradian "github.com/jhoicas/facturacion-api/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

// MaxRetries número máximo de envíos al WS DIAN por documento.
// El contador se deriva de los eventos ENVIO en cada consulta, no se almacena.
const MaxRetries = 3

// StatusTracker consulta el estado DIAN de un documento y gestiona reintentos
// de envío con límite.
type StatusTracker struct {
	docRepo      repository.FiscalDocumentRepository
	artifactRepo repository.DIANDocumentRepository
	eventRepo    repository.DIANEventRepository
	submitter    infradian.DIANSubmitter
	interpreter  *ResponseInterpreter
	log          *logger.Logger
}

// NewStatusTracker construye el tracker.
func NewStatusTracker(
	docRepo repository.FiscalDocumentRepository,
	artifactRepo repository.DIANDocumentRepository,
	eventRepo repository.DIANEventRepository,
	submitter infradian.DIANSubmitter,
	interpreter *ResponseInterpreter,
	log *logger.Logger,
) *StatusTracker {
	return &StatusTracker{
		docRepo:      docRepo,
		artifactRepo: artifactRepo,
		eventRepo:    eventRepo,
		submitter:    submitter,
		interpreter:  interpreter,
		log:          log,
	}
}

// DocumentStatus estado consolidado de un documento frente a la DIAN.
type DocumentStatus struct {
	DocumentID   string `json:"document_id"`
	Status       string `json:"status"`
	CUFE         string `json:"cufe,omitempty"`
	TrackID      string `json:"track_id,omitempty"`
	DIANErrors   string `json:"dian_errors,omitempty"`
	AttemptCount int    `json:"attempt_count"`
}

// GetStatus devuelve el estado del documento con los envíos consumidos.
func (t *StatusTracker) GetStatus(ctx context.Context, documentID string) (*DocumentStatus, error) {
	doc, err := t.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	attempts, err := t.eventRepo.CountByType(ctx, documentID, entity.EventEnvio)
	if err != nil {
		return nil, err
	}
	return &DocumentStatus{
		DocumentID:   doc.ID,
		Status:       doc.Status,
		CUFE:         doc.CUFE,
		TrackID:      doc.TrackID,
		DIANErrors:   doc.DIANErrors,
		AttemptCount: attempts,
	}, nil
}

// RetryResult resultado de un intento de reenvío.
type RetryResult struct {
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	StatusDian string `json:"status_dian,omitempty"`
	Message    string `json:"message,omitempty"`
}

// RetrySend reenvía el XML firmado al WS DIAN si el documento lo admite.
// Los estados terminales no generan llamada de red:
//
//	ACEPTADA  -> éxito sin reenvío
//	RECHAZADA -> fallo sin reenvío
//
// Alcanzado MaxRetries se devuelve domain.ErrMaxRetries, también sin llamada.
func (t *StatusTracker) RetrySend(ctx context.Context, documentID string) (*RetryResult, error) {
	doc, err := t.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	switch doc.Status {
	case entity.StatusAceptada:
		return &RetryResult{Success: true, Status: doc.Status, StatusDian: infradian.StatusAceptado, Message: "ya aceptada"}, nil
	case entity.StatusRechazada:
		return &RetryResult{Success: false, Status: doc.Status, StatusDian: infradian.StatusRechazado, Message: "documento rechazado"}, nil
	}

	// Sin canal configurado no hay reenvío posible y el intento no se consume.
	if t.submitter == nil {
		return nil, fmt.Errorf("billing: canal DIAN no configurado: %w", domain.ErrConflict)
	}

	xmlSigned := doc.XMLSigned
	if xmlSigned == "" {
		if artifact, aErr := t.artifactRepo.GetByDocumentID(ctx, documentID); aErr == nil {
			xmlSigned = artifact.XMLContent
		}
	}
	if xmlSigned == "" {
		return nil, fmt.Errorf("billing: documento %s sin XML firmado: %w", documentID, domain.ErrConflict)
	}

	attempts, err := t.eventRepo.CountByType(ctx, documentID, entity.EventEnvio)
	if err != nil {
		return nil, err
	}
	if attempts >= MaxRetries {
		return nil, fmt.Errorf("billing: %d envíos consumidos: %w", attempts, domain.ErrMaxRetries)
	}

	if err := t.eventRepo.Create(ctx, &entity.DIANEvent{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		EventType:  entity.EventEnvio,
		Detail:     fmt.Sprintf("intento %d de %d", attempts+1, MaxRetries),
		CreatedAt:  time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("registrar envío: %w", err)
	}

	result, err := t.submitter.Submit(ctx, []byte(xmlSigned))
	if err != nil {
		return nil, fmt.Errorf("enviar a DIAN: %w", err)
	}

	status, err := t.interpreter.Handle(ctx, doc, result)
	if err != nil {
		return nil, err
	}

	t.log.Info().
		Str("document_id", documentID).
		Int("attempt", attempts+1).
		Str("status", status).
		Msg("reintento de envío DIAN")

	return &RetryResult{
		Success:    result.Success && result.Status == infradian.StatusAceptado,
		Status:     status,
		StatusDian: result.Status,
		Message:    result.Message,
	}, nil
}
