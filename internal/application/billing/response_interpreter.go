package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	infradian "github.com/jhoicas/facturacion-api/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

// ResponseInterpreter procesa la respuesta del WS DIAN y actualiza de forma
// atómica: estado del documento, evento del ciclo y registro de auditoría.
type ResponseInterpreter struct {
	txRunner BillingTxRunner
	log      *logger.Logger
}

// NewResponseInterpreter crea el intérprete.
func NewResponseInterpreter(txRunner BillingTxRunner, log *logger.Logger) *ResponseInterpreter {
	return &ResponseInterpreter{txRunner: txRunner, log: log}
}

// Handle mapea el resultado del envío al estado del documento y lo persiste:
//
//	ACEPTADO  -> ACEPTADA  + evento ACEPTACION
//	RECHAZADO -> RECHAZADA + evento RECHAZO
//	PENDIENTE -> ENVIADA   + evento NOTIFICACION (queda disponible para reintento)
//
// Devuelve el estado final del documento.
func (h *ResponseInterpreter) Handle(ctx context.Context, doc *entity.FiscalDocument, result *infradian.SubmitResult) (string, error) {
	if doc == nil || result == nil {
		return "", fmt.Errorf("billing: documento y resultado son obligatorios")
	}

	var docStatus, eventType string
	switch result.Status {
	case infradian.StatusAceptado:
		docStatus = entity.StatusAceptada
		eventType = entity.EventAceptacion
	case infradian.StatusRechazado:
		docStatus = entity.StatusRechazada
		eventType = entity.EventRechazo
	default:
		docStatus = entity.StatusEnviada
		eventType = entity.EventNotificacion
	}

	if !entity.CanTransition(doc.Status, docStatus) {
		return "", fmt.Errorf("billing: de %s a %s: %w", doc.Status, docStatus, domain.ErrInvalidTransition)
	}

	payload := result.Payload
	if payload == "" {
		b, _ := json.Marshal(map[string]any{"success": result.Success, "message": result.Message})
		payload = string(b)
	}

	err := h.txRunner.RunBilling(ctx, func(
		docRepo repository.FiscalDocumentRepository,
		_ repository.DIANDocumentRepository,
		eventRepo repository.DIANEventRepository,
		historyRepo repository.DIANHistoryRepository,
	) error {
		if err := docRepo.UpdateSubmission(ctx, doc.ID, docStatus, doc.TrackID, result.Message); err != nil {
			return fmt.Errorf("actualizar documento: %w", err)
		}
		if err := eventRepo.Create(ctx, &entity.DIANEvent{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			EventType:  eventType,
			Detail:     entity.TruncateAuditPayload(result.Message),
			CreatedAt:  time.Now(),
		}); err != nil {
			return fmt.Errorf("registrar evento %s: %w", eventType, err)
		}
		if err := historyRepo.Create(ctx, &entity.DIANHistory{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Status:     result.Status,
			StatusCode: result.StatusCode,
			Payload:    entity.TruncateAuditPayload(payload),
			CreatedAt:  time.Now(),
		}); err != nil {
			return fmt.Errorf("registrar auditoría: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	doc.Status = docStatus
	doc.DIANErrors = result.Message

	h.log.Info().
		Str("document_id", doc.ID).
		Str("status", docStatus).
		Str("status_dian", result.Status).
		Msg("respuesta DIAN procesada")

	return docStatus, nil
}
