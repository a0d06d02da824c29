package services

import (
	"qrdine_backend/internal/models"
	"qrdine_backend/internal/repositories"
)

// NotificationService reads the engine-generated signals back out. Writing
// them happens inside the intake and reconciliation transactions; reading and
// acknowledging staff notifications belongs to the staff CRUD surface.
type NotificationService interface {
	ListRecentPaymentEvents(limit int) ([]models.PaymentEvent, error)
}

type notificationService struct {
	ds repositories.Datastore
}

// NewNotificationService creates a NotificationService over the datastore.
func NewNotificationService(ds repositories.Datastore) NotificationService {
	return &notificationService{ds: ds}
}

// ListRecentPaymentEvents exposes the webhook audit trail for reconciliation
// reporting.
func (s *notificationService) ListRecentPaymentEvents(limit int) ([]models.PaymentEvent, error) {
	return s.ds.PaymentEvents().ListRecent(limit)
}
