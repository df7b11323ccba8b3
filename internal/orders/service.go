package orders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"shoptrack/internal/domain"
	"shoptrack/internal/logger"
)

// SnapshotCache is the read-through cache in front of the order store.
// Implemented by the redis cache; a nil-safe fake in tests.
type SnapshotCache interface {
	Get(ctx context.Context, orderID string) (domain.Order, bool)
	Set(ctx context.Context, order domain.Order)
	Invalidate(ctx context.Context, orderID string) error
}

// EventPublisher pushes staff-change events to the broker.
type EventPublisher interface {
	PublishChange(ctx context.Context, ev domain.ChangeEvent) error
}

type ServiceInterface interface {
	PrivateOrder(ctx context.Context, customerID, orderID string) (domain.Order, error)
	PublicOrder(ctx context.Context, orderID, email string) (domain.Order, error)
	CustomerOrders(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error)
	ChangeStage(ctx context.Context, orderID, stage, note, changedBy string) error
	ChangeStatus(ctx context.Context, orderID, status, note, changedBy string) error
}

type Service struct {
	repo  RepositoryInterface
	cache SnapshotCache
	pub   EventPublisher
	lg    *logger.Logger
}

func NewService(repo RepositoryInterface, cache SnapshotCache, pub EventPublisher, lg *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, pub: pub, lg: lg}
}

// PrivateOrder serves the authenticated lookup. Ownership is checked
// after the read so a foreign order id yields 403, a missing one 404, and
// a missing session 401 before any I/O.
func (s *Service) PrivateOrder(ctx context.Context, customerID, orderID string) (domain.Order, error) {
	if customerID == "" {
		return domain.Order{}, &StatusError{Code: http.StatusUnauthorized, Message: "authentication required"}
	}
	if order, ok := s.cache.Get(ctx, orderID); ok {
		return s.authorize(order, customerID)
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return domain.Order{}, &StatusError{Code: http.StatusNotFound, Message: "order not found"}
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("private order lookup: %w", err)
	}
	s.cache.Set(ctx, order)
	return s.authorize(order, customerID)
}

func (s *Service) authorize(order domain.Order, customerID string) (domain.Order, error) {
	if order.CustomerID != customerID {
		return domain.Order{}, &StatusError{Code: http.StatusForbidden, Message: "not your order"}
	}
	return order, nil
}

// PublicOrder is the fallback lookup keyed by billing email. It bypasses
// the cache: the cached snapshot is keyed for session reads and a public
// caller must never observe an entry it could not have fetched.
func (s *Service) PublicOrder(ctx context.Context, orderID, email string) (domain.Order, error) {
	if strings.TrimSpace(email) == "" {
		return domain.Order{}, &StatusError{Code: http.StatusBadRequest, Message: "email is required"}
	}
	order, err := s.repo.GetByIDAndEmail(ctx, orderID, email)
	if errors.Is(err, ErrNotFound) {
		return domain.Order{}, &StatusError{Code: http.StatusNotFound, Message: "order not found"}
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("public order lookup: %w", err)
	}
	return order, nil
}

func (s *Service) CustomerOrders(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error) {
	if customerID == "" {
		return nil, &StatusError{Code: http.StatusUnauthorized, Message: "authentication required"}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.repo.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	return orders, nil
}

// ChangeStage records a staff stage change: persist, append the timeline
// row, publish the event, invalidate the cached snapshot.
func (s *Service) ChangeStage(ctx context.Context, orderID, stage, note, changedBy string) error {
	stage = strings.ToLower(strings.TrimSpace(stage))
	if !ValidStage(stage) {
		return &StatusError{Code: http.StatusUnprocessableEntity, Message: "stage is required"}
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateStage(ctx, orderID, stage, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &StatusError{Code: http.StatusNotFound, Message: "order not found"}
		}
		return fmt.Errorf("update stage: %w", err)
	}
	return s.recordChange(ctx, domain.ChangeEvent{
		EventID:    uuid.NewString(),
		OrderID:    orderID,
		Kind:       domain.ChangeKindStage,
		Value:      stage,
		Note:       note,
		ChangedBy:  changedBy,
		OccurredAt: now,
	})
}

// ChangeStatus is the coarse-lifecycle counterpart, guarded by the
// transition table.
func (s *Service) ChangeStatus(ctx context.Context, orderID, status, note, changedBy string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	current, err := s.repo.GetByID(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return &StatusError{Code: http.StatusNotFound, Message: "order not found"}
	}
	if err != nil {
		return fmt.Errorf("load order for status change: %w", err)
	}
	if !CanTransition(current.CanonicalStatus(), status) {
		return &StatusError{
			Code:    http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("cannot move order from %s to %s", current.CanonicalStatus(), status),
		}
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, orderID, status, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &StatusError{Code: http.StatusNotFound, Message: "order not found"}
		}
		return fmt.Errorf("update status: %w", err)
	}
	return s.recordChange(ctx, domain.ChangeEvent{
		EventID:    uuid.NewString(),
		OrderID:    orderID,
		Kind:       domain.ChangeKindStatus,
		Value:      status,
		Note:       note,
		ChangedBy:  changedBy,
		OccurredAt: now,
	})
}

func (s *Service) recordChange(ctx context.Context, ev domain.ChangeEvent) error {
	entry := domain.TimelineEntry{Code: ev.Value, Note: ev.Note, At: &ev.OccurredAt}
	if err := s.repo.AppendTimelineEvent(ctx, ev.OrderID, entry); err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	if err := s.pub.PublishChange(ctx, ev); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	// Post-condition the tracking engine relies on: the next poll must see
	// the change. TTL bounds staleness if redis is down, so log and go on.
	if err := s.cache.Invalidate(ctx, ev.OrderID); err != nil {
		s.lg.Error("cache_invalidate_failed", err, map[string]any{"order_id": ev.OrderID})
	}
	return nil
}
