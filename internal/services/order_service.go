package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"borgo/internal/answers"
	"borgo/internal/catalog"
	"borgo/internal/domain"
	"borgo/internal/form"
	applog "borgo/internal/log"
	"borgo/internal/repos"

	"github.com/google/uuid"
)

// OrderService turns validated sessions into orders and drives their status.
// It satisfies form.Submitter.
type OrderService struct {
	Orders   *repos.OrderRepo
	Capacity *repos.CapacityRepo
	// StrictAnswers stores order and answers in one transaction. Otherwise a
	// failed answer write is logged and the order is kept.
	StrictAnswers bool
	Now           func() time.Time
}

func NewOrderService(orders *repos.OrderRepo, capacity *repos.CapacityRepo, strict bool) *OrderService {
	return &OrderService{Orders: orders, Capacity: capacity, StrictAnswers: strict, Now: time.Now}
}

var _ form.Submitter = (*OrderService)(nil)

// Submit reserves a slot on the pickup date's counter and persists the order.
func (s *OrderService) Submit(ctx context.Context, snap form.Snapshot) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	o := domain.Order{
		ID:              uuid.NewString(),
		CreatedAt:       s.Now().UTC().Format("2006-01-02 15:04:05"),
		CategoryID:      snap.CategoryID,
		Status:          domain.StatusReceived,
		CustomerName:    snap.Identity.FirstName,
		CustomerSurname: snap.Identity.LastName,
		CustomerPhone:   snap.Identity.Phone,
		PickupDate:      snap.Values[catalog.KeyPickupDate],
		PickupTime:      snap.Values[catalog.KeyPickupTime],
		TotalItems:      1,
		UserID:          snap.UserID,
	}
	list := answers.Encode(snap.Values)

	if o.PickupDate != "" {
		if err := s.Capacity.Reserve(o.CategoryID, o.PickupDate); err != nil {
			if errors.Is(err, domain.ErrCapacityFull) {
				return domain.Order{}, &domain.ValidationError{FieldKey: catalog.KeyPickupDate, Reason: err.Error()}
			}
			return domain.Order{}, domain.Persistence("capacity.reserve", err)
		}
	}

	if s.StrictAnswers {
		if err := s.Orders.CreateWithAnswers(o, list); err != nil {
			s.release(o)
			return domain.Order{}, domain.Persistence("order.create", err)
		}
	} else {
		if err := s.Orders.Create(o); err != nil {
			s.release(o)
			return domain.Order{}, domain.Persistence("order.create", err)
		}
		if err := s.Orders.InsertAnswers(o.ID, list); err != nil {
			applog.Error(nil, "order.answers.fail", err, map[string]any{"order_id": o.ID, "answers": len(list)})
		}
	}
	applog.Audit(nil, "order.submit", map[string]any{"order_id": o.ID, "category_id": o.CategoryID, "pickup_date": o.PickupDate})
	return o, nil
}

func (s *OrderService) release(o domain.Order) {
	if o.PickupDate == "" {
		return
	}
	if err := s.Capacity.Release(o.CategoryID, o.PickupDate); err != nil {
		applog.Error(nil, "capacity.release.fail", err, map[string]any{"category_id": o.CategoryID, "date": o.PickupDate})
	}
}

// Get returns the order with its answers.
func (s *OrderService) Get(id string) (domain.Order, []domain.Answer, error) {
	o, list, err := s.Orders.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return o, nil, domain.ErrNotFound
	}
	if err != nil {
		return o, nil, domain.Persistence("order.get", err)
	}
	return o, list, nil
}

// SetStatus moves an order forward. Setting the current status again is a no-op.
func (s *OrderService) SetStatus(id string, next domain.Status) (domain.Order, error) {
	o, _, err := s.Get(id)
	if err != nil {
		return o, err
	}
	if o.Archived() {
		return o, domain.ErrOrderArchived
	}
	if !next.Valid() {
		return o, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, next)
	}
	if o.Status == next {
		return o, nil
	}
	if !o.Status.CanMoveTo(next) {
		return o, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, next)
	}
	if err := s.Orders.UpdateStatus(id, next); err != nil {
		return o, domain.Persistence("order.status", err)
	}
	o.Status = next
	return o, nil
}

// Archive hides an order from the live view. It stays queryable by date.
func (s *OrderService) Archive(id string) (domain.Order, error) {
	o, _, err := s.Get(id)
	if err != nil {
		return o, err
	}
	if o.Archived() {
		return o, domain.ErrOrderArchived
	}
	at := s.Now().UTC().Format(time.RFC3339)
	if err := s.Orders.Archive(id, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, domain.ErrOrderArchived
		}
		return o, domain.Persistence("order.archive", err)
	}
	o.ArchivedAt = at
	return o, nil
}

// Delete removes an order and its answers. A live order gives its slot back.
func (s *OrderService) Delete(id string) error {
	o, _, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.Orders.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return domain.Persistence("order.delete", err)
	}
	if !o.Archived() && o.Status != domain.StatusDelivered {
		s.release(o)
	}
	return nil
}

func (s *OrderService) ListLive() ([]domain.Order, error) {
	out, err := s.Orders.ListLive(0)
	if err != nil {
		return nil, domain.Persistence("order.list", err)
	}
	return out, nil
}

func (s *OrderService) ListArchived(date string) ([]domain.Order, error) {
	out, err := s.Orders.ListArchived(date)
	if err != nil {
		return nil, domain.Persistence("order.list_archived", err)
	}
	return out, nil
}

func (s *OrderService) ListByUser(userID string) ([]domain.Order, error) {
	out, err := s.Orders.ListByUser(userID)
	if err != nil {
		return nil, domain.Persistence("order.list_user", err)
	}
	return out, nil
}
