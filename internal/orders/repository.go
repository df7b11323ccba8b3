package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoptrack/internal/domain"
)

type RepositoryInterface interface {
	GetByID(ctx context.Context, id string) (domain.Order, error)
	GetByIDAndEmail(ctx context.Context, id, email string) (domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error)
	UpdateStage(ctx context.Context, id, stage string, at time.Time) error
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	AppendTimelineEvent(ctx context.Context, id string, e domain.TimelineEntry) error
	UpsertTrackingView(ctx context.Context, ev domain.ChangeEvent) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository { return &Repository{db: db} }

const orderColumns = `
id, order_number, customer_id, customer_name, email, status, stage,
total_amount, created_at, updated_at, delivered_at, cancelled_at`

func (r *Repository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders WHERE id = $1
`, id)
	return r.scanWithTimeline(ctx, row, id)
}

func (r *Repository) GetByIDAndEmail(ctx context.Context, id, email string) (domain.Order, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders WHERE id = $1 AND lower(email) = lower($2)
`, id, strings.TrimSpace(email))
	return r.scanWithTimeline(ctx, row, id)
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+orderColumns+`
FROM orders WHERE customer_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateStage(ctx context.Context, id, stage string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
UPDATE orders SET stage = $2, updated_at = $3 WHERE id = $1
`, id, stage, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus also stamps the terminal timestamp the bootstrap synthesis
// reads (delivered_at / cancelled_at).
func (r *Repository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
UPDATE orders SET
  status = $2,
  updated_at = $3,
  delivered_at = CASE WHEN $2 = 'completed' THEN $3 ELSE delivered_at END,
  cancelled_at = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancelled_at END
WHERE id = $1
`, id, status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AppendTimelineEvent(ctx context.Context, id string, e domain.TimelineEntry) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO order_events (order_id, code, note, occurred_at)
VALUES ($1, $2, $3, $4)
`, id, e.Code, e.Note, e.At)
	return err
}

// UpsertTrackingView maintains the denormalized row replica consumers
// read; the canonical orders table stays untouched here.
func (r *Repository) UpsertTrackingView(ctx context.Context, ev domain.ChangeEvent) error {
	stage, status := "", ""
	switch ev.Kind {
	case domain.ChangeKindStage:
		stage = ev.Value
	case domain.ChangeKindStatus:
		status = ev.Value
	}
	_, err := r.db.Exec(ctx, `
INSERT INTO tracking_view (order_id, status, stage, last_event_at)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
ON CONFLICT (order_id) DO UPDATE SET
  status = COALESCE(NULLIF(EXCLUDED.status, ''), tracking_view.status),
  stage = COALESCE(NULLIF(EXCLUDED.stage, ''), tracking_view.stage),
  last_event_at = EXCLUDED.last_event_at
`, ev.OrderID, status, stage, ev.OccurredAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var orderNumber, customerID, customerName, email, status, stage *string
	var total *float64
	err := row.Scan(
		&o.ID, &orderNumber, &customerID, &customerName, &email,
		&status, &stage, &total,
		&o.CreatedAt, &o.UpdatedAt, &o.DeliveredAt, &o.CancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.OrderNumber = deref(orderNumber)
	o.CustomerID = deref(customerID)
	o.CustomerName = deref(customerName)
	o.Email = deref(email)
	o.Status = deref(status)
	o.Stage = deref(stage)
	if total != nil {
		o.TotalAmount = *total
	}
	return o, nil
}

func (r *Repository) scanWithTimeline(ctx context.Context, row rowScanner, id string) (domain.Order, error) {
	o, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, err
	}
	timeline, err := r.timeline(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.StatusTimeline = timeline
	return o, nil
}

func (r *Repository) timeline(ctx context.Context, id string) ([]domain.TimelineEntry, error) {
	rows, err := r.db.Query(ctx, `
SELECT code, COALESCE(note, ''), occurred_at
FROM order_events WHERE order_id = $1
ORDER BY occurred_at ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TimelineEntry
	for rows.Next() {
		var e domain.TimelineEntry
		if err := rows.Scan(&e.Code, &e.Note, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
