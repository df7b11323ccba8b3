package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"shoptrack/internal/domain"
	"shoptrack/internal/logger"
)

type fakeRepo struct {
	orders       map[string]domain.Order
	appended     []domain.TimelineEntry
	stageWrites  int
	statusWrites int
}

func newFakeRepo(orders ...domain.Order) *fakeRepo {
	m := make(map[string]domain.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeRepo{orders: m}
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (f *fakeRepo) GetByIDAndEmail(_ context.Context, id, email string) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.Email != email {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (f *fakeRepo) ListByCustomer(_ context.Context, customerID string, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStage(_ context.Context, id, stage string, _ time.Time) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Stage = stage
	f.orders[id] = o
	f.stageWrites++
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id, status string, _ time.Time) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	f.orders[id] = o
	f.statusWrites++
	return nil
}

func (f *fakeRepo) AppendTimelineEvent(_ context.Context, _ string, e domain.TimelineEntry) error {
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeRepo) UpsertTrackingView(_ context.Context, _ domain.ChangeEvent) error { return nil }

type fakeCache struct {
	entries       map[string]domain.Order
	invalidated   []string
	invalidateErr error
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]domain.Order{}} }

func (f *fakeCache) Get(_ context.Context, id string) (domain.Order, bool) {
	o, ok := f.entries[id]
	return o, ok
}

func (f *fakeCache) Set(_ context.Context, o domain.Order) { f.entries[o.ID] = o }

func (f *fakeCache) Invalidate(_ context.Context, id string) error {
	f.invalidated = append(f.invalidated, id)
	delete(f.entries, id)
	return f.invalidateErr
}

type fakePublisher struct {
	events []domain.ChangeEvent
	err    error
}

func (f *fakePublisher) PublishChange(_ context.Context, ev domain.ChangeEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func newService(repo *fakeRepo, cache *fakeCache, pub *fakePublisher) *Service {
	return NewService(repo, cache, pub, logger.New("orders-test"))
}

func statusCode(t *testing.T, err error) int {
	t.Helper()
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	return se.Code
}

func TestPrivateOrderOwnership(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: "o1", CustomerID: "c1"})
	svc := newService(repo, newFakeCache(), &fakePublisher{})

	if _, err := svc.PrivateOrder(context.Background(), "c1", "o1"); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	_, err := svc.PrivateOrder(context.Background(), "intruder", "o1")
	if got := statusCode(t, err); got != 403 {
		t.Fatalf("expected 403 for foreign order, got %d", got)
	}
	_, err = svc.PrivateOrder(context.Background(), "", "o1")
	if got := statusCode(t, err); got != 401 {
		t.Fatalf("expected 401 without session, got %d", got)
	}
	_, err = svc.PrivateOrder(context.Background(), "c1", "missing")
	if got := statusCode(t, err); got != 404 {
		t.Fatalf("expected 404 for missing order, got %d", got)
	}
}

func TestPrivateOrderCachesSnapshot(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: "o1", CustomerID: "c1"})
	cache := newFakeCache()
	svc := newService(repo, cache, &fakePublisher{})

	if _, err := svc.PrivateOrder(context.Background(), "c1", "o1"); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if _, ok := cache.entries["o1"]; !ok {
		t.Fatal("snapshot not cached after repo read")
	}

	// A cached snapshot must still fail ownership for another customer.
	_, err := svc.PrivateOrder(context.Background(), "intruder", "o1")
	if got := statusCode(t, err); got != 403 {
		t.Fatalf("cache hit bypassed ownership check: %d", got)
	}
}

func TestPublicOrderMatchesEmail(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: "o1", Email: "a@b.kz"})
	svc := newService(repo, newFakeCache(), &fakePublisher{})

	if _, err := svc.PublicOrder(context.Background(), "o1", "a@b.kz"); err != nil {
		t.Fatalf("matching email rejected: %v", err)
	}
	_, err := svc.PublicOrder(context.Background(), "o1", "wrong@b.kz")
	if got := statusCode(t, err); got != 404 {
		t.Fatalf("expected 404 for wrong email, got %d", got)
	}
	_, err = svc.PublicOrder(context.Background(), "o1", " ")
	if got := statusCode(t, err); got != 400 {
		t.Fatalf("expected 400 for empty email, got %d", got)
	}
}

func TestChangeStatusHappyPath(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: "o1", Status: "in_progress"})
	cache := newFakeCache()
	cache.entries["o1"] = domain.Order{ID: "o1", Status: "in_progress"}
	pub := &fakePublisher{}
	svc := newService(repo, cache, pub)

	if err := svc.ChangeStatus(context.Background(), "o1", "Completed", "handed over", "staff-7"); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if repo.statusWrites != 1 {
		t.Fatalf("expected 1 status write, got %d", repo.statusWrites)
	}
	if len(repo.appended) != 1 || repo.appended[0].Code != "completed" {
		t.Fatalf("timeline entry missing or wrong: %+v", repo.appended)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != "status" || pub.events[0].Value != "completed" {
		t.Fatalf("change event missing or wrong: %+v", pub.events)
	}
	if pub.events[0].EventID == "" {
		t.Fatal("event id not assigned")
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "o1" {
		t.Fatalf("cache not invalidated: %+v", cache.invalidated)
	}
}

func TestChangeStatusRejectsInvalidTransition(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: "o1", Status: "cancelled"})
	pub := &fakePublisher{}
	svc := newService(repo, newFakeCache(), pub)

	err := svc.ChangeStatus(context.Background(), "o1", "in_progress", "", "staff-7")
	if got := statusCode(t, err); got != 422 {
		t.Fatalf("expected 422 for invalid transition, got %d", got)
	}
	if repo.statusWrites != 0 || len(pub.events) != 0 {
		t.Fatal("invalid transition must not write or publish")
	}
}

func TestChangeStageFlow(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: "o1", Stage: "packaging"})
	cache := newFakeCache()
	pub := &fakePublisher{}
	svc := newService(repo, cache, pub)

	if err := svc.ChangeStage(context.Background(), "o1", " Road ", "", "staff-7"); err != nil {
		t.Fatalf("ChangeStage: %v", err)
	}
	if repo.orders["o1"].Stage != "road" {
		t.Fatalf("stage not canonicalized: %q", repo.orders["o1"].Stage)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != "stage" {
		t.Fatalf("stage event missing: %+v", pub.events)
	}

	err := svc.ChangeStage(context.Background(), "o1", "  ", "", "staff-7")
	if got := statusCode(t, err); got != 422 {
		t.Fatalf("expected 422 for empty stage, got %d", got)
	}
}

func TestChangeSurvivesCacheInvalidateFailure(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: "o1", Status: "pending"})
	cache := newFakeCache()
	cache.invalidateErr = errors.New("redis down")
	svc := newService(repo, cache, &fakePublisher{})

	if err := svc.ChangeStatus(context.Background(), "o1", "in_progress", "", ""); err != nil {
		t.Fatalf("invalidate failure must not fail the change: %v", err)
	}
}

func TestChangeFailsWhenPublishFails(t *testing.T) {
	repo := newFakeRepo(domain.Order{ID: "o1", Status: "pending"})
	svc := newService(repo, newFakeCache(), &fakePublisher{err: errors.New("broker gone")})

	if err := svc.ChangeStatus(context.Background(), "o1", "in_progress", "", ""); err == nil {
		t.Fatal("expected error when publish fails")
	}
}
