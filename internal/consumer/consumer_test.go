package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"shoptrack/internal/domain"
	"shoptrack/internal/logger"
)

type fakeStore struct {
	events []domain.ChangeEvent
	err    error
}

func (f *fakeStore) UpsertTrackingView(_ context.Context, ev domain.ChangeEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type fakeInvalidator struct {
	ids []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return nil
}

// amqp.Delivery needs an Acknowledger, otherwise Ack/Nack return an error
// we would misread as a test failure.
type fakeAcker struct {
	acks, nacks int
	requeued    bool
}

func (f *fakeAcker) Ack(_ uint64, _ bool) error { f.acks++; return nil }
func (f *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}
func (f *fakeAcker) Reject(_ uint64, _ bool) error { f.nacks++; return nil }

func delivery(t *testing.T, acker *fakeAcker, ev domain.ChangeEvent) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return amqp.Delivery{Acknowledger: acker, Body: body}
}

func TestConsumerAppliesEvent(t *testing.T) {
	store := &fakeStore{}
	inv := &fakeInvalidator{}
	c := New(store, inv, logger.New("consumer-test"))
	acker := &fakeAcker{}

	c.handle(context.Background(), delivery(t, acker, domain.ChangeEvent{
		EventID:    "e1",
		OrderID:    "o1",
		Kind:       domain.ChangeKindStage,
		Value:      "road",
		OccurredAt: time.Now().UTC(),
	}))

	if len(store.events) != 1 || store.events[0].OrderID != "o1" {
		t.Fatalf("view not updated: %+v", store.events)
	}
	if len(inv.ids) != 1 || inv.ids[0] != "o1" {
		t.Fatalf("cache not invalidated: %+v", inv.ids)
	}
	if acker.acks != 1 || acker.nacks != 0 {
		t.Fatalf("expected single ack, got acks=%d nacks=%d", acker.acks, acker.nacks)
	}
}

func TestConsumerDeadLettersMalformedPayload(t *testing.T) {
	store := &fakeStore{}
	c := New(store, &fakeInvalidator{}, logger.New("consumer-test"))
	acker := &fakeAcker{}

	c.handle(context.Background(), amqp.Delivery{Acknowledger: acker, Body: []byte("not json")})

	if len(store.events) != 0 {
		t.Fatal("malformed payload must not reach the store")
	}
	if acker.nacks != 1 || acker.requeued {
		t.Fatalf("expected nack without requeue, got nacks=%d requeued=%v", acker.nacks, acker.requeued)
	}
}

func TestConsumerRequeuesOnStoreFailure(t *testing.T) {
	store := &fakeStore{err: context.DeadlineExceeded}
	c := New(store, &fakeInvalidator{}, logger.New("consumer-test"))
	acker := &fakeAcker{}

	c.handle(context.Background(), delivery(t, acker, domain.ChangeEvent{OrderID: "o1", Kind: "stage", Value: "road"}))

	if acker.nacks != 1 || !acker.requeued {
		t.Fatalf("expected requeueing nack, got nacks=%d requeued=%v", acker.nacks, acker.requeued)
	}
}
