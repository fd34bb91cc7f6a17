package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/pkg/logger"
	"github.com/dentalbuddy/clinic-api/pkg/messaging"
	"github.com/dentalbuddy/clinic-api/pkg/metrics"
)

// stubOutboxRepo mirrors the transactional claim: every claimed event
// ends the call marked processed or failed.
type stubOutboxRepo struct {
	mu      sync.Mutex
	pending []*model.OutboxEvent
	status  map[uuid.UUID]model.OutboxStatus
}

func newStubOutboxRepo(events ...*model.OutboxEvent) *stubOutboxRepo {
	return &stubOutboxRepo{pending: events, status: make(map[uuid.UUID]model.OutboxStatus)}
}

func (r *stubOutboxRepo) ClaimPending(_ context.Context, limit int, _ time.Duration, handle func(event *model.OutboxEvent) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := r.pending
	if len(batch) > limit {
		batch = batch[:limit]
	}
	for _, event := range batch {
		if err := handle(event); err != nil {
			r.status[event.ID] = model.OutboxStatusFailed
			continue
		}
		r.status[event.ID] = model.OutboxStatusProcessed
	}
	return nil
}

func (r *stubOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type flakyBroker struct {
	mu        sync.Mutex
	failures  int
	published []messaging.Message
}

func (b *flakyBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
		return errors.New("broker unavailable")
	}
	if msg, ok := message.(messaging.Message); ok {
		b.published = append(b.published, msg)
	}
	return nil
}

func (b *flakyBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *flakyBroker) Close() error { return nil }

var metricsOnce sync.Once
var sharedMetrics *metrics.Metrics

func testMetrics() *metrics.Metrics {
	metricsOnce.Do(func() { sharedMetrics = metrics.New("outbox_test") })
	return sharedMetrics
}

func newTestProcessor(repo *stubOutboxRepo, broker *flakyBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), testMetrics())
}

func event(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{}`),
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
	}
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	invoiceCreated := event(model.EventInvoiceCreated)
	paymentRecorded := event(model.EventPaymentRecorded)
	repo := newStubOutboxRepo(invoiceCreated, paymentRecorded)
	broker := &flakyBroker{}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 2)
	assert.Equal(t, model.EventInvoiceCreated, broker.published[0].Type)
	assert.Equal(t, model.EventPaymentRecorded, broker.published[1].Type)
	assert.Equal(t, model.OutboxStatusProcessed, repo.status[invoiceCreated.ID])
	assert.Equal(t, model.OutboxStatusProcessed, repo.status[paymentRecorded.ID])
}

func TestProcessEventsWrapsPayloadInEnvelope(t *testing.T) {
	evt := event(model.EventPaymentRecorded)
	evt.Payload = []byte(`{"amount":"500"}`)
	repo := newStubOutboxRepo(evt)
	broker := &flakyBroker{}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 1)
	assert.Equal(t, model.EventPaymentRecorded, broker.published[0].Type)
	assert.JSONEq(t, `{"amount":"500"}`, string(broker.published[0].Payload))
}

func TestProcessEventRetriesTransientFailure(t *testing.T) {
	evt := event(model.EventInvoiceCreated)
	repo := newStubOutboxRepo(evt)
	broker := &flakyBroker{failures: 2}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Len(t, broker.published, 1)
	assert.Equal(t, model.OutboxStatusProcessed, repo.status[evt.ID])
}

func TestProcessEventMarksFailedAfterRetries(t *testing.T) {
	evt := event(model.EventPaymentRecorded)
	repo := newStubOutboxRepo(evt)
	broker := &flakyBroker{failures: 100}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, broker.published)
	assert.Equal(t, model.OutboxStatusFailed, repo.status[evt.ID])
}
