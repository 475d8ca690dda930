package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/config"
	"github.com/RobLun72/HouseProject-sub002/pkg/db/models"
	"github.com/RobLun72/HouseProject-sub002/pkg/enums"
	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/payloads"
	"github.com/RobLun72/HouseProject-sub002/pkg/outbox/registry"
)

func TestServiceProcessBatchPublishesWithOrderingKey(t *testing.T) {
	event := models.OutboxEvent{
		ID:            1,
		EventType:     enums.EventHouseCreated,
		AggregateType: enums.AggregateHouse,
		AggregateID:   42,
		EventData:     mustEnvelopePayload(t),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub, &fakeRegistry{}, &fakeDLQRepo{}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.published); got != 1 || repo.published[0] != event.ID {
		t.Fatalf("unexpected published rows: %v", repo.published)
	}
	if got := len(pub.messages); got != 1 {
		t.Fatalf("unexpected number of published messages: %d", got)
	}
	msg := pub.messages[0]
	if msg.OrderingKey != "house/42" {
		t.Fatalf("unexpected ordering key: %q", msg.OrderingKey)
	}
	if msg.Attributes["event_type"] != "house_created" {
		t.Fatalf("unexpected event_type attribute: %q", msg.Attributes["event_type"])
	}
	if msg.Attributes["aggregate_id"] != "42" {
		t.Fatalf("unexpected aggregate_id attribute: %q", msg.Attributes["aggregate_id"])
	}
	if !bytes.Equal(msg.Data, event.EventData) {
		t.Fatalf("published payload does not match outbox row")
	}
}

func TestServiceProcessBatchSchedulesRetryAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:            1,
				EventType:     enums.EventRoomUpdated,
				AggregateType: enums.AggregateRoom,
				AggregateID:   7,
				EventData:     mustEnvelopePayload(t),
				RetryCount:    1,
			},
			{
				ID:            2,
				EventType:     enums.EventRoomUpdated,
				AggregateType: enums.AggregateRoom,
				AggregateID:   8,
				EventData:     mustEnvelopePayload(t),
			},
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	service := newTestService(t, repo, pub, &fakeRegistry{}, &fakeDLQRepo{}, nil)
	frozen := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return frozen }

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if repo.failed[0].id != 1 {
		t.Fatalf("failed row recorded wrong ID: %d", repo.failed[0].id)
	}
	// Attempt two of the default policy backs off 2s.
	if want := frozen.Add(2 * time.Second); !repo.failed[0].nextAttemptAt.Equal(want) {
		t.Fatalf("unexpected next attempt: got %s want %s", repo.failed[0].nextAttemptAt, want)
	}
	if got := len(repo.published); got != 1 || repo.published[0] != 2 {
		t.Fatalf("unexpected published rows: %v", repo.published)
	}
}

func TestServiceProcessBatchWritesDLQOnMaxAttempts(t *testing.T) {
	event := models.OutboxEvent{
		ID:            3,
		EventType:     enums.EventHouseUpdated,
		AggregateType: enums.AggregateHouse,
		AggregateID:   42,
		EventData:     mustEnvelopePayload(t),
		RetryCount:    1,
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{
		results: []publishResult{fakePublishResult{err: errors.New("transient")}},
	}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, pub, &fakeRegistry{}, dlqRepo, &config.OutboxConfig{
		BatchSize:   1,
		MaxAttempts: 2,
	})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != event.ID {
		t.Fatalf("dlq event_id mismatch: %d", entry.EventID)
	}
	if entry.ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
	if !bytes.Equal(entry.EventData, event.EventData) {
		t.Fatalf("dlq payload mismatch")
	}
	if got := len(repo.terminal); got != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row marked terminal, got %v", repo.terminal)
	}
}

func TestServiceProcessBatchWritesDLQOnResolveFailure(t *testing.T) {
	event := models.OutboxEvent{
		ID:            4,
		EventType:     enums.OutboxEventType("bogus"),
		AggregateType: enums.AggregateHouse,
		AggregateID:   42,
		EventData:     json.RawMessage(`{}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	eventRegistry := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("unknown event type"))}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, &fakePublisher{}, eventRegistry, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	if dlqRepo.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", dlqRepo.entries[0].ErrorReason)
	}
}

func TestServiceProcessBatchStopsWhenKillSwitchEngages(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{ID: 1, EventType: enums.EventHouseCreated, AggregateType: enums.AggregateHouse, AggregateID: 1, EventData: mustEnvelopePayload(t)},
			{ID: 2, EventType: enums.EventHouseCreated, AggregateType: enums.AggregateHouse, AggregateID: 2, EventData: mustEnvelopePayload(t)},
			{ID: 3, EventType: enums.EventHouseCreated, AggregateType: enums.AggregateHouse, AggregateID: 3, EventData: mustEnvelopePayload(t)},
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("broker down")},
			fakePublishResult{err: errors.New("broker down")},
			fakePublishResult{},
		},
	}
	service := newTestService(t, repo, pub, &fakeRegistry{}, &fakeDLQRepo{}, &config.OutboxConfig{
		BatchSize:           10,
		MaxAttempts:         5,
		KillSwitchThreshold: 2,
		KillSwitchWindow:    time.Minute,
		KillSwitchCooldown:  time.Minute,
	})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(pub.messages); got != 2 {
		t.Fatalf("expected publishing to stop after the trip, attempted %d", got)
	}
	if len(repo.published) != 0 {
		t.Fatalf("no rows should be marked published: %v", repo.published)
	}
	if !service.killSwitch.Engaged() {
		t.Fatalf("expected kill switch engaged")
	}
	if service.killSwitch.Allow() {
		t.Fatalf("expected publishing disallowed during cooldown")
	}
}

func TestNewServiceValidatesParams(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "outbox-relay-test", Output: io.Discard})
	_, err := NewService(ServiceParams{
		Config: &config.Config{},
		Logger: logg,
		DB:     &fakeDB{},
		PubSub: &fakePubSubClient{},
	})
	if err == nil {
		t.Fatalf("expected error for missing repository")
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, eventRegistry registryResolver, dlq dlqRepository, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      10,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	cfg := &config.Config{Outbox: outboxCfg}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-relay-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           logg,
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         eventRegistry,
		PublisherFactory: func(_ string) publisher { return pub },
		DLQRepository:    dlq,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func mustEnvelopePayload(tb testing.TB) json.RawMessage {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type failedMark struct {
	id            int64
	nextAttemptAt time.Time
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []int64
	failed    []failedMark
	terminal  []int64
	pending   int64
}

func (f *fakeRepo) FetchDueTx(tx *gorm.DB, limit, maxAttempts int, now time.Time) ([]models.OutboxEvent, error) {
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id int64) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id int64, err error, nextAttemptAt time.Time) error {
	f.failed = append(f.failed, failedMark{id: id, nextAttemptAt: nextAttemptAt})
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id int64, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

func (f *fakeRepo) CountPending() (int64, error) {
	return f.pending, nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error {
	return nil
}

func (f *fakePubSubClient) OrderedPublisher(string) *gcppubsub.Publisher {
	return nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

type fakeRegistry struct {
	err error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var env outbox.PayloadEnvelope
	if err := json.Unmarshal(event.EventData, &env); err != nil {
		return nil, registry.NewNonRetryableError(err)
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			Topic:         "housesync-domain-events",
		},
		Envelope:    env,
		Payload:     &payloads.HouseSnapshotEvent{},
		OrderingKey: fmt.Sprintf("%s/%d", event.AggregateType, event.AggregateID),
	}, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
