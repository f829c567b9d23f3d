package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// fakeRedisClient records published payloads and lets tests inject inbound
// Pub/Sub messages.
type fakeRedisClient struct {
	mu        sync.Mutex
	published []string
	messages  chan RedisMessage
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{messages: make(chan RedisMessage, 16)}
}

func (f *fakeRedisClient) Publish(_ context.Context, _ string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, message.(string))
	return nil
}

func (f *fakeRedisClient) Subscribe(_ context.Context, _ ...string) (<-chan RedisMessage, error) {
	return f.messages, nil
}

func (f *fakeRedisClient) Close() error { return nil }

func (f *fakeRedisClient) lastPublished(t *testing.T) eventEnvelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.published)

	var env eventEnvelope
	require.NoError(t, json.Unmarshal([]byte(f.published[len(f.published)-1]), &env))
	return env
}

func syncBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{AsyncMode: false, WorkerPoolSize: 1}
}

// ─────────────────────────────────────────────────────────────────────────────
// InMemoryEventBus
// ─────────────────────────────────────────────────────────────────────────────

func TestInMemoryEventBus_DeliversToSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	var got []shared.Event
	err := bus.Subscribe(shared.EventPathUnlocked, func(e shared.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewPathUnlockedEvent("learner-1", "intro")
	require.NoError(t, bus.Publish(event))

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventPathUnlocked, got[0].EventType())
	assert.Equal(t, "intro", got[0].Payload()["path_id"])

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(1), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}

func TestInMemoryEventBus_IgnoresUnrelatedEventTypes(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventTierPromoted, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPathUnlockedEvent("learner-1", "intro")))
	assert.Zero(t, calls)
}

// ─────────────────────────────────────────────────────────────────────────────
// RedisEventBus
// ─────────────────────────────────────────────────────────────────────────────

func newTestRedisBus(t *testing.T, client *fakeRedisClient) *RedisEventBus {
	t.Helper()
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "instance-a",
		LocalBusConfig: syncBusConfig(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestRedisEventBus_PublishesEnvelopeAndLocal(t *testing.T) {
	client := newFakeRedisClient()
	bus := newTestRedisBus(t, client)

	local := 0
	require.NoError(t, bus.Subscribe(shared.EventPathUnlocked, func(shared.Event) error {
		local++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPathUnlockedEvent("learner-1", "intro")))

	assert.Equal(t, 1, local, "local handlers run alongside the redis publish")

	env := client.lastPublished(t)
	assert.Equal(t, "instance-a", env.InstanceID)
	assert.Equal(t, shared.EventPathUnlocked, env.EventType)
	assert.Equal(t, "intro", env.Payload["path_id"])

	assert.Equal(t, int64(1), bus.Metrics().Snapshot().TotalPublished)
}

func TestRedisEventBus_DeliversRemoteEvents(t *testing.T) {
	client := newFakeRedisClient()
	bus := newTestRedisBus(t, client)

	received := make(chan shared.Event, 1)
	require.NoError(t, bus.Subscribe(shared.EventTierPromoted, func(e shared.Event) error {
		received <- e
		return nil
	}))

	payload, err := json.Marshal(eventEnvelope{
		InstanceID:  "instance-b",
		EventType:   shared.EventTierPromoted,
		AggregateID: "learner-2",
		OccurredAt:  time.Now().UTC(),
		Payload:     map[string]interface{}{"new_tier": "intermediate"},
	})
	require.NoError(t, err)
	client.messages <- RedisMessage{Channel: "hardwarehub:events", Payload: string(payload)}

	select {
	case e := <-received:
		assert.Equal(t, "learner-2", e.AggregateID())
		assert.Equal(t, "intermediate", e.Payload()["new_tier"])
	case <-time.After(2 * time.Second):
		t.Fatal("remote event was never delivered")
	}
}

func TestRedisEventBus_SkipsOwnMessages(t *testing.T) {
	// Своё сообщение уже обработано локально при Publish: получив его
	// обратно из Redis, шина обязана отбросить его, иначе обработчики
	// сработают дважды.
	client := newFakeRedisClient()
	bus := newTestRedisBus(t, client)

	received := make(chan shared.Event, 2)
	require.NoError(t, bus.Subscribe(shared.EventTierPromoted, func(e shared.Event) error {
		received <- e
		return nil
	}))

	own, err := json.Marshal(eventEnvelope{
		InstanceID: "instance-a",
		EventType:  shared.EventTierPromoted,
	})
	require.NoError(t, err)
	remote, err := json.Marshal(eventEnvelope{
		InstanceID:  "instance-b",
		EventType:   shared.EventTierPromoted,
		AggregateID: "learner-3",
	})
	require.NoError(t, err)

	client.messages <- RedisMessage{Payload: string(own)}
	client.messages <- RedisMessage{Payload: string(remote)}

	select {
	case e := <-received:
		assert.Equal(t, "learner-3", e.AggregateID(), "only the remote event passes the self-filter")
	case <-time.After(2 * time.Second):
		t.Fatal("remote event was never delivered")
	}
	assert.Empty(t, received)
}
