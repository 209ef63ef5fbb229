package sharedstate

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/iwtcode/linacService/internal/adapters/repositories/memory"
	"github.com/iwtcode/linacService/internal/domain/entities"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/services/broadcast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	states []models.SharedScenarioState
}

func (c *collector) add(st models.SharedScenarioState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, st)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}

func (c *collector) last() models.SharedScenarioState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[len(c.states)-1]
}

func newPair(t *testing.T, interval time.Duration) (*Channel, *Channel, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	hub := broadcast.NewHub()
	a := NewChannel(repo, hub, logging.NewNop(), interval)
	b := NewChannel(repo, hub, logging.NewNop(), interval)
	a.Start()
	b.Start()
	t.Cleanup(func() {
		a.Stop()
		b.Stop()
		_ = hub.Close()
	})
	return a, b, repo
}

func TestReadMissing(t *testing.T) {
	ch := NewChannel(memory.NewRepository(), nil, logging.NewNop(), 0)
	st, ok := ch.Read("A2")
	require.False(t, ok)
	require.Equal(t, "A2", st.ScenarioID)
	require.Nil(t, st.CouchShift)
}

func TestWriteNotifiesLocalSubscribersSynchronously(t *testing.T) {
	ch := NewChannel(memory.NewRepository(), nil, logging.NewNop(), 0)
	got := &collector{}
	unsubscribe := ch.Subscribe("A2", got.add)

	ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Vertical: 0.3}), true)
	require.Equal(t, 1, got.len())
	require.Equal(t, 0.3, got.last().CouchShift.Vertical)

	unsubscribe()
	unsubscribe()
	ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Vertical: 0.5}), true)
	require.Equal(t, 1, got.len())
}

func TestWriteReachesOtherChannel(t *testing.T) {
	console, imaging, _ := newPair(t, 20*time.Millisecond)
	got := &collector{}
	console.Subscribe("A2", got.add)

	applied := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	imaging.Write("A2", models.NewPatch().
		WithCouchShift(models.CouchShift{Vertical: 0.3, Lateral: -0.2, Longitudinal: 1.1, Pitch: 0.5}).
		WithAppliedAt(&applied), true)

	require.Eventually(t, func() bool { return got.len() >= 1 }, time.Second, 5*time.Millisecond)
	st := got.last()
	require.Equal(t, "A2", st.ScenarioID)
	require.Equal(t, models.CouchShift{Vertical: 0.3, Lateral: -0.2, Longitudinal: 1.1, Pitch: 0.5}, *st.CouchShift)
	require.True(t, applied.Equal(*st.AppliedAt))

	read, ok := console.Read("A2")
	require.True(t, ok)
	require.Equal(t, st.CouchShift, read.CouchShift)
}

func TestMergePreservesOtherKeys(t *testing.T) {
	ch := NewChannel(memory.NewRepository(), nil, logging.NewNop(), 0)
	applied := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ch.Write("A2", models.NewPatch().WithAppliedAt(&applied).Set("note", "keep"), true)
	ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Pitch: 1}), true)

	st, ok := ch.Read("A2")
	require.True(t, ok)
	require.NotNil(t, st.AppliedAt)
	require.Equal(t, 1.0, st.CouchShift.Pitch)
	require.JSONEq(t, `"keep"`, string(st.Record["note"]))

	// без merge запись заменяется целиком
	ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Lateral: 2}), false)
	st, _ = ch.Read("A2")
	require.Nil(t, st.AppliedAt)
	_, hasNote := st.Record["note"]
	require.False(t, hasNote)
	require.JSONEq(t, `"A2"`, string(st.Record[models.KeyScenarioID]))
}

func TestPersistFailureKeepsStateInMemory(t *testing.T) {
	repo := memory.NewRepository()
	ch := NewChannel(repo, nil, logging.NewNop(), 0)
	got := &collector{}
	ch.Subscribe("A2", got.add)

	repo.SetFailing(true)
	ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Vertical: 0.7}), true)
	require.Equal(t, 1, got.len())

	st, ok := ch.Read("A2")
	require.True(t, ok)
	require.Equal(t, 0.7, st.CouchShift.Vertical)

	// опрос не затирает несохраненную запись
	ch.poller.Tick()
	st, _ = ch.Read("A2")
	require.Equal(t, 0.7, st.CouchShift.Vertical)

	repo.SetFailing(false)
	ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Vertical: 0.9}), true)
	entity, err := repo.Get("A2")
	require.NoError(t, err)
	var stored map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(entity.Payload), &stored))
	require.Contains(t, string(stored[models.KeyCouchShift]), "0.9")
}

// preciseClockRepo возвращает из Save время с наносекундами, а хранит микросекунды, как timestamptz
type preciseClockRepo struct {
	*memory.Repository
}

func (r preciseClockRepo) Save(state *entities.SharedState) error {
	if err := r.Repository.Save(state); err != nil {
		return err
	}
	state.UpdatedAt = state.UpdatedAt.Add(321 * time.Nanosecond)
	return nil
}

func TestRevisionComparedAtStoragePrecision(t *testing.T) {
	repo := preciseClockRepo{memory.NewRepository()}
	ch := NewChannel(repo, nil, logging.NewNop(), 0)
	got := &collector{}
	ch.Subscribe("A2", got.add)

	ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Vertical: 0.5}), true)
	repo.SetFailing(true)
	ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Vertical: 0.9}), true)
	require.Equal(t, 2, got.len())

	ch.poller.Tick()
	require.Equal(t, 2, got.len())
	st, ok := ch.Read("A2")
	require.True(t, ok)
	assert.Equal(t, 0.9, st.CouchShift.Vertical)
}

func TestPollerPicksUpExternalWrites(t *testing.T) {
	repo := memory.NewRepository()
	ch := NewChannel(repo, broadcast.Nop{}, logging.NewNop(), 0)
	got := &collector{}
	ch.Subscribe("A2", got.add)

	ch.poller.Tick()
	require.Zero(t, got.len())

	require.NoError(t, repo.Save(&entities.SharedState{
		ScenarioID: "A2",
		Payload:    `{"scenarioId":"A2","couchShift":{"vertical":"0.4","lateral":0,"longitudinal":0,"pitch":0},"appliedAtTimestamp":null}`,
		Origin:     "other-process",
	}))
	ch.poller.Tick()
	require.Equal(t, 1, got.len())
	assert.Equal(t, 0.4, got.last().CouchShift.Vertical)

	// ревизия не изменилась - повторного уведомления нет
	ch.poller.Tick()
	require.Equal(t, 1, got.len())
}

func TestPollerGoroutineLifecycle(t *testing.T) {
	ch := NewChannel(memory.NewRepository(), nil, logging.NewNop(), 10*time.Millisecond)
	ch.Start()
	require.True(t, ch.poller.IsActive())
	ch.Stop()
	require.False(t, ch.poller.IsActive())
}

func TestOwnNoticesIgnored(t *testing.T) {
	repo := memory.NewRepository()
	hub := broadcast.NewHub()
	ch := NewChannel(repo, hub, logging.NewNop(), 0)
	got := &collector{}
	ch.Subscribe("A2", got.add)

	ch.handleNotice(models.StateNotice{Type: models.NoticeTypeState, ScenarioID: "A2", Origin: ch.Origin()})
	require.Zero(t, got.len())
}

func TestSubscriberPanicDoesNotBlockOthers(t *testing.T) {
	ch := NewChannel(memory.NewRepository(), nil, logging.NewNop(), 0)
	got := &collector{}
	ch.Subscribe("A2", func(models.SharedScenarioState) { panic("boom") })
	ch.Subscribe("A2", got.add)

	require.NotPanics(t, func() {
		ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{}), true)
	})
	require.Equal(t, 1, got.len())
}

func TestConcurrentMergeWritesKeepAllKeys(t *testing.T) {
	ch := NewChannel(memory.NewRepository(), nil, logging.NewNop(), 0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch.Write("A2", models.NewPatch().Set(string(rune('a'+i)), i), true)
		}(i)
	}
	wg.Wait()

	st, ok := ch.Read("A2")
	require.True(t, ok)
	// 20 ключей + scenarioId
	require.Len(t, st.Record, 21)
}

func TestListIncludesUnsavedRecords(t *testing.T) {
	repo := memory.NewRepository()
	ch := NewChannel(repo, nil, logging.NewNop(), 0)
	ch.Write("A1", models.NewPatch(), true)
	repo.SetFailing(true)
	ch.Write("B2", models.NewPatch(), true)

	ids := []string{}
	for _, st := range ch.List() {
		ids = append(ids, st.ScenarioID)
	}
	require.ElementsMatch(t, []string{"A1", "B2"}, ids)
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	hub := broadcast.NewHub()
	require.NoError(t, hub.Close())
	ch := NewChannel(memory.NewRepository(), hub, logging.NewNop(), 0)
	require.NotPanics(t, func() {
		ch.Write("A2", models.NewPatch().WithCouchShift(models.CouchShift{Lateral: 1}), true)
	})
	st, ok := ch.Read("A2")
	require.True(t, ok)
	require.Equal(t, 1.0, st.CouchShift.Lateral)
}
