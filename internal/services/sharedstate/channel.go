package sharedstate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwtcode/linacService/internal/domain/entities"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"gorm.io/gorm"
)

const publishTimeout = 2 * time.Second

// Channel - общее состояние сценариев между консолью и экраном визуализации.
// Запись сохраняется в StateRepository и объявляется через Broadcaster;
// поллер подхватывает изменения, если уведомление потерялось или шина отключена.
type Channel struct {
	repo   interfaces.StateRepository
	bus    interfaces.Broadcaster
	logger *logging.Logger
	origin string

	// writeMu сериализует цикл чтение-изменение-запись
	writeMu sync.Mutex

	mu        sync.RWMutex
	overlay   map[string]models.StateRecord
	revisions map[string]time.Time
	subs      map[string]map[int]func(models.SharedScenarioState)
	nextSub   int

	poller       *Poller
	cancelListen context.CancelFunc
	listenDone   chan struct{}
}

var _ interfaces.SharedStateStore = (*Channel)(nil)

func NewChannel(repo interfaces.StateRepository, bus interfaces.Broadcaster, logger *logging.Logger, pollInterval time.Duration) *Channel {
	c := &Channel{
		repo:      repo,
		bus:       bus,
		logger:    logger.WithPrefix("SHARED-STATE"),
		origin:    uuid.NewString(),
		overlay:   make(map[string]models.StateRecord),
		revisions: make(map[string]time.Time),
		subs:      make(map[string]map[int]func(models.SharedScenarioState)),
	}
	c.poller = NewPoller(c, pollInterval, logger)
	return c
}

// Origin - идентификатор этого канала в уведомлениях
func (c *Channel) Origin() string {
	return c.origin
}

// Start запускает чтение широковещательных уведомлений и поллер хранилища.
func (c *Channel) Start() {
	c.mu.Lock()
	if c.cancelListen != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelListen = cancel
	c.listenDone = make(chan struct{})
	c.mu.Unlock()

	if c.bus != nil {
		go func() {
			defer close(c.listenDone)
			if err := c.bus.Listen(ctx, c.handleNotice); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("Broadcast listener stopped", "error", err)
			}
		}()
	} else {
		close(c.listenDone)
	}
	c.poller.Start()
}

// Stop останавливает слушателя и поллер. Подписки сохраняются.
func (c *Channel) Stop() {
	c.mu.Lock()
	cancel, done := c.cancelListen, c.listenDone
	c.cancelListen = nil
	c.mu.Unlock()

	c.poller.Stop()
	if cancel != nil {
		cancel()
		<-done
	}
}

// Read возвращает текущую запись сценария. Ошибки хранилища трактуются как отсутствие записи.
func (c *Channel) Read(scenarioID string) (models.SharedScenarioState, bool) {
	record, _, ok := c.load(scenarioID)
	if !ok {
		return models.SharedScenarioState{ScenarioID: scenarioID}, false
	}
	return record.Decode(scenarioID), true
}

// List возвращает все сохраненные записи
func (c *Channel) List() []models.SharedScenarioState {
	states, err := c.repo.GetAll()
	if err != nil {
		c.logger.Error("Failed to list shared states", "error", err)
		states = nil
	}
	seen := make(map[string]struct{}, len(states))
	out := make([]models.SharedScenarioState, 0, len(states))
	for _, s := range states {
		seen[s.ScenarioID] = struct{}{}
		if st, ok := c.Read(s.ScenarioID); ok {
			out = append(out, st)
		}
	}
	c.mu.RLock()
	for id, rec := range c.overlay {
		if _, ok := seen[id]; !ok {
			out = append(out, rec.Decode(id))
		}
	}
	c.mu.RUnlock()
	return out
}

// Write применяет патч к записи сценария (merge - поверхностное слияние, иначе замена).
// Ошибки хранилища и шины логируются; запись при этом остается в памяти процесса.
func (c *Channel) Write(scenarioID string, patch models.StatePatch, merge bool) {
	if scenarioID == "" {
		c.logger.Warn("Write without scenario id ignored")
		return
	}

	c.writeMu.Lock()
	current, _, _ := c.load(scenarioID)
	next := current.Apply(patch, merge)
	if raw, err := json.Marshal(scenarioID); err == nil {
		next[models.KeyScenarioID] = raw
	}
	c.persist(scenarioID, next)
	c.writeMu.Unlock()

	c.publish(scenarioID)
	c.emit(scenarioID, next.Decode(scenarioID))
}

// Subscribe регистрирует обработчик изменений сценария. Возвращает функцию отписки.
func (c *Channel) Subscribe(scenarioID string, fn func(models.SharedScenarioState)) func() {
	if fn == nil {
		return func() {}
	}

	_, rev, _ := c.load(scenarioID)
	rev = revision(rev)

	c.mu.Lock()
	if _, ok := c.subs[scenarioID]; !ok {
		c.subs[scenarioID] = make(map[int]func(models.SharedScenarioState))
		if _, known := c.revisions[scenarioID]; !known && !rev.IsZero() {
			c.revisions[scenarioID] = rev
		}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[scenarioID][id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs[scenarioID], id)
			if len(c.subs[scenarioID]) == 0 {
				delete(c.subs, scenarioID)
			}
		})
	}
}

// subscribed возвращает сценарии, у которых есть подписчики
func (c *Channel) subscribed() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	return ids
}

// load читает запись: сначала из памяти (несохраненная запись), затем из хранилища.
func (c *Channel) load(scenarioID string) (models.StateRecord, time.Time, bool) {
	c.mu.RLock()
	if rec, ok := c.overlay[scenarioID]; ok {
		c.mu.RUnlock()
		return rec.Clone(), time.Time{}, true
	}
	c.mu.RUnlock()

	entity, err := c.repo.Get(scenarioID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logger.Error("Failed to read shared state", "scenario", scenarioID, "error", err)
		}
		return models.StateRecord{}, time.Time{}, false
	}
	return decodePayload(c.logger, entity), entity.UpdatedAt, true
}

func decodePayload(logger *logging.Logger, entity *entities.SharedState) models.StateRecord {
	record := models.StateRecord{}
	if entity.Payload == "" {
		return record
	}
	if err := json.Unmarshal([]byte(entity.Payload), &record); err != nil {
		logger.Warn("Corrupt shared state payload, treating as empty", "scenario", entity.ScenarioID, "error", err)
		return models.StateRecord{}
	}
	if record == nil {
		record = models.StateRecord{}
	}
	return record
}

func (c *Channel) persist(scenarioID string, record models.StateRecord) {
	payload, err := json.Marshal(record)
	if err == nil {
		entity := &entities.SharedState{
			ScenarioID: scenarioID,
			Payload:    string(payload),
			Origin:     c.origin,
		}
		if err = c.repo.Save(entity); err == nil {
			c.mu.Lock()
			delete(c.overlay, scenarioID)
			c.revisions[scenarioID] = revision(entity.UpdatedAt)
			c.mu.Unlock()
			return
		}
	}

	c.logger.Warn("Failed to persist shared state, keeping it in memory", "scenario", scenarioID, "error", err)
	c.mu.Lock()
	c.overlay[scenarioID] = record.Clone()
	c.mu.Unlock()
}

// revision приводит время изменения записи к точности timestamptz,
// иначе значение из Save и перечитанное из БД не совпадают
func revision(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

func (c *Channel) publish(scenarioID string) {
	if c.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err := c.bus.Publish(ctx, models.StateNotice{
		Type:       models.NoticeTypeState,
		ScenarioID: scenarioID,
		Origin:     c.origin,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn("Failed to broadcast state notice", "scenario", scenarioID, "error", err)
	}
}

func (c *Channel) handleNotice(n models.StateNotice) {
	if n.Origin == c.origin {
		return
	}
	c.mu.RLock()
	_, watched := c.subs[n.ScenarioID]
	c.mu.RUnlock()
	if !watched {
		return
	}
	c.logger.Debug("State notice received", "scenario", n.ScenarioID, "origin", n.Origin)
	c.refresh(n.ScenarioID, true)
}

// refresh перечитывает запись из хранилища и уведомляет подписчиков.
// Без force уведомление отправляется только при смене ревизии.
func (c *Channel) refresh(scenarioID string, force bool) {
	entity, err := c.repo.Get(scenarioID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logger.Error("Failed to refresh shared state", "scenario", scenarioID, "error", err)
		}
		return
	}

	rev := revision(entity.UpdatedAt)

	c.mu.Lock()
	prev, known := c.revisions[scenarioID]
	_, unsaved := c.overlay[scenarioID]
	c.revisions[scenarioID] = rev
	if !known && unsaved {
		c.mu.Unlock()
		return
	}
	changed := !known || !prev.Equal(rev)
	// запись другого дисплея вытесняет несохраненную локальную
	if changed {
		delete(c.overlay, scenarioID)
	}
	c.mu.Unlock()

	if !changed && !force {
		return
	}
	c.emit(scenarioID, decodePayload(c.logger, entity).Decode(scenarioID))
}

func (c *Channel) emit(scenarioID string, state models.SharedScenarioState) {
	c.mu.RLock()
	handlers := make([]func(models.SharedScenarioState), 0, len(c.subs[scenarioID]))
	for _, fn := range c.subs[scenarioID] {
		handlers = append(handlers, fn)
	}
	c.mu.RUnlock()

	for _, fn := range handlers {
		c.safeCall(scenarioID, fn, state)
	}
}

func (c *Channel) safeCall(scenarioID string, fn func(models.SharedScenarioState), state models.SharedScenarioState) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Shared state subscriber panicked", "scenario", scenarioID, "panic", r)
		}
	}()
	fn(state)
}
