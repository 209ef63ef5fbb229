package memory

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iwtcode/linacService/internal/domain/entities"
	"github.com/iwtcode/linacService/internal/interfaces"
	"gorm.io/gorm"
)

// ErrUnavailable возвращается Save, пока хранилище переведено в режим отказа
var ErrUnavailable = errors.New("хранилище недоступно")

// Repository - хранилище общего состояния в памяти процесса.
// Используется в режиме STORE_DRIVER=memory и в тестах.
type Repository struct {
	mu      sync.RWMutex
	states  map[string]entities.SharedState
	failing bool
	now     func() time.Time
}

var _ interfaces.StateRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{
		states: make(map[string]entities.SharedState),
		now:    time.Now,
	}
}

// Get повторяет поведение gorm: отсутствующая запись - gorm.ErrRecordNotFound
func (r *Repository) Get(scenarioID string) (*entities.SharedState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.states[scenarioID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &state, nil
}

func (r *Repository) Save(state *entities.SharedState) error {
	if state == nil {
		return errors.New("пустая запись состояния")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return ErrUnavailable
	}

	// точность как у timestamptz в postgres
	now := r.now().Truncate(time.Microsecond)
	stored := *state
	if prev, ok := r.states[state.ScenarioID]; ok {
		stored.CreatedAt = prev.CreatedAt
		// ревизия должна меняться при каждой записи, даже в пределах одного тика часов
		if !now.After(prev.UpdatedAt) {
			now = prev.UpdatedAt.Add(time.Microsecond)
		}
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.states[state.ScenarioID] = stored

	state.CreatedAt = stored.CreatedAt
	state.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *Repository) GetAll() ([]entities.SharedState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.SharedState, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScenarioID < out[j].ScenarioID })
	return out, nil
}

// SetFailing переводит Save в режим отказа (имитация переполненного хранилища)
func (r *Repository) SetFailing(failing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = failing
}
