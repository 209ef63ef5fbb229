package interfaces

import (
	"github.com/iwtcode/linacService/internal/domain/entities"
)

// StateRepository определяет контракт хранилища записей общего состояния сценариев.
// Get возвращает gorm.ErrRecordNotFound, если записи нет.
type StateRepository interface {
	Get(scenarioID string) (*entities.SharedState, error)
	Save(state *entities.SharedState) error
	GetAll() ([]entities.SharedState, error)
}
