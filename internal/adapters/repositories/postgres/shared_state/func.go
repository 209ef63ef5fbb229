package shared_state

import (
	"time"

	"github.com/iwtcode/linacService/internal/domain/entities"
	"gorm.io/gorm/clause"
)

func (r *SharedStateRepositoryImpl) Get(scenarioID string) (*entities.SharedState, error) {
	var state entities.SharedState
	err := r.db.Where("scenario_id = ?", scenarioID).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Save вставляет запись или перезаписывает payload существующей (upsert по scenario_id).
// UpdatedAt задается заранее с точностью timestamptz, чтобы в entity осталась сохраненная ревизия.
func (r *SharedStateRepositoryImpl) Save(state *entities.SharedState) error {
	state.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scenario_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "origin", "updated_at"}),
	}).Create(state).Error
}

// GetAll возвращает все сохраненные записи сценариев
func (r *SharedStateRepositoryImpl) GetAll() ([]entities.SharedState, error) {
	var states []entities.SharedState
	if err := r.db.Order("scenario_id").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}
