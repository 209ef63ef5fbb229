package entities

import "time"

// SharedState - сохраненная запись общего состояния сценария.
// Payload хранит JSON-объект записи целиком (couchShift, appliedAtTimestamp и т.д.).
type SharedState struct {
	ScenarioID string    `gorm:"primaryKey;not null" json:"scenario_id"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Origin     string    `json:"origin"` // какой дисплей записал последним
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName фиксирует имя таблицы
func (SharedState) TableName() string {
	return "shared_states"
}
