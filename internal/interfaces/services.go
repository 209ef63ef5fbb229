package interfaces

import (
	"github.com/iwtcode/linacService/internal/domain/models"
)

// LifecycleListener получает события консоли и экрана визуализации.
// Рендеринг и сбор данных исследования подписываются на них, ядро не знает, как они используются.
type LifecycleListener interface {
	OnScenarioStart(marker models.Marker)
	OnScenarioEnd(marker models.Marker)
	OnFieldSelected(index int)
	OnDeliveryProgress(fieldIndex int, deliveredMU float64, gantryDeg *float64)
	OnRecord(req models.RecordRequest)
}

// SharedStateStore - реплицируемое хранилище ключ-значение, общее для двух дисплеев сценария.
type SharedStateStore interface {
	Read(scenarioID string) (models.SharedScenarioState, bool)
	Write(scenarioID string, patch models.StatePatch, merge bool)
	Subscribe(scenarioID string, fn func(models.SharedScenarioState)) (unsubscribe func())
	List() []models.SharedScenarioState
}

// ScenarioLoader загружает запись сценария по имени файла.
type ScenarioLoader interface {
	Load(file string) (*models.ScenarioRecord, error)
	List() ([]string, error)
}
