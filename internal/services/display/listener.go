package display

import (
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
)

// NopListener игнорирует события жизненного цикла
type NopListener struct{}

var _ interfaces.LifecycleListener = NopListener{}

func (NopListener) OnScenarioStart(models.Marker) {}
func (NopListener) OnScenarioEnd(models.Marker) {}
func (NopListener) OnFieldSelected(int) {}
func (NopListener) OnDeliveryProgress(int, float64, *float64) {}
func (NopListener) OnRecord(models.RecordRequest) {}

// Listeners рассылает события нескольким слушателям по порядку
type Listeners []interfaces.LifecycleListener

var _ interfaces.LifecycleListener = Listeners(nil)

func (ls Listeners) OnScenarioStart(m models.Marker) {
	for _, l := range ls {
		l.OnScenarioStart(m)
	}
}

func (ls Listeners) OnScenarioEnd(m models.Marker) {
	for _, l := range ls {
		l.OnScenarioEnd(m)
	}
}

func (ls Listeners) OnFieldSelected(index int) {
	for _, l := range ls {
		l.OnFieldSelected(index)
	}
}

func (ls Listeners) OnDeliveryProgress(index int, deliveredMU float64, gantryDeg *float64) {
	for _, l := range ls {
		l.OnDeliveryProgress(index, deliveredMU, gantryDeg)
	}
}

func (ls Listeners) OnRecord(req models.RecordRequest) {
	for _, l := range ls {
		l.OnRecord(req)
	}
}
