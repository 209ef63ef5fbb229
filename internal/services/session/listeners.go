package session

import (
	"context"
	"time"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/services/kafka"
)

const studyPublishTimeout = 5 * time.Second

// hubListener переводит события консоли в события WebSocket
type hubListener struct {
	hub *Hub
}

func (l hubListener) OnScenarioStart(m models.Marker) { l.hub.Publish(EventScenarioStart, m) }

func (l hubListener) OnScenarioEnd(m models.Marker) { l.hub.Publish(EventScenarioEnd, m) }

func (l hubListener) OnFieldSelected(index int) {
	l.hub.Publish(EventFieldSelected, map[string]int{"index": index})
}

func (l hubListener) OnDeliveryProgress(index int, deliveredMU float64, gantryDeg *float64) {
	l.hub.Publish(EventProgress, struct {
		Index       int      `json:"index"`
		DeliveredMU float64  `json:"delivered_mu"`
		GantryDeg   *float64 `json:"gantry_deg,omitempty"`
	}{index, deliveredMU, gantryDeg})
}

func (l hubListener) OnRecord(req models.RecordRequest) { l.hub.Publish(EventRecord, req) }

// studyListener передает отметки сценария и Record в модуль сбора данных исследования.
// Отправка идет в фоне, ошибки только логируются.
type studyListener struct {
	sink   interfaces.StudySink
	logger *logging.Logger
}

func (l studyListener) OnScenarioStart(m models.Marker) {
	l.send(kafka.EventScenarioStart, m.ScenarioID, m)
}

func (l studyListener) OnScenarioEnd(m models.Marker) {
	l.send(kafka.EventScenarioEnd, m.ScenarioID, m)
}

func (l studyListener) OnFieldSelected(int) {}

func (l studyListener) OnDeliveryProgress(int, float64, *float64) {}

func (l studyListener) OnRecord(req models.RecordRequest) {
	l.send(kafka.EventRecord, req.ScenarioID, req)
}

func (l studyListener) send(eventType, scenarioID string, payload interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), studyPublishTimeout)
		defer cancel()
		if err := l.sink.Publish(ctx, eventType, scenarioID, payload); err != nil {
			l.logger.Error("Failed to publish study event", "type", eventType, "scenario", scenarioID, "error", err)
			return
		}
		l.logger.Debug("Study event published", "type", eventType, "scenario", scenarioID)
	}()
}
