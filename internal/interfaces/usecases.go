package interfaces

import (
	"net/http"

	"github.com/iwtcode/linacService/internal/domain/models"
)

// Usecases - это агрегирующий интерфейс для всех use cases
type Usecases interface {
	OpenSession(req models.OpenSessionRequest) (*models.SessionInfo, error)
	GetAllSessions() []*models.SessionInfo
	CloseSession(sessionID string) error
	ListScenarios() ([]string, error)
	ServeEvents(sessionID string, w http.ResponseWriter, r *http.Request) error

	ConsoleSnapshot(sessionID string) (*models.ConsoleView, error)
	SelectField(sessionID string, index int) (*models.ConsoleView, error)
	Prepare(sessionID string) (*models.ConsoleView, error)
	CheckItem(sessionID string, index int, checked bool) (*models.ConsoleView, error)
	Confirm(sessionID string) (*models.ConsoleView, error)
	Cancel(sessionID string) (*models.ConsoleView, error)
	ReportTolerance(sessionID string, req models.ToleranceRequest) (*models.ConsoleView, error)
	Override(sessionID string) (*models.ConsoleView, error)
	BeamOn(sessionID string) (*models.ConsoleView, error)
	Record(sessionID string) (*models.RecordRequest, *models.ConsoleView, error)

	ImagingSnapshot(sessionID string) (*models.ImagingView, error)
	Nudge(sessionID string, axis string, delta float64) (*models.ImagingView, error)
	SetShift(sessionID string, shift models.CouchShift) (*models.ImagingView, error)
	ResetShift(sessionID string) (*models.ImagingView, error)
	ApplyShifts(sessionID string) (*models.ImagingView, error)

	ReadState(scenarioID string) (models.SharedScenarioState, bool)
	WriteState(scenarioID string, patch models.StatePatch, merge bool) models.SharedScenarioState
	ListStates() []models.SharedScenarioState
}
