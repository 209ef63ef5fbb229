package usecases

import (
	"net/http"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/services/display"
	"github.com/iwtcode/linacService/internal/services/session"
)

type Usecase struct {
	sessions *session.Manager
	loader   interfaces.ScenarioLoader
	store    interfaces.SharedStateStore
	logger   *logging.Logger
}

func NewUsecase(sessions *session.Manager, loader interfaces.ScenarioLoader, store interfaces.SharedStateStore, logger *logging.Logger) interfaces.Usecases {
	return &Usecase{
		sessions: sessions,
		loader:   loader,
		store:    store,
		logger:   logger.WithPrefix("USECASE"),
	}
}

func (u *Usecase) OpenSession(req models.OpenSessionRequest) (*models.SessionInfo, error) {
	return u.sessions.Open(req)
}

func (u *Usecase) GetAllSessions() []*models.SessionInfo {
	return u.sessions.List()
}

func (u *Usecase) CloseSession(sessionID string) error {
	return u.sessions.Close(sessionID)
}

func (u *Usecase) ListScenarios() ([]string, error) {
	return u.loader.List()
}

func (u *Usecase) ServeEvents(sessionID string, w http.ResponseWriter, r *http.Request) error {
	s, err := u.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return s.Hub().Serve(w, r)
}

// withConsole выполняет действие на консоли сессии и возвращает новый снимок.
// Снимок возвращается и при отказе перехода, чтобы клиент видел строку статуса.
func (u *Usecase) withConsole(sessionID string, action func(c *display.Console) error) (*models.ConsoleView, error) {
	c, err := u.sessions.Console(sessionID)
	if err != nil {
		return nil, err
	}
	err = action(c)
	view := c.Snapshot()
	return &view, err
}

func (u *Usecase) ConsoleSnapshot(sessionID string) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, func(*display.Console) error { return nil })
}

func (u *Usecase) SelectField(sessionID string, index int) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, func(c *display.Console) error { return c.SelectField(index) })
}

func (u *Usecase) Prepare(sessionID string) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, (*display.Console).Prepare)
}

func (u *Usecase) CheckItem(sessionID string, index int, checked bool) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, func(c *display.Console) error { return c.CheckItem(index, checked) })
}

func (u *Usecase) Confirm(sessionID string) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, (*display.Console).Confirm)
}

func (u *Usecase) Cancel(sessionID string) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, func(c *display.Console) error {
		c.Cancel()
		return nil
	})
}

func (u *Usecase) ReportTolerance(sessionID string, req models.ToleranceRequest) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, func(c *display.Console) error {
		c.ReportTolerance(req.Parameters, req.Actual)
		return nil
	})
}

func (u *Usecase) Override(sessionID string) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, func(c *display.Console) error {
		c.Override()
		return nil
	})
}

// BeamOn запускает отпуск дозы в фоне. Результат отпуска только логируется,
// клиент следит за ходом через снимки и WebSocket.
func (u *Usecase) BeamOn(sessionID string) (*models.ConsoleView, error) {
	return u.withConsole(sessionID, func(c *display.Console) error {
		done, err := c.StartBeamOn()
		if err != nil {
			return err
		}
		go func() {
			if err := <-done; err != nil {
				u.logger.Warn("Delivery finished with error", "sessionID", sessionID, "error", err)
			}
		}()
		return nil
	})
}

func (u *Usecase) Record(sessionID string) (*models.RecordRequest, *models.ConsoleView, error) {
	var req *models.RecordRequest
	view, err := u.withConsole(sessionID, func(c *display.Console) error {
		var err error
		req, err = c.Record()
		return err
	})
	return req, view, err
}

func (u *Usecase) withImaging(sessionID string, action func(im *display.Imaging) error) (*models.ImagingView, error) {
	im, err := u.sessions.Imaging(sessionID)
	if err != nil {
		return nil, err
	}
	err = action(im)
	view := im.Snapshot()
	return &view, err
}

func (u *Usecase) ImagingSnapshot(sessionID string) (*models.ImagingView, error) {
	return u.withImaging(sessionID, func(*display.Imaging) error { return nil })
}

func (u *Usecase) Nudge(sessionID string, axis string, delta float64) (*models.ImagingView, error) {
	return u.withImaging(sessionID, func(im *display.Imaging) error { return im.Nudge(axis, delta) })
}

func (u *Usecase) SetShift(sessionID string, shift models.CouchShift) (*models.ImagingView, error) {
	return u.withImaging(sessionID, func(im *display.Imaging) error {
		im.SetShift(shift)
		return nil
	})
}

func (u *Usecase) ResetShift(sessionID string) (*models.ImagingView, error) {
	return u.withImaging(sessionID, func(im *display.Imaging) error {
		im.Reset()
		return nil
	})
}

func (u *Usecase) ApplyShifts(sessionID string) (*models.ImagingView, error) {
	return u.withImaging(sessionID, func(im *display.Imaging) error {
		im.ApplyShifts()
		return nil
	})
}

func (u *Usecase) ReadState(scenarioID string) (models.SharedScenarioState, bool) {
	return u.store.Read(scenarioID)
}

func (u *Usecase) WriteState(scenarioID string, patch models.StatePatch, merge bool) models.SharedScenarioState {
	u.store.Write(scenarioID, patch, merge)
	st, _ := u.store.Read(scenarioID)
	return st
}

func (u *Usecase) ListStates() []models.SharedScenarioState {
	return u.store.List()
}
