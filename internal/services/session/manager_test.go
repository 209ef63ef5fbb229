package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iwtcode/linacService/internal/adapters/repositories/memory"
	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/services/delivery"
	"github.com/iwtcode/linacService/internal/services/scenario"
	"github.com/iwtcode/linacService/internal/services/sharedstate"
	appErrors "github.com/iwtcode/linacService/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioJSON = `{
  "patientId": "P-002",
  "treatmentPlan": {
    "imagingType": "kV",
    "treatmentFields": [
      {"fieldName": "AP", "technique": "3D", "monitorUnits": 20, "doseRate": 600, "gantryAngle": 0}
    ]
  }
}`

type sinkEvent struct {
	Type       string
	ScenarioID string
}

type fakeSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (s *fakeSink) Publish(_ context.Context, eventType, scenarioID string, _ interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sinkEvent{eventType, scenarioID})
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func newManager(t *testing.T, role string, sink *fakeSink) *Manager {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A2_computer.json"), []byte(scenarioJSON), 0o644))

	cfg := &config.AppConfig{DisplayRole: role, Study: config.DefaultStudyProfile()}
	store := sharedstate.NewChannel(memory.NewRepository(), nil, logging.NewNop(), 0)
	var study interfaces.StudySink
	if sink != nil {
		study = sink
	}
	m := NewManager(cfg, scenario.NewLoader(dir, logging.NewNop()), store, study, delivery.InstantClock{}, logging.NewNop())
	t.Cleanup(m.CloseAll)
	return m
}

func TestOpenGetListClose(t *testing.T) {
	m := newManager(t, config.RoleBoth, nil)

	console, err := m.Open(models.OpenSessionRequest{File: "A2_computer.json", Role: models.RoleConsole})
	require.NoError(t, err)
	assert.Equal(t, "A2", console.ScenarioID)
	assert.NotEmpty(t, console.SessionID)

	imaging, err := m.Open(models.OpenSessionRequest{File: "A2_computer.json", Role: models.RoleImaging})
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)

	_, err = m.Console(console.SessionID)
	require.NoError(t, err)
	_, err = m.Imaging(imaging.SessionID)
	require.NoError(t, err)

	s, err := m.Get(console.SessionID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.info.UseCount, int64(2))

	require.NoError(t, m.Close(console.SessionID))
	require.Len(t, m.List(), 1)

	err = m.Close(console.SessionID)
	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.NotFoundErrorCode, appErr.Code)
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
}

func TestWrongRoleAccess(t *testing.T) {
	m := newManager(t, config.RoleBoth, nil)
	info, err := m.Open(models.OpenSessionRequest{File: "A2_computer.json", Role: models.RoleImaging})
	require.NoError(t, err)

	_, err = m.Console(info.SessionID)
	require.ErrorIs(t, err, appErrors.ErrWrongRole)
}

func TestProcessRoleRestrictsOpen(t *testing.T) {
	m := newManager(t, config.RoleImaging, nil)
	_, err := m.Open(models.OpenSessionRequest{File: "A2_computer.json", Role: models.RoleConsole})
	require.ErrorIs(t, err, appErrors.ErrWrongRole)

	_, err = m.Open(models.OpenSessionRequest{File: "A2_computer.json", Role: models.RoleImaging})
	require.NoError(t, err)
}

func TestOpenMissingScenario(t *testing.T) {
	m := newManager(t, config.RoleBoth, nil)
	_, err := m.Open(models.OpenSessionRequest{File: "nope.json", Role: models.RoleConsole})
	require.ErrorIs(t, err, appErrors.ErrScenarioLoad)
	require.Empty(t, m.List())
}

func TestStudyEventsForwarded(t *testing.T) {
	sink := &fakeSink{}
	m := newManager(t, config.RoleBoth, sink)
	info, err := m.Open(models.OpenSessionRequest{File: "A2_computer.json", Role: models.RoleConsole})
	require.NoError(t, err)
	console, err := m.Console(info.SessionID)
	require.NoError(t, err)

	require.NoError(t, console.Prepare())
	for i := range config.DefaultStudyProfile().Checklist {
		require.NoError(t, console.CheckItem(i, true))
	}
	require.NoError(t, console.Confirm())
	require.NoError(t, console.BeamOn(context.Background()))
	_, err = console.Record()
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.types()) == 3 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"scenario_start", "scenario_end", "record"}, sink.types())
}

func TestWebSocketReceivesSnapshotAndEvents(t *testing.T) {
	m := newManager(t, config.RoleBoth, nil)
	info, err := m.Open(models.OpenSessionRequest{File: "A2_computer.json", Role: models.RoleImaging})
	require.NoError(t, err)
	s, err := m.Get(info.SessionID)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.Hub().Serve(w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev models.SessionEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventSnapshot, ev.Type)
	assert.Equal(t, info.SessionID, ev.SessionID)

	imaging, err := m.Imaging(info.SessionID)
	require.NoError(t, err)
	require.NoError(t, imaging.Nudge("LAT", 0.5))

	// в буфере может остаться снимок открытия - ждем снимок со смещением
	var view models.ImagingView
	for view.Shift.Lateral != 0.5 {
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Type == EventSnapshot {
			require.NoError(t, json.Unmarshal(ev.Payload, &view))
		}
	}

	// закрытие сессии отключает клиента
	require.NoError(t, m.Close(info.SessionID))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}

func TestHubPublishAfterCloseDoesNotBlock(t *testing.T) {
	hub := NewHub("s1", logging.NewNop())
	hub.Close()
	hub.Close()
	done := make(chan struct{})
	go func() {
		for i := 0; i < hubBuffer*2; i++ {
			hub.Publish(EventProgress, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a closed hub")
	}
}
