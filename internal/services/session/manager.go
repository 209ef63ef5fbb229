package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/services/delivery"
	"github.com/iwtcode/linacService/internal/services/display"
	appErrors "github.com/iwtcode/linacService/pkg/errors"
)

// Session - открытый дисплей (консоль или экран визуализации) одного сценария.
type Session struct {
	mu      sync.Mutex
	info    models.SessionInfo
	console *display.Console
	imaging *display.Imaging
	hub     *Hub
}

func (s *Session) ID() string {
	return s.info.SessionID
}

func (s *Session) Role() string {
	return s.info.Role
}

func (s *Session) Hub() *Hub {
	return s.hub
}

func (s *Session) Console() *display.Console {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.console
}

func (s *Session) Imaging() *display.Imaging {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imaging
}

// Snapshot возвращает снимок дисплея (ConsoleView или ImagingView)
func (s *Session) Snapshot() interface{} {
	s.mu.Lock()
	console, imaging := s.console, s.imaging
	s.mu.Unlock()
	switch {
	case console != nil:
		return console.Snapshot()
	case imaging != nil:
		return imaging.Snapshot()
	}
	return nil
}

func (s *Session) pushSnapshot() {
	if snap := s.Snapshot(); snap != nil {
		s.hub.Publish(EventSnapshot, snap)
	}
}

func (s *Session) touch() models.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.LastUsed = time.Now()
	s.info.UseCount++
	return s.info
}

func (s *Session) close() {
	s.mu.Lock()
	console, imaging := s.console, s.imaging
	s.mu.Unlock()
	if console != nil {
		console.Close()
	}
	if imaging != nil {
		imaging.Close()
	}
	s.hub.Close()
}

// Manager - пул открытых сессий дисплеев
type Manager struct {
	mu     sync.RWMutex
	pool   map[string]*Session
	loader interfaces.ScenarioLoader
	store  interfaces.SharedStateStore
	study  interfaces.StudySink
	cfg    *config.AppConfig
	clock  delivery.Clock
	logger *logging.Logger
}

// NewManager создает пул. study может быть nil - тогда события исследования не отправляются.
func NewManager(cfg *config.AppConfig, loader interfaces.ScenarioLoader, store interfaces.SharedStateStore,
	study interfaces.StudySink, clock delivery.Clock, logger *logging.Logger) *Manager {
	if clock == nil {
		clock = delivery.RealClock{}
	}
	return &Manager{
		pool:   make(map[string]*Session),
		loader: loader,
		store:  store,
		study:  study,
		cfg:    cfg,
		clock:  clock,
		logger: logger.WithPrefix("SESSIONS"),
	}
}

// Open загружает сценарий и открывает дисплей нужной роли
func (m *Manager) Open(req models.OpenSessionRequest) (*models.SessionInfo, error) {
	switch req.Role {
	case models.RoleConsole:
		if !m.cfg.ServesConsole() {
			return nil, appErrors.NewAppError(appErrors.ForbiddenErrorCode,
				"процесс не обслуживает консоль", appErrors.ErrWrongRole, false)
		}
	case models.RoleImaging:
		if !m.cfg.ServesImaging() {
			return nil, appErrors.NewAppError(appErrors.ForbiddenErrorCode,
				"процесс не обслуживает экран визуализации", appErrors.ErrWrongRole, false)
		}
	default:
		return nil, appErrors.NewAppError(appErrors.InvalidDataCode,
			fmt.Sprintf("неизвестная роль '%s'", req.Role), nil, true)
	}

	scenario, err := m.loader.Load(req.File)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()
	now := time.Now()
	s := &Session{
		info: models.SessionInfo{
			SessionID:  sessionID,
			Role:       req.Role,
			ScenarioID: scenario.ScenarioID,
			File:       scenario.File,
			CreatedAt:  now,
			LastUsed:   now,
		},
		hub: NewHub(sessionID, m.logger),
	}

	listeners := display.Listeners{hubListener{hub: s.hub}}
	if m.study != nil {
		listeners = append(listeners, studyListener{sink: m.study, logger: m.logger})
	}

	switch req.Role {
	case models.RoleConsole:
		console := display.NewConsole(display.ConsoleOptions{
			Scenario: scenario,
			Store:    m.store,
			Profile:  m.cfg.Study,
			Clock:    m.clock,
			Listener: listeners,
			OnChange: s.pushSnapshot,
			Logger:   m.logger,
		})
		s.mu.Lock()
		s.console = console
		s.mu.Unlock()
	case models.RoleImaging:
		mode := ""
		if m.cfg.Study != nil {
			mode = m.cfg.Study.Mode
		}
		imaging := display.NewImaging(display.ImagingOptions{
			Scenario: scenario,
			Mode:     mode,
			Store:    m.store,
			OnChange: s.pushSnapshot,
			Logger:   m.logger,
		})
		s.mu.Lock()
		s.imaging = imaging
		s.mu.Unlock()
	}
	s.pushSnapshot()

	m.mu.Lock()
	m.pool[sessionID] = s
	m.mu.Unlock()

	m.logger.Info("Display session opened", "sessionID", sessionID, "role", req.Role, "scenario", scenario.ScenarioID)
	info := s.info
	return &info, nil
}

// Get возвращает сессию и отмечает ее использование
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.pool[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, appErrors.NewAppError(appErrors.NotFoundErrorCode,
			fmt.Sprintf("сессия с ID '%s' не найдена", sessionID), appErrors.ErrSessionNotFound, false)
	}
	s.touch()
	return s, nil
}

// Console возвращает консоль сессии; сессия другой роли - ошибка
func (m *Manager) Console(sessionID string) (*display.Console, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if c := s.Console(); c != nil {
		return c, nil
	}
	return nil, wrongRole(sessionID, models.RoleConsole)
}

func (m *Manager) Imaging(sessionID string) (*display.Imaging, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if im := s.Imaging(); im != nil {
		return im, nil
	}
	return nil, wrongRole(sessionID, models.RoleImaging)
}

func wrongRole(sessionID, role string) error {
	return appErrors.NewAppError(appErrors.ConflictErrorCode,
		fmt.Sprintf("сессия '%s' не является дисплеем '%s'", sessionID, role), appErrors.ErrWrongRole, false)
}

// List возвращает все сессии, упорядоченные по времени открытия
func (m *Manager) List() []*models.SessionInfo {
	m.mu.RLock()
	list := make([]*models.SessionInfo, 0, len(m.pool))
	for _, s := range m.pool {
		s.mu.Lock()
		info := s.info
		s.mu.Unlock()
		list = append(list, &info)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].SessionID < list[j].SessionID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Close закрывает сессию: прерывает подачу, отписывается от общего состояния, отключает WebSocket-клиентов.
func (m *Manager) Close(sessionID string) error {
	m.mu.Lock()
	s, ok := m.pool[sessionID]
	if ok {
		delete(m.pool, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return appErrors.NewAppError(appErrors.NotFoundErrorCode,
			fmt.Sprintf("сессия с ID '%s' не найдена", sessionID), appErrors.ErrSessionNotFound, false)
	}
	s.close()
	m.logger.Info("Display session closed", "sessionID", sessionID)
	return nil
}

// CloseAll закрывает все сессии при остановке приложения
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.pool))
	for id, s := range m.pool {
		sessions = append(sessions, s)
		delete(m.pool, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	if len(sessions) > 0 {
		m.logger.Info("All display sessions closed", "count", len(sessions))
	}
}
