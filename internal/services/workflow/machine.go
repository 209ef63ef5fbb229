package workflow

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
)

// Stage - этап процедуры на консоли
type Stage string

const (
	StagePreview Stage = "preview"
	StagePrepare Stage = "prepare"
	StageReady   Stage = "ready"
	StageBeamOn  Stage = "beamOn"
	StageRecord  Stage = "record"
)

// StatusMessage возвращает подсказку оператору для этапа
func (s Stage) StatusMessage() string {
	switch s {
	case StagePrepare:
		return "Complete verification checklist."
	case StageReady:
		return "Ready. Review parameters, then click Beam On."
	case StageBeamOn:
		return "Treatment in progress..."
	case StageRecord:
		return "Treatment complete. Click Record to answer study questions."
	}
	return "To begin, click Prepare."
}

// TransitionError - отказ в переходе. Состояние машины при этом не меняется.
type TransitionError struct {
	Action string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s refused: %s", e.Action, e.Reason)
}

func refuse(action, reason string) error {
	return &TransitionError{Action: action, Reason: reason}
}

// FieldStatus - сведения о поле, нужные для проверки перехода
type FieldStatus struct {
	Index   int
	Active  bool
	Imaging bool
	Done    bool
}

// Remaining сообщает, остались ли активные поля с дозой, которые еще не отпущены.
func Remaining(fields []FieldStatus) bool {
	for _, f := range fields {
		if f.Active && !f.Imaging && !f.Done {
			return true
		}
	}
	return false
}

// Options - параметры машины состояний
type Options struct {
	ScenarioID string
	File       string
	Mode       string
	Checklist  []string
	Now        func() time.Time
	Listener   interfaces.LifecycleListener
}

// Machine - машина состояний Preview -> Prepare -> Ready -> BeamOn -> Record.
// Безопасна для конкурентного использования; слушатель вызывается вне блокировки.
type Machine struct {
	mu sync.Mutex

	scenarioID string
	file       string
	mode       string

	stage         Stage
	beforePrepare Stage
	checklist     []models.ChecklistItem
	flagged       []string

	startedAt *time.Time
	endedAt   *time.Time

	now      func() time.Time
	listener interfaces.LifecycleListener
}

func New(opts Options) *Machine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	items := make([]models.ChecklistItem, len(opts.Checklist))
	for i, label := range opts.Checklist {
		items[i] = models.ChecklistItem{Label: label}
	}
	return &Machine{
		scenarioID:    opts.ScenarioID,
		file:          opts.File,
		mode:          opts.Mode,
		stage:         StagePreview,
		beforePrepare: StagePreview,
		checklist:     items,
		now:           now,
		listener:      opts.Listener,
	}
}

func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// Checklist возвращает копию пунктов проверочного листа
func (m *Machine) Checklist() []models.ChecklistItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ChecklistItem, len(m.checklist))
	copy(out, m.checklist)
	return out
}

// Prepare открывает проверочный лист. Пункты сбрасываются при каждом открытии.
func (m *Machine) Prepare() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.stage {
	case StagePreview, StageReady:
	case StagePrepare:
		return nil
	default:
		return refuse("prepare", "Prepare is not available during "+string(m.stage)+".")
	}
	m.beforePrepare = m.stage
	for i := range m.checklist {
		m.checklist[i].Checked = false
	}
	m.stage = StagePrepare
	return nil
}

func (m *Machine) CheckItem(index int, checked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stage != StagePrepare {
		return refuse("checklist", "Checklist is only open during Prepare.")
	}
	if index < 0 || index >= len(m.checklist) {
		return refuse("checklist", fmt.Sprintf("No checklist item %d.", index))
	}
	m.checklist[index].Checked = checked
	return nil
}

func (m *Machine) CanConfirm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage == StagePrepare && m.allChecked()
}

func (m *Machine) allChecked() bool {
	for _, item := range m.checklist {
		if !item.Checked {
			return false
		}
	}
	return true
}

// Confirm закрывает проверочный лист и переводит консоль в Ready.
// Первое подтверждение ставит отметку начала сценария.
func (m *Machine) Confirm() error {
	m.mu.Lock()
	if m.stage != StagePrepare {
		m.mu.Unlock()
		return refuse("confirm", "Checklist is not open.")
	}
	if !m.allChecked() {
		m.mu.Unlock()
		return refuse("confirm", "Complete all checklist items before confirming.")
	}
	m.stage = StageReady
	start := m.markStartLocked(false)
	m.mu.Unlock()

	m.emitStart(start)
	return nil
}

// Cancel закрывает проверочный лист без подтверждения
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage == StagePrepare {
		m.stage = m.beforePrepare
	}
}

// FlagOutOfTolerance задает параметры вне допуска. Пустой список снимает флаги.
func (m *Machine) FlagOutOfTolerance(params []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flagged = m.flagged[:0]
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		m.flagged = append(m.flagged, p)
	}
}

// Override подтверждает отклонения, после чего Beam On снова доступен
func (m *Machine) Override() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flagged = nil
}

// OverrideRequired возвращает параметры, ожидающие подтверждения
func (m *Machine) OverrideRequired() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.flagged) == 0 {
		return nil
	}
	out := make([]string, len(m.flagged))
	copy(out, m.flagged)
	return out
}

// BeginDelivery переводит Ready -> BeamOn для выбранного поля.
func (m *Machine) BeginDelivery(field FieldStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.stage == StageBeamOn:
		return refuse("beam-on", "Treatment in progress.")
	case m.stage != StageReady:
		return refuse("beam-on", "Complete Prepare before Beam On.")
	case !field.Active:
		return refuse("beam-on", "Selected field is not active.")
	case field.Imaging:
		return refuse("beam-on", "Imaging fields are not delivered with Beam On.")
	case field.Done:
		return refuse("beam-on", "Selected field is already delivered.")
	case len(m.flagged) > 0:
		return refuse("beam-on", "Override required: "+strings.Join(m.flagged, ", ")+".")
	}
	m.stage = StageBeamOn
	return nil
}

// CompleteDelivery завершает отпуск поля: Ready, если остались поля, иначе Record.
func (m *Machine) CompleteDelivery(remaining bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage != StageBeamOn {
		return
	}
	if remaining {
		m.stage = StageReady
	} else {
		m.stage = StageRecord
	}
}

// InterruptDelivery возвращает BeamOn -> Ready, если анимация прервана (закрытие сессии).
func (m *Machine) InterruptDelivery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage == StageBeamOn {
		m.stage = StageReady
	}
}

// Record завершает сценарий и передает данные модулю сбора.
func (m *Machine) Record(fields []FieldStatus) (*models.RecordRequest, error) {
	m.mu.Lock()
	if m.stage == StageBeamOn {
		m.mu.Unlock()
		return nil, refuse("record", "Treatment in progress.")
	}
	if Remaining(fields) {
		m.mu.Unlock()
		return nil, refuse("record", "Deliver all active fields before Record.")
	}

	start, end := m.markEndLocked(false)
	m.stage = StageRecord
	req := models.RecordRequest{
		ScenarioID:   m.scenarioID,
		ScenarioFile: m.file,
		Mode:         m.mode,
		StartedAt:    copyTime(m.startedAt),
		EndedAt:      copyTime(m.endedAt),
		TaskSeconds:  m.durationLocked(),
	}
	m.mu.Unlock()

	m.emitStart(start)
	m.emitEnd(end)
	if m.listener != nil {
		m.listener.OnRecord(req)
	}
	return &req, nil
}

// MarkStart ставит отметку начала и сбрасывает отметку окончания.
// Без force уже поставленное начало сохраняется.
func (m *Machine) MarkStart(force bool) {
	m.mu.Lock()
	start := m.markStartLocked(force)
	m.mu.Unlock()
	m.emitStart(start)
}

// MarkEnd ставит отметку окончания; при отсутствии начала оно заполняется тем же временем.
func (m *Machine) MarkEnd(force bool) {
	m.mu.Lock()
	start, end := m.markEndLocked(force)
	m.mu.Unlock()
	m.emitStart(start)
	m.emitEnd(end)
}

// Markers возвращает отметки и длительность сценария в секундах (не меньше нуля)
func (m *Machine) Markers() (startedAt, endedAt *time.Time, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyTime(m.startedAt), copyTime(m.endedAt), m.durationLocked()
}

func (m *Machine) durationLocked() float64 {
	if m.startedAt == nil || m.endedAt == nil {
		return 0
	}
	sec := m.endedAt.Sub(*m.startedAt).Seconds()
	if sec < 0 {
		return 0
	}
	return math.Round(sec*100) / 100
}

func (m *Machine) markStartLocked(force bool) *models.Marker {
	m.endedAt = nil
	if m.startedAt != nil && !force {
		return nil
	}
	t := m.now()
	m.startedAt = &t
	return m.marker(t)
}

func (m *Machine) markEndLocked(force bool) (start, end *models.Marker) {
	if m.endedAt != nil && !force {
		return nil, nil
	}
	t := m.now()
	if m.startedAt == nil {
		s := t
		m.startedAt = &s
		start = m.marker(t)
	}
	m.endedAt = &t
	return start, m.marker(t)
}

func (m *Machine) marker(t time.Time) *models.Marker {
	return &models.Marker{ScenarioID: m.scenarioID, File: m.file, Timestamp: t}
}

func (m *Machine) emitStart(marker *models.Marker) {
	if marker != nil && m.listener != nil {
		m.listener.OnScenarioStart(*marker)
	}
}

func (m *Machine) emitEnd(marker *models.Marker) {
	if marker != nil && m.listener != nil {
		m.listener.OnScenarioEnd(*marker)
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
