package display

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/services/delivery"
	"github.com/iwtcode/linacService/internal/services/workflow"
)

// ConsoleOptions - зависимости консоли
type ConsoleOptions struct {
	Scenario *models.ScenarioRecord
	Store    interfaces.SharedStateStore
	Profile  *config.StudyProfile
	Clock    delivery.Clock
	Listener interfaces.LifecycleListener
	// OnChange вызывается после любого изменения, видимого в снимке
	OnChange func()
	Logger   *logging.Logger
	Now      func() time.Time
}

// Console - пульт управления ускорителем: список полей, проверочный лист, Beam On, Record.
type Console struct {
	mu sync.RWMutex

	scenario   *models.ScenarioRecord
	fields     []models.TreatmentField
	sim        *delivery.Simulator
	machine    *workflow.Machine
	tolerances config.ToleranceLimits

	selected   int
	delivering int
	couchShift models.CouchShift
	appliedAt  *time.Time
	status     string

	store       interfaces.SharedStateStore
	unsubscribe func()
	listener    interfaces.LifecycleListener
	onChange    func()
	logger      *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsole(opts ConsoleOptions) *Console {
	profile := opts.Profile
	if profile == nil {
		profile = config.DefaultStudyProfile()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	scenario := opts.Scenario
	if scenario == nil {
		scenario = &models.ScenarioRecord{}
	}
	listener := opts.Listener
	if listener == nil {
		listener = NopListener{}
	}

	fields := scenario.Fields()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Console{
		scenario:   scenario,
		fields:     fields,
		sim:        delivery.NewSimulator(fields, delivery.TimingFromProfile(profile.Delivery), opts.Clock),
		tolerances: profile.Tolerances,
		selected:   -1,
		delivering: -1,
		store:      opts.Store,
		listener:   listener,
		onChange:   opts.OnChange,
		logger:     logger.WithPrefix("CONSOLE"),
		ctx:        ctx,
		cancel:     cancel,
	}
	c.machine = workflow.New(workflow.Options{
		ScenarioID: scenario.ScenarioID,
		File:       scenario.File,
		Mode:       profile.Mode,
		Checklist:  profile.Checklist,
		Now:        opts.Now,
		Listener:   listener,
	})
	c.selected = c.nextDeliverable(-1)
	if c.selected < 0 && len(fields) > 0 {
		c.selected = 0
	}
	c.status = c.machine.Stage().StatusMessage()

	if c.store != nil {
		if st, ok := c.store.Read(scenario.ScenarioID); ok {
			c.applyShared(st)
		}
		c.unsubscribe = c.store.Subscribe(scenario.ScenarioID, c.onShared)
	}
	return c
}

func (c *Console) ScenarioID() string {
	return c.scenario.ScenarioID
}

// SelectField выбирает текущее поле. Во время отпуска дозы выбор недоступен.
func (c *Console) SelectField(index int) error {
	c.mu.Lock()
	if c.machine.Stage() == workflow.StageBeamOn {
		c.mu.Unlock()
		return c.reject(&workflow.TransitionError{Action: "select", Reason: "Treatment in progress."})
	}
	if index < 0 || index >= len(c.fields) {
		c.mu.Unlock()
		return c.reject(&workflow.TransitionError{Action: "select", Reason: fmt.Sprintf("No field %d.", index)})
	}
	c.selected = index
	c.mu.Unlock()

	// параметры нового поля проверяются заново
	c.machine.FlagOutOfTolerance(nil)
	c.listener.OnFieldSelected(index)
	c.accept()
	return nil
}

func (c *Console) Prepare() error {
	return c.result(c.machine.Prepare())
}

func (c *Console) CheckItem(index int, checked bool) error {
	return c.result(c.machine.CheckItem(index, checked))
}

func (c *Console) Confirm() error {
	return c.result(c.machine.Confirm())
}

func (c *Console) Cancel() {
	c.machine.Cancel()
	c.accept()
}

// ReportTolerance задает параметры вне допуска: явно переданные внешней проверкой
// и найденные сравнением фактических значений с планом выбранного поля.
func (c *Console) ReportTolerance(params []string, actual map[string]float64) []string {
	c.mu.RLock()
	var flagged []string
	if c.selected >= 0 && c.selected < len(c.fields) {
		flagged = CheckTolerance(c.fields[c.selected], actual, c.tolerances)
	}
	c.mu.RUnlock()

	combined := append(append([]string(nil), params...), flagged...)
	sort.Strings(combined)
	c.machine.FlagOutOfTolerance(combined)
	out := c.machine.OverrideRequired()
	if len(out) > 0 {
		c.setStatus(fmt.Sprintf("Out of tolerance: %s. Override required.", strings.Join(out, ", ")))
	} else {
		c.accept()
	}
	return out
}

func (c *Console) Override() {
	c.machine.Override()
	c.accept()
}

// BeamOn отпускает дозу выбранного поля и ждет завершения.
// Отпуск прерывается отменой ctx или закрытием консоли.
func (c *Console) BeamOn(ctx context.Context) error {
	index, err := c.beginBeamOn()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()
	return c.runDelivery(ctx, index)
}

// StartBeamOn проверяет переход синхронно и отпускает дозу в фоне.
// Канал получает результат отпуска и закрывается.
func (c *Console) StartBeamOn() (<-chan error, error) {
	index, err := c.beginBeamOn()
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		done <- c.runDelivery(c.ctx, index)
	}()
	return done, nil
}

func (c *Console) beginBeamOn() (int, error) {
	c.mu.Lock()
	index := c.selected
	if index < 0 || index >= len(c.fields) {
		c.mu.Unlock()
		return -1, c.reject(&workflow.TransitionError{Action: "beam-on", Reason: "No field selected."})
	}
	field := c.fields[index]
	status := workflow.FieldStatus{
		Index:   index,
		Active:  field.IsActive(),
		Imaging: field.IsImaging(),
		Done:    c.sim.IsDone(index),
	}
	if err := c.machine.BeginDelivery(status); err != nil {
		c.mu.Unlock()
		return -1, c.reject(err)
	}
	c.delivering = index
	c.mu.Unlock()

	c.logger.Info("Beam on", "scenario", c.scenario.ScenarioID, "field", index, "name", field.FieldName)
	c.accept()
	return index, nil
}

func (c *Console) runDelivery(ctx context.Context, index int) error {
	onStep := func(i int, p models.DeliveryProgress) {
		c.listener.OnDeliveryProgress(i, p.DeliveredMU, p.CurrentGantryDeg)
		c.notify()
	}
	err := c.sim.Deliver(ctx, index, onStep)

	c.mu.Lock()
	c.delivering = -1
	if err != nil {
		c.mu.Unlock()
		c.machine.InterruptDelivery()
		c.logger.Warn("Delivery interrupted", "scenario", c.scenario.ScenarioID, "field", index, "error", err)
		c.setStatus("Delivery interrupted.")
		return err
	}
	remaining := workflow.Remaining(c.fieldStatusesLocked())
	c.machine.CompleteDelivery(remaining)
	next := c.nextDeliverable(index)
	if next >= 0 {
		c.selected = next
	}
	passed := c.passedImaging(index, next)
	c.mu.Unlock()

	for _, i := range passed {
		if err := c.sim.Complete(i, onStep); err != nil {
			c.logger.Warn("Failed to complete imaging field", "scenario", c.scenario.ScenarioID, "field", i, "error", err)
		}
	}

	c.logger.Info("Field delivered", "scenario", c.scenario.ScenarioID, "field", index, "remaining", remaining)
	if next >= 0 {
		c.listener.OnFieldSelected(next)
	}
	c.accept()
	return nil
}

// Record завершает сценарий: отметка окончания и передача данных модулю сбора.
func (c *Console) Record() (*models.RecordRequest, error) {
	c.mu.RLock()
	statuses := c.fieldStatusesLocked()
	c.mu.RUnlock()

	req, err := c.machine.Record(statuses)
	if err != nil {
		return nil, c.reject(err)
	}
	c.logger.Info("Scenario recorded", "scenario", req.ScenarioID, "task_seconds", req.TaskSeconds)
	c.setStatus("Recorded. Thank you.")
	return req, nil
}

// Snapshot возвращает представление консоли для рендеринга
func (c *Console) Snapshot() models.ConsoleView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	progress := c.sim.AllProgress()
	views := make([]models.FieldView, len(c.fields))
	for i, f := range c.fields {
		plan := delivery.ParseGantry(f.GantryAngle)
		views[i] = models.FieldView{
			Index:            i,
			Name:             f.FieldName,
			Technique:        delivery.TechniqueLabel(f.Technique),
			BeamType:         delivery.BeamTypeLabel(f),
			Active:           f.IsActive(),
			Imaging:          f.IsImaging(),
			PlanMU:           f.PlanMU(),
			DoseRate:         f.Rate(),
			PlanGantryDeg:    plan.StartDeg,
			IsArc:            plan.IsArc,
			DeliveredMU:      round1(progress[i].DeliveredMU),
			Done:             progress[i].Done,
			CurrentGantryDeg: progress[i].CurrentGantryDeg,
			TimeMin:          round2(delivery.ClinicalMinutes(f)),
		}
	}

	stage := c.machine.Stage()
	start, end, seconds := c.machine.Markers()
	view := models.ConsoleView{
		ScenarioID:     c.scenario.ScenarioID,
		PatientID:      c.scenario.PatientID,
		Plan:           c.scenario.PlanLabel(),
		Stage:          string(stage),
		Status:         c.status,
		SelectedField:  c.selected,
		Delivering:     c.delivering >= 0,
		Fields:         views,
		OverrideNeeded: c.machine.OverrideRequired(),
		CouchShift:     c.couchShift,
		ShiftAppliedAt: formatTime(c.appliedAt),
		Markers: models.MarkersView{
			StartedAt:   formatTime(start),
			EndedAt:     formatTime(end),
			TaskSeconds: seconds,
		},
		RecordEnabled: stage != workflow.StageBeamOn && !workflow.Remaining(c.fieldStatusesLocked()),
	}
	if stage == workflow.StagePrepare {
		view.Checklist = c.machine.Checklist()
	}
	return view
}

// Close прерывает отпуск дозы и отписывается от общего состояния
func (c *Console) Close() {
	c.cancel()
	c.wg.Wait()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Console) onShared(st models.SharedScenarioState) {
	c.mu.Lock()
	c.applyShared(st)
	c.mu.Unlock()
	c.notify()
}

// applyShared переносит смещения стола из общего состояния. Вызывается под c.mu.
// Отсутствующее в записи значение сбрасывает локальное.
func (c *Console) applyShared(st models.SharedScenarioState) {
	c.couchShift = models.CouchShift{}
	if st.CouchShift != nil {
		c.couchShift = *st.CouchShift
	}
	c.appliedAt = nil
	if st.AppliedAt != nil {
		t := *st.AppliedAt
		c.appliedAt = &t
	}
}

func (c *Console) fieldStatusesLocked() []workflow.FieldStatus {
	out := make([]workflow.FieldStatus, len(c.fields))
	for i, f := range c.fields {
		out[i] = workflow.FieldStatus{
			Index:   i,
			Active:  f.IsActive(),
			Imaging: f.IsImaging(),
			Done:    c.sim.IsDone(i),
		}
	}
	return out
}

// nextDeliverable ищет следующее после after поле, которое еще нужно отпустить (по кругу)
func (c *Console) nextDeliverable(after int) int {
	n := len(c.fields)
	for step := 1; step <= n; step++ {
		i := (after + step + n) % n
		f := c.fields[i]
		if f.IsActive() && !f.IsImaging() && !c.sim.IsDone(i) {
			return i
		}
	}
	return -1
}

// passedImaging возвращает поля визуализации между from и next, через которые прошел отпуск.
// При next < 0 это все оставшиеся поля визуализации.
func (c *Console) passedImaging(from, next int) []int {
	n := len(c.fields)
	var out []int
	for step := 1; step < n; step++ {
		i := (from + step) % n
		if i == next {
			break
		}
		f := c.fields[i]
		if f.IsActive() && f.IsImaging() && !c.sim.IsDone(i) {
			out = append(out, i)
		}
	}
	return out
}

func (c *Console) result(err error) error {
	if err != nil {
		return c.reject(err)
	}
	c.accept()
	return nil
}

func (c *Console) reject(err error) error {
	var te *workflow.TransitionError
	if errors.As(err, &te) {
		c.setStatus(te.Reason)
	}
	return err
}

func (c *Console) accept() {
	c.setStatus(c.machine.Stage().StatusMessage())
}

func (c *Console) setStatus(status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
	c.notify()
}

func (c *Console) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}
