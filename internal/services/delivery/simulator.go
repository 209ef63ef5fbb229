package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iwtcode/linacService/internal/domain/models"
)

var (
	ErrBusy        = errors.New("delivery already in progress")
	ErrAlreadyDone = errors.New("field already delivered")
	ErrNoField     = errors.New("field index out of range")
	ErrNotInstant  = errors.New("field requires beam delivery")
)

// Clock - источник пауз между шагами анимации
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock ждет реальное время
type RealClock struct{}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// InstantClock не ждет вовсе (для тестов и пакетной прогонки)
type InstantClock struct{}

func (InstantClock) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// StepFunc вызывается после каждого шага анимации с копией прогресса поля.
type StepFunc func(index int, progress models.DeliveryProgress)

// Sample возвращает отпущенные MU и угол гантри поля при прогрессе p ∈ [0,1].
func Sample(field models.TreatmentField, p float64) (float64, float64) {
	p = clamp(p, 0, 1)
	plan := ParseGantry(field.GantryAngle)
	return field.PlanMU() * p, AngleAt(plan, InferDirection(field), p)
}

// Simulator моделирует отпуск дозы по полям сценария.
// Прогресс хранится отдельно от записи сценария, сама запись не изменяется.
type Simulator struct {
	mu       sync.RWMutex
	fields   []models.TreatmentField
	progress map[int]*models.DeliveryProgress
	running  bool
	timing   Timing
	clock    Clock
}

func NewSimulator(fields []models.TreatmentField, timing Timing, clock Clock) *Simulator {
	if clock == nil {
		clock = RealClock{}
	}
	progress := make(map[int]*models.DeliveryProgress, len(fields))
	for i := range fields {
		progress[i] = &models.DeliveryProgress{}
	}
	return &Simulator{
		fields:   fields,
		progress: progress,
		timing:   timing,
		clock:    clock,
	}
}

// Fields возвращает поля сценария
func (s *Simulator) Fields() []models.TreatmentField {
	return s.fields
}

// Timing возвращает параметры анимации
func (s *Simulator) Timing() Timing {
	return s.timing
}

func (s *Simulator) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Progress возвращает копию прогресса поля.
func (s *Simulator) Progress(index int) (models.DeliveryProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[index]
	if !ok {
		return models.DeliveryProgress{}, false
	}
	return copyProgress(p), true
}

// AllProgress возвращает копии прогресса всех полей по порядку.
func (s *Simulator) AllProgress() []models.DeliveryProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DeliveryProgress, len(s.fields))
	for i := range s.fields {
		out[i] = copyProgress(s.progress[i])
	}
	return out
}

func (s *Simulator) IsDone(index int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[index]
	return ok && p.Done
}

// Deliver анимирует отпуск дозы одного поля. Одновременно выполняется только одна анимация.
// При отмене контекста поле остается незавершенным.
func (s *Simulator) Deliver(ctx context.Context, index int, onStep StepFunc) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.fields) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNoField, index)
	}
	if s.running {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.progress[index].Done {
		s.mu.Unlock()
		return ErrAlreadyDone
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	field := s.fields[index]
	plan := ParseGantry(field.GantryAngle)
	dir := InferDirection(field)
	planMU := field.PlanMU()

	if IsInstant(field) {
		s.update(index, planMU, plan.StartDeg, true, onStep)
		return s.settle(ctx)
	}

	duration := s.timing.Duration(field)
	steps := s.timing.Steps(duration)
	pause := duration / time.Duration(steps)

	for step := 0; step < steps; step++ {
		frac := float64(step) / float64(steps)
		s.update(index, planMU*frac, AngleAt(plan, dir, frac), false, onStep)
		if err := s.clock.Sleep(ctx, pause); err != nil {
			return err
		}
	}

	s.update(index, planMU, AngleAt(plan, dir, 1), true, onStep)
	return s.settle(ctx)
}

// Complete отмечает мгновенное поле (визуализация или 0 MU) выполненным без анимации.
func (s *Simulator) Complete(index int, onStep StepFunc) error {
	s.mu.RLock()
	if index < 0 || index >= len(s.fields) {
		s.mu.RUnlock()
		return fmt.Errorf("%w: %d", ErrNoField, index)
	}
	field := s.fields[index]
	done := s.progress[index].Done
	s.mu.RUnlock()

	if !IsInstant(field) {
		return ErrNotInstant
	}
	if done {
		return nil
	}
	s.update(index, field.PlanMU(), ParseGantry(field.GantryAngle).StartDeg, true, onStep)
	return nil
}

func (s *Simulator) update(index int, mu, gantry float64, done bool, onStep StepFunc) {
	s.mu.Lock()
	p := s.progress[index]
	if mu > p.DeliveredMU {
		p.DeliveredMU = mu
	}
	g := gantry
	p.CurrentGantryDeg = &g
	if done {
		p.Done = true
	}
	snapshot := copyProgress(p)
	s.mu.Unlock()

	if onStep != nil {
		onStep(index, snapshot)
	}
}

func (s *Simulator) settle(ctx context.Context) error {
	if s.timing.Settle <= 0 {
		return nil
	}
	// Поле уже завершено, отмена во время паузы на результат не влияет
	_ = s.clock.Sleep(ctx, s.timing.Settle)
	return nil
}

func copyProgress(p *models.DeliveryProgress) models.DeliveryProgress {
	if p == nil {
		return models.DeliveryProgress{}
	}
	out := *p
	if p.CurrentGantryDeg != nil {
		g := *p.CurrentGantryDeg
		out.CurrentGantryDeg = &g
	}
	return out
}
