package display

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/services/seed"
)

// Параметры наложения kV-изображения на DRR
const (
	PxPerCm         = 18.0  // 1 см смещения = 18 px
	PitchDegPerDeg  = 1.0   // 1° наклона = 1° поворота изображения
	VrtScalePerCm   = 0.006 // 1 см VRT = 0.6% масштаба
	shiftStatusNone = "Shifts not applied."
)

// Оси смещения стола
const (
	AxisVRT   = "VRT"
	AxisLAT   = "LAT"
	AxisLNG   = "LNG"
	AxisPITCH = "PITCH"
)

// ImagingOptions - зависимости экрана визуализации
type ImagingOptions struct {
	Scenario *models.ScenarioRecord
	Mode     string
	Store    interfaces.SharedStateStore
	OnChange func()
	Logger   *logging.Logger
	Now      func() time.Time
}

// Imaging - экран совмещения kV-изображения с DRR и применения смещений стола.
type Imaging struct {
	mu sync.RWMutex

	scenario *models.ScenarioRecord
	mode     string
	seed     models.SeedOffset

	shift     models.CouchShift
	applied   *models.CouchShift
	appliedAt *time.Time
	status    string

	store       interfaces.SharedStateStore
	unsubscribe func()
	onChange    func()
	logger      *logging.Logger
	now         func() time.Time
}

func NewImaging(opts ImagingOptions) *Imaging {
	scenario := opts.Scenario
	if scenario == nil {
		scenario = &models.ScenarioRecord{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	im := &Imaging{
		scenario: scenario,
		mode:     opts.Mode,
		seed:     seed.Seed(scenario.ScenarioID),
		status:   shiftStatusNone,
		store:    opts.Store,
		onChange: opts.OnChange,
		logger:   logger.WithPrefix("IMAGING"),
		now:      now,
	}

	if im.store != nil {
		if st, ok := im.store.Read(scenario.ScenarioID); ok {
			im.applyShared(st)
			// повторное открытие экрана восстанавливает примененные смещения
			if im.applied != nil {
				im.shift = *im.applied
			}
		}
		im.unsubscribe = im.store.Subscribe(scenario.ScenarioID, im.onShared)
	}
	return im
}

func (im *Imaging) ScenarioID() string {
	return im.scenario.ScenarioID
}

// Nudge сдвигает значение по оси на delta с округлением до 0.1. Смещение не применяется.
func (im *Imaging) Nudge(axis string, delta float64) error {
	im.mu.Lock()
	switch strings.ToUpper(axis) {
	case AxisVRT:
		im.shift.Vertical = round1(im.shift.Vertical + delta)
	case AxisLAT:
		im.shift.Lateral = round1(im.shift.Lateral + delta)
	case AxisLNG:
		im.shift.Longitudinal = round1(im.shift.Longitudinal + delta)
	case AxisPITCH:
		im.shift.Pitch = round1(im.shift.Pitch + delta)
	default:
		im.mu.Unlock()
		return fmt.Errorf("неизвестная ось '%s'", axis)
	}
	im.status = "Shifts changed (not applied)."
	im.mu.Unlock()
	im.notify()
	return nil
}

// SetShift задает смещения целиком (ручной ввод)
func (im *Imaging) SetShift(cs models.CouchShift) {
	im.mu.Lock()
	im.shift = models.CouchShift{
		Vertical:     round1(cs.Vertical),
		Lateral:      round1(cs.Lateral),
		Longitudinal: round1(cs.Longitudinal),
		Pitch:        round1(cs.Pitch),
	}
	im.status = "Shifts changed (not applied)."
	im.mu.Unlock()
	im.notify()
}

// Reset обнуляет введенные смещения, примененные значения не меняются
func (im *Imaging) Reset() {
	im.mu.Lock()
	im.shift = models.CouchShift{}
	im.status = "Reset shifts (not applied)."
	im.mu.Unlock()
	im.notify()
}

// ApplyShifts записывает смещения и время применения в общее состояние (слиянием).
func (im *Imaging) ApplyShifts() models.CouchShift {
	im.mu.Lock()
	shift := im.shift
	at := im.now().UTC()
	applied := shift
	im.applied = &applied
	im.appliedAt = &at
	im.status = fmt.Sprintf("Shifts applied: VRT=%.1f, LAT=%.1f, LNG=%.1f, PITCH=%.1f°",
		shift.Vertical, shift.Lateral, shift.Longitudinal, shift.Pitch)
	im.mu.Unlock()

	if im.store != nil {
		im.store.Write(im.scenario.ScenarioID, models.NewPatch().WithCouchShift(shift).WithAppliedAt(&at), true)
	}
	im.logger.Info("Shifts applied", "scenario", im.scenario.ScenarioID,
		"vrt", shift.Vertical, "lat", shift.Lateral, "lng", shift.Longitudinal, "pitch", shift.Pitch)
	im.notify()
	return shift
}

// Overlay возвращает преобразование kV-изображения: исходное рассогласование плюс смещения
func Overlay(base models.SeedOffset, shift models.CouchShift) models.OverlayTransform {
	return models.OverlayTransform{
		TranslateXPx: base.TranslateX + shift.Lateral*PxPerCm,
		TranslateYPx: base.TranslateY + shift.Longitudinal*PxPerCm,
		RotateDeg:    base.RotateDeg + shift.Pitch*PitchDegPerDeg,
		Scale:        base.Scale * (1 + shift.Vertical*VrtScalePerCm),
	}
}

func (im *Imaging) Snapshot() models.ImagingView {
	im.mu.RLock()
	defer im.mu.RUnlock()

	expected, notes := im.scenario.ExpectedImaging()
	view := models.ImagingView{
		ScenarioID: im.scenario.ScenarioID,
		Mode:       im.mode,
		Seed:       im.seed,
		Shift:      im.shift,
		AppliedAt:  formatTime(im.appliedAt),
		Overlay:    Overlay(im.seed, im.shift),
		Status:     im.status,
		Expected:   expected,
		Notes:      notes,
		Reference:  im.scenario.ImagingData.Reference(),
		Image:      im.scenario.ImagingData.Overlay(),
	}
	if im.applied != nil {
		applied := *im.applied
		view.Applied = &applied
	}
	return view
}

func (im *Imaging) Close() {
	if im.unsubscribe != nil {
		im.unsubscribe()
	}
}

func (im *Imaging) onShared(st models.SharedScenarioState) {
	im.mu.Lock()
	im.applyShared(st)
	im.mu.Unlock()
	im.notify()
}

// applyShared вызывается под im.mu
func (im *Imaging) applyShared(st models.SharedScenarioState) {
	im.applied, im.appliedAt = nil, nil
	if st.CouchShift != nil {
		cs := *st.CouchShift
		im.applied = &cs
	}
	if st.AppliedAt != nil {
		t := *st.AppliedAt
		im.appliedAt = &t
	}
}

func (im *Imaging) notify() {
	if im.onChange != nil {
		im.onChange()
	}
}
