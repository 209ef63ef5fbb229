package delivery

import (
	"math"
	"strings"
	"time"

	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/domain/models"
)

// fallbackSeconds - длительность поля с MU > 0, но без положительной мощности дозы
const fallbackSeconds = 5.0

// Timing - ограничения анимации отпуска дозы
type Timing struct {
	MinSeconds     float64
	MaxSeconds     float64
	MinSteps       int
	StepsPerSecond float64
	Settle         time.Duration
}

// DefaultTiming - 2.5..10 с, не меньше 15 шагов, 20 шагов в секунду
func DefaultTiming() Timing {
	return TimingFromProfile(config.DefaultStudyProfile().Delivery)
}

// TimingFromProfile строит Timing из профиля исследования.
func TimingFromProfile(d config.DeliveryTiming) Timing {
	return Timing{
		MinSeconds:     d.MinSeconds,
		MaxSeconds:     d.MaxSeconds,
		MinSteps:       d.MinSteps,
		StepsPerSecond: d.StepsPerSecond,
		Settle:         time.Duration(d.SettleMs) * time.Millisecond,
	}
}

// IsInstant - поле завершается мгновенно (визуализация или нулевые MU)
func IsInstant(field models.TreatmentField) bool {
	return field.IsImaging() || field.PlanMU() <= 0
}

// ClinicalMinutes - клиническое время отпуска: MU / мощность дозы
func ClinicalMinutes(field models.TreatmentField) float64 {
	rate := field.Rate()
	if rate <= 0 {
		return 0
	}
	return field.PlanMU() / rate
}

// Duration возвращает длительность анимации поля, ограниченную диапазоном Timing.
func (t Timing) Duration(field models.TreatmentField) time.Duration {
	if IsInstant(field) {
		return 0
	}
	sec := fallbackSeconds
	if field.Rate() > 0 {
		sec = ClinicalMinutes(field) * 60
	}
	sec = clamp(sec, t.MinSeconds, t.MaxSeconds)
	return time.Duration(sec * float64(time.Second))
}

// Steps возвращает число шагов анимации для заданной длительности.
func (t Timing) Steps(d time.Duration) int {
	steps := int(math.Floor(d.Seconds() * t.StepsPerSecond))
	if steps < t.MinSteps {
		steps = t.MinSteps
	}
	return steps
}

// TechniqueLabel нормализует классификатор техники облучения
func TechniqueLabel(technique string) string {
	t := strings.ToUpper(technique)
	switch {
	case strings.Contains(t, "VMAT"):
		return "VMAT"
	case strings.Contains(t, "IMRT"):
		return "IMRT"
	case strings.Contains(t, "3D"):
		return "3DCRT"
	case strings.Contains(t, "STATIC"), technique == "":
		return "STATIC"
	}
	return technique
}

// BeamTypeLabel - подпись типа пучка для консоли
func BeamTypeLabel(field models.TreatmentField) string {
	switch TechniqueLabel(field.Technique) {
	case "VMAT":
		return "ARC (VMAT)"
	case "IMRT":
		return "IMRT"
	case "3DCRT":
		return "STATIC (3DCRT)"
	}
	return "STATIC (Static Photon)"
}
