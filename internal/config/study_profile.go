package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultChecklist - пункты ежедневной проверки перед лечением
var DefaultChecklist = []string{
	"Patient ID verified",
	"Plan & treatment site confirmed",
	"Immobilization / indexing correct",
	"Machine clearance visually verified",
	"Therapist alerts reviewed",
}

// StudyProfile - настройки исследования: режим, проверочный лист, тайминги симуляции, допуски.
type StudyProfile struct {
	Mode       string          `mapstructure:"mode"`
	Checklist  []string        `mapstructure:"checklist"`
	Delivery   DeliveryTiming  `mapstructure:"delivery"`
	Tolerances ToleranceLimits `mapstructure:"tolerances"`
}

// DeliveryTiming - ограничения длительности анимации отпуска дозы
type DeliveryTiming struct {
	MinSeconds     float64 `mapstructure:"min_seconds"`
	MaxSeconds     float64 `mapstructure:"max_seconds"`
	MinSteps       int     `mapstructure:"min_steps"`
	StepsPerSecond float64 `mapstructure:"steps_per_second"`
	SettleMs       int     `mapstructure:"settle_ms"` // пауза после завершения поля
}

// ToleranceLimits - допустимое отклонение факта от плана
type ToleranceLimits struct {
	AngleDeg   float64 `mapstructure:"angle_deg"`
	PositionCm float64 `mapstructure:"position_cm"`
	MU         float64 `mapstructure:"mu"`
}

// DefaultStudyProfile возвращает профиль со значениями по умолчанию
func DefaultStudyProfile() *StudyProfile {
	return &StudyProfile{
		Mode:      "study",
		Checklist: append([]string(nil), DefaultChecklist...),
		Delivery: DeliveryTiming{
			MinSeconds:     2.5,
			MaxSeconds:     10,
			MinSteps:       15,
			StepsPerSecond: 20,
			SettleMs:       250,
		},
		Tolerances: ToleranceLimits{
			AngleDeg:   2.0,
			PositionCm: 0.5,
			MU:         2.0,
		},
	}
}

// LoadStudyProfile читает профиль исследования из файла (YAML/JSON) и переменных STUDY_*.
// Пустой путь означает профиль по умолчанию.
func LoadStudyProfile(path string) (*StudyProfile, error) {
	def := DefaultStudyProfile()

	v := viper.New()
	v.SetEnvPrefix("STUDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", def.Mode)
	v.SetDefault("checklist", def.Checklist)
	v.SetDefault("delivery.min_seconds", def.Delivery.MinSeconds)
	v.SetDefault("delivery.max_seconds", def.Delivery.MaxSeconds)
	v.SetDefault("delivery.min_steps", def.Delivery.MinSteps)
	v.SetDefault("delivery.steps_per_second", def.Delivery.StepsPerSecond)
	v.SetDefault("delivery.settle_ms", def.Delivery.SettleMs)
	v.SetDefault("tolerances.angle_deg", def.Tolerances.AngleDeg)
	v.SetDefault("tolerances.position_cm", def.Tolerances.PositionCm)
	v.SetDefault("tolerances.mu", def.Tolerances.MU)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("не удалось прочитать профиль исследования '%s': %w", path, err)
		}
	}

	profile := &StudyProfile{}
	if err := v.Unmarshal(profile); err != nil {
		return nil, fmt.Errorf("не удалось разобрать профиль исследования: %w", err)
	}

	if err := profile.validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *StudyProfile) validate() error {
	if len(p.Checklist) == 0 {
		p.Checklist = append([]string(nil), DefaultChecklist...)
	}
	d := p.Delivery
	if d.MinSeconds < 0 || d.MaxSeconds <= 0 || d.MinSeconds > d.MaxSeconds {
		return fmt.Errorf("некорректные границы длительности отпуска: %.2f..%.2f с", d.MinSeconds, d.MaxSeconds)
	}
	if d.MinSteps < 1 {
		return fmt.Errorf("минимальное число шагов должно быть положительным, получено %d", d.MinSteps)
	}
	if d.StepsPerSecond <= 0 {
		return fmt.Errorf("число шагов в секунду должно быть положительным, получено %.2f", d.StepsPerSecond)
	}
	return nil
}
