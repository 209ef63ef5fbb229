package models

import "time"

// SeedOffset - исходное смещение kV-изображения относительно DRR, детерминированное по сценарию.
type SeedOffset struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	RotateDeg  float64 `json:"rotate_deg"`
	Scale      float64 `json:"scale"`
}

// DeliveryProgress - ход отпуска дозы для одного поля (только консоль, в памяти).
type DeliveryProgress struct {
	DeliveredMU      float64  `json:"delivered_mu"`
	Done             bool     `json:"done"`
	CurrentGantryDeg *float64 `json:"current_gantry_deg,omitempty"`
}

// Marker - отметка начала или окончания сценария для сбора данных исследования.
type Marker struct {
	ScenarioID string    `json:"scenario_id"`
	File       string    `json:"file"`
	Timestamp  time.Time `json:"timestamp"`
}

// RecordRequest передается внешнему модулю сбора данных после нажатия Record.
type RecordRequest struct {
	ScenarioID   string     `json:"scenario_id"`
	ScenarioFile string     `json:"scenario_file"`
	Mode         string     `json:"mode"`
	StartedAt    *time.Time `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
	TaskSeconds  float64    `json:"task_seconds"`
}
