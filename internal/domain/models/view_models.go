package models

// ChecklistItem - пункт проверочного листа Prepare
type ChecklistItem struct {
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// FieldView - строка списка полей консоли
type FieldView struct {
	Index            int      `json:"index"`
	Name             string   `json:"name"`
	Technique        string   `json:"technique"`
	BeamType         string   `json:"beam_type"`
	Active           bool     `json:"active"`
	Imaging          bool     `json:"imaging"`
	PlanMU           float64  `json:"plan_mu"`
	DoseRate         float64  `json:"dose_rate"`
	PlanGantryDeg    float64  `json:"plan_gantry_deg"`
	IsArc            bool     `json:"is_arc"`
	DeliveredMU      float64  `json:"delivered_mu"`
	Done             bool     `json:"done"`
	CurrentGantryDeg *float64 `json:"current_gantry_deg,omitempty"`
	TimeMin          float64  `json:"time_min"`
}

// ConsoleView - снимок состояния консоли для рендеринга
type ConsoleView struct {
	ScenarioID     string          `json:"scenario_id"`
	PatientID      string          `json:"patient_id"`
	Plan           string          `json:"plan"`
	Stage          string          `json:"stage"`
	Status         string          `json:"status"`
	SelectedField  int             `json:"selected_field"`
	Delivering     bool            `json:"delivering"`
	Fields         []FieldView     `json:"fields"`
	Checklist      []ChecklistItem `json:"checklist,omitempty"`
	OverrideNeeded []string        `json:"override_needed,omitempty"`
	CouchShift     CouchShift      `json:"couch_shift"`
	ShiftAppliedAt *string         `json:"shift_applied_at,omitempty"`
	Markers        MarkersView     `json:"markers"`
	RecordEnabled  bool            `json:"record_enabled"`
}

// MarkersView - отметки начала и окончания сценария
type MarkersView struct {
	StartedAt   *string `json:"started_at,omitempty"`
	EndedAt     *string `json:"ended_at,omitempty"`
	TaskSeconds float64 `json:"task_seconds"`
}

// OverlayTransform - итоговое преобразование kV-изображения поверх DRR
type OverlayTransform struct {
	TranslateXPx float64 `json:"translate_x_px"`
	TranslateYPx float64 `json:"translate_y_px"`
	RotateDeg    float64 `json:"rotate_deg"`
	Scale        float64 `json:"scale"`
}

// ImagingView - снимок состояния экрана визуализации
type ImagingView struct {
	ScenarioID string           `json:"scenario_id"`
	Mode       string           `json:"mode"`
	Seed       SeedOffset       `json:"seed"`
	Shift      CouchShift       `json:"shift"`
	Applied    *CouchShift      `json:"applied,omitempty"`
	AppliedAt  *string          `json:"applied_at,omitempty"`
	Overlay    OverlayTransform `json:"overlay"`
	Status     string           `json:"status"`
	Expected   string           `json:"expected_imaging"`
	Notes      string           `json:"notes"`
	Reference  string           `json:"reference_image,omitempty"`
	Image      string           `json:"overlay_image,omitempty"`
}
