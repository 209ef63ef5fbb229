package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultDoseRate - мощность дозы по умолчанию (MU/мин), если в поле она не указана
const DefaultDoseRate = 600.0

// Number - числовое значение сценария. Принимает как JSON-число, так и строку с числом.
// Некорректные значения превращаются в 0 и не прерывают разбор сценария.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// GantryAngle хранит угол гантри так, как он указан в плане: число ("270")
// или дуга в виде строки "A-B" ("180-179").
type GantryAngle string

func (g *GantryAngle) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		*g = ""
		return nil
	}
	switch t := v.(type) {
	case float64:
		*g = GantryAngle(strconv.FormatFloat(t, 'f', -1, 64))
	case string:
		*g = GantryAngle(strings.TrimSpace(t))
	default:
		*g = ""
	}
	return nil
}

// Descriptor - необязательное текстовое описание (клин, болюс).
// Нестроковые значения сохраняются в компактном JSON-виде.
type Descriptor string

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Descriptor(strings.TrimSpace(s))
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*d = ""
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		*d = ""
		return nil
	}
	*d = Descriptor(buf.String())
	return nil
}

// Flag - логический признак сценария. Кроме true/false принимает строки
// "true", "1", "yes" и их отрицания. Нераспознанное значение считается true.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(string(data)), `"`)))
	switch s {
	case "false", "0", "no", "off":
		*f = false
	default:
		*f = true
	}
	return nil
}

// JawPositions - положения шторок коллиматора в см
type JawPositions struct {
	X1 Number `json:"X1"`
	X2 Number `json:"X2"`
	Y1 Number `json:"Y1"`
	Y2 Number `json:"Y2"`
}

// CouchCoordinates - плановые координаты стола в см
type CouchCoordinates struct {
	Vertical     Number `json:"vertical"`
	Longitudinal Number `json:"longitudinal"`
	Lateral      Number `json:"lateral"`
}

// TreatmentField описывает одно поле облучения из плана.
type TreatmentField struct {
	FieldName        string           `json:"fieldName"`
	Technique        string           `json:"technique"`
	Type             string           `json:"type"`
	ImagingModality  string           `json:"imagingModality,omitempty"`
	Energy           string           `json:"energy,omitempty"`
	MonitorUnits     Number           `json:"monitorUnits"`
	DoseRate         *Number          `json:"doseRate,omitempty"`
	GantryAngle      GantryAngle      `json:"gantryAngle"`
	CollimatorAngle  Number           `json:"collimatorAngle"`
	CouchAngle       Number           `json:"couchAngle"`
	PitchAngle       Number           `json:"pitchAngle"`
	RollAngle        Number           `json:"rollAngle"`
	Jaws             JawPositions     `json:"jawPositions_cm"`
	CouchCoordinates CouchCoordinates `json:"couchCoordinates_cm"`
	Wedge            Descriptor       `json:"wedge,omitempty"`
	Bolus            Descriptor       `json:"bolus,omitempty"`
	Active           *Flag            `json:"active,omitempty"`
}

// IsActive - поле участвует в лечении (по умолчанию true)
func (f TreatmentField) IsActive() bool {
	return f.Active == nil || bool(*f.Active)
}

// IsImaging - поле только для визуализации (kV/CBCT), MU не отпускаются
func (f TreatmentField) IsImaging() bool {
	return strings.Contains(strings.ToLower(f.Type), "imaging") || f.ImagingModality != ""
}

// PlanMU возвращает плановое число MU, отрицательные значения считаются нулем.
func (f TreatmentField) PlanMU() float64 {
	if mu := f.MonitorUnits.Float(); mu > 0 {
		return mu
	}
	return 0
}

// Rate возвращает мощность дозы в MU/мин.
func (f TreatmentField) Rate() float64 {
	if f.DoseRate == nil {
		return DefaultDoseRate
	}
	return f.DoseRate.Float()
}

// TreatmentPlan - блок плана лечения внутри сценария
type TreatmentPlan struct {
	PlanID          string           `json:"planId"`
	PlanName        string           `json:"planName"`
	ImagingType     Descriptor       `json:"imagingType,omitempty"`
	Imaging         Descriptor       `json:"imaging,omitempty"`
	ImagingNotes    Descriptor       `json:"imagingNotes,omitempty"`
	TreatmentFields []TreatmentField `json:"treatmentFields"`
}

// ImagingData - пути к изображениям сценария для экрана визуализации
type ImagingData struct {
	DRRImage       string `json:"drrImage,omitempty"`
	ReferenceImage string `json:"referenceImage,omitempty"`
	KVImage        string `json:"kvImage,omitempty"`
	CBCTImage      string `json:"cbctImage,omitempty"`
	OverlayImage   string `json:"overlayImage,omitempty"`
}

// Reference возвращает эталонное изображение (DRR)
func (d ImagingData) Reference() string {
	return firstNonEmpty(d.DRRImage, d.ReferenceImage)
}

// Overlay возвращает изображение, совмещаемое с эталоном
func (d ImagingData) Overlay() string {
	return firstNonEmpty(d.KVImage, d.CBCTImage, d.OverlayImage)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ScenarioRecord - запись сценария. Загружается один раз на сессию дисплея и не изменяется.
type ScenarioRecord struct {
	ScenarioID      string           `json:"-"`
	File            string           `json:"-"`
	PatientID       string           `json:"patientId"`
	TreatmentPlan   *TreatmentPlan   `json:"treatmentPlan,omitempty"`
	TreatmentFields []TreatmentField `json:"treatmentFields,omitempty"`
	ImagingNotes    Descriptor       `json:"imagingNotes,omitempty"`
	ImagingData     ImagingData      `json:"imagingData"`
}

// Fields возвращает упорядоченный список полей: сначала из плана, затем верхнего уровня.
func (s *ScenarioRecord) Fields() []TreatmentField {
	if s == nil {
		return nil
	}
	if s.TreatmentPlan != nil && s.TreatmentPlan.TreatmentFields != nil {
		return s.TreatmentPlan.TreatmentFields
	}
	return s.TreatmentFields
}

// PlanLabel возвращает идентификатор плана для отображения.
func (s *ScenarioRecord) PlanLabel() string {
	if s == nil {
		return ""
	}
	if s.TreatmentPlan != nil {
		if s.TreatmentPlan.PlanID != "" {
			return s.TreatmentPlan.PlanID
		}
		if s.TreatmentPlan.PlanName != "" {
			return s.TreatmentPlan.PlanName
		}
	}
	return s.ScenarioID
}

// ExpectedImaging возвращает ожидаемый тип визуализации и заметки ("—", если не указаны)
func (s *ScenarioRecord) ExpectedImaging() (string, string) {
	const none = "—"
	if s == nil {
		return none, none
	}
	expected, notes := "", string(s.ImagingNotes)
	if s.TreatmentPlan != nil {
		expected = firstNonEmpty(string(s.TreatmentPlan.ImagingType), string(s.TreatmentPlan.Imaging))
		notes = firstNonEmpty(string(s.TreatmentPlan.ImagingNotes), notes)
	}
	return firstNonEmpty(expected, none), firstNonEmpty(notes, none)
}
