package models

import (
	"encoding/json"
	"time"
)

// Ключи записи общего состояния. Формат записи должен совпадать у консоли и у экрана визуализации.
const (
	KeyScenarioID = "scenarioId"
	KeyCouchShift = "couchShift"
	KeyAppliedAt  = "appliedAtTimestamp"
)

// NoticeTypeState - тип широковещательного уведомления об изменении состояния
const NoticeTypeState = "state"

// CouchShift - смещения стола, применяемые оператором (см / градусы).
type CouchShift struct {
	Vertical     float64 `json:"vertical"`
	Lateral      float64 `json:"lateral"`
	Longitudinal float64 `json:"longitudinal"`
	Pitch        float64 `json:"pitch"`
}

// StateRecord - сохраняемая запись общего состояния сценария (ключ -> JSON-значение).
// Неизвестные ключи сохраняются без изменений.
type StateRecord map[string]json.RawMessage

// StatePatch - частичное изменение записи общего состояния.
type StatePatch map[string]json.RawMessage

// SharedScenarioState - типизированное представление записи общего состояния.
type SharedScenarioState struct {
	ScenarioID string      `json:"scenarioId"`
	CouchShift *CouchShift `json:"couchShift,omitempty"`
	AppliedAt  *time.Time  `json:"appliedAtTimestamp"`
	Record     StateRecord `json:"-"`
}

// StateNotice - широковещательное уведомление о записи состояния другим дисплеем.
type StateNotice struct {
	Type       string    `json:"type"`
	ScenarioID string    `json:"scenarioId"`
	Origin     string    `json:"origin"`
	SentAt     time.Time `json:"sentAt"`
}

// NewPatch создает пустой патч.
func NewPatch() StatePatch {
	return StatePatch{}
}

// Set сериализует значение и добавляет его в патч под указанным ключом.
func (p StatePatch) Set(key string, value interface{}) StatePatch {
	raw, err := json.Marshal(value)
	if err != nil {
		return p
	}
	p[key] = raw
	return p
}

// WithCouchShift добавляет в патч смещения стола.
func (p StatePatch) WithCouchShift(cs CouchShift) StatePatch {
	return p.Set(KeyCouchShift, cs)
}

// WithAppliedAt добавляет в патч время применения смещений (nil записывается как null).
func (p StatePatch) WithAppliedAt(t *time.Time) StatePatch {
	if t == nil {
		p[KeyAppliedAt] = json.RawMessage("null")
		return p
	}
	return p.Set(KeyAppliedAt, t.UTC().Format(time.RFC3339Nano))
}

// Clone возвращает копию записи.
func (r StateRecord) Clone() StateRecord {
	out := make(StateRecord, len(r))
	for k, v := range r {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Apply применяет патч к записи. При merge=true выполняется поверхностное слияние,
// иначе запись полностью заменяется содержимым патча.
func (r StateRecord) Apply(patch StatePatch, merge bool) StateRecord {
	var next StateRecord
	if merge {
		next = r.Clone()
	} else {
		next = make(StateRecord, len(patch))
	}
	for k, v := range patch {
		next[k] = append(json.RawMessage(nil), v...)
	}
	return next
}

// Decode строит типизированное представление записи. Поврежденные значения игнорируются.
func (r StateRecord) Decode(scenarioID string) SharedScenarioState {
	st := SharedScenarioState{ScenarioID: scenarioID, Record: r.Clone()}

	if raw, ok := r[KeyScenarioID]; ok {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			st.ScenarioID = id
		}
	}

	if raw, ok := r[KeyCouchShift]; ok {
		var aux struct {
			Vertical     Number `json:"vertical"`
			Lateral      Number `json:"lateral"`
			Longitudinal Number `json:"longitudinal"`
			Pitch        Number `json:"pitch"`
		}
		if err := json.Unmarshal(raw, &aux); err == nil && string(raw) != "null" {
			st.CouchShift = &CouchShift{
				Vertical:     aux.Vertical.Float(),
				Lateral:      aux.Lateral.Float(),
				Longitudinal: aux.Longitudinal.Float(),
				Pitch:        aux.Pitch.Float(),
			}
		}
	}

	if raw, ok := r[KeyAppliedAt]; ok {
		var ts string
		if err := json.Unmarshal(raw, &ts); err == nil {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				st.AppliedAt = &t
			}
		}
	}

	return st
}

// MarshalJSON отдает запись целиком, чтобы сохранить ключи, неизвестные этой реализации.
func (s SharedScenarioState) MarshalJSON() ([]byte, error) {
	if s.Record != nil {
		return json.Marshal(map[string]json.RawMessage(s.Record))
	}
	type plain SharedScenarioState
	return json.Marshal(plain(s))
}
