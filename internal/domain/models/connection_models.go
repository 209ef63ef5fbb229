package models

import (
	"encoding/json"
	"time"
)

// Роли дисплеев
const (
	RoleConsole = "console"
	RoleImaging = "imaging"
)

// OpenSessionRequest определяет структуру запроса на открытие сессии дисплея.
type OpenSessionRequest struct {
	File string `json:"file" binding:"required"` // "A2_computer_withErrors.json"
	Role string `json:"role" binding:"required,oneof=console imaging"`
}

// SessionRequest определяет структуру для запросов, использующих SessionID.
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// SelectFieldRequest - выбор текущего поля на консоли
type SelectFieldRequest struct {
	Index *int `json:"index" binding:"required,gte=0"`
}

// ChecklistRequest - отметка пункта проверочного листа
type ChecklistRequest struct {
	Index   *int `json:"index" binding:"required,gte=0"`
	Checked bool `json:"checked"`
}

// ToleranceRequest - параметры геометрии вне допуска (внешняя проверка)
// и/или фактические значения для сравнения с планом выбранного поля.
type ToleranceRequest struct {
	Parameters []string           `json:"parameters"`
	Actual     map[string]float64 `json:"actual"`
}

// NudgeRequest - сдвиг изображения кнопками со стрелками
type NudgeRequest struct {
	Axis  string  `json:"axis" binding:"required,oneof=VRT LAT LNG PITCH"`
	Delta float64 `json:"delta"`
}

// ShiftRequest - ввод значений смещений вручную
type ShiftRequest struct {
	CouchShift CouchShift `json:"couch_shift"`
}

// StateWriteRequest - прямая запись в общее состояние сценария
type StateWriteRequest struct {
	Patch StatePatch `json:"patch" binding:"required"`
	Merge *bool      `json:"merge"`
}

// SessionInfo представляет открытую сессию дисплея в пуле.
type SessionInfo struct {
	SessionID  string    `json:"session_id"`
	Role       string    `json:"role"`
	ScenarioID string    `json:"scenario_id"`
	File       string    `json:"file"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsed   time.Time `json:"last_used"`
	UseCount   int64     `json:"use_count"`
}

// SessionEvent - событие сессии, отправляемое рендереру через WebSocket.
type SessionEvent struct {
	SessionID string          `json:"session_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
