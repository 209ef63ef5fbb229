package models

// ErrorResponse представляет стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  struct {
		Code    int    `json:"code" example:"404"`
		Message string `json:"message" example:"Сессия не найдена"`
	} `json:"error"`
}

// MessageResponse представляет стандартный успешный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Delivery started"`
}

// OpenSessionResponse представляет ответ при успешном открытии сессии.
type OpenSessionResponse struct {
	Status      string       `json:"status" example:"ok"`
	SessionInfo *SessionInfo `json:"session_info"`
}

// GetSessionsResponse представляет ответ со списком всех сессий.
type GetSessionsResponse struct {
	Status   string         `json:"status" example:"ok"`
	PoolSize int            `json:"pool_size" example:"2"`
	Sessions []*SessionInfo `json:"sessions"`
}

// ConsoleResponse представляет снимок консоли.
type ConsoleResponse struct {
	Status  string       `json:"status" example:"ok"`
	Console *ConsoleView `json:"console"`
}

// ImagingResponse представляет снимок экрана визуализации.
type ImagingResponse struct {
	Status  string       `json:"status" example:"ok"`
	Imaging *ImagingView `json:"imaging"`
}

// StateResponse представляет запись общего состояния сценария.
type StateResponse struct {
	Status string              `json:"status" example:"ok"`
	Found  bool                `json:"found"`
	State  SharedScenarioState `json:"state"`
}

// ScenariosResponse представляет список файлов сценариев.
type ScenariosResponse struct {
	Status    string   `json:"status" example:"ok"`
	Scenarios []string `json:"scenarios"`
}

// RecordResponse возвращается после нажатия Record.
type RecordResponse struct {
	Status  string         `json:"status" example:"ok"`
	Record  *RecordRequest `json:"record"`
	Console *ConsoleView   `json:"console"`
}

// StatesResponse представляет все записи общего состояния.
type StatesResponse struct {
	Status string                `json:"status" example:"ok"`
	States []SharedScenarioState `json:"states"`
}
