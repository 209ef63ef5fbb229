package usecases

import (
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/services/session"
)

// UseCases - агрегатор всех use case интерфейсов
type UseCases struct {
	interfaces.Usecases
}

// NewUsecases - конструктор для UseCases
func NewUsecases(
	sessions *session.Manager,
	loader interfaces.ScenarioLoader,
	store interfaces.SharedStateStore,
	logger *logging.Logger,
) interfaces.Usecases {
	return NewUsecase(sessions, loader, store, logger)
}
