package shared_state

import (
	"github.com/iwtcode/linacService/internal/interfaces"
	"gorm.io/gorm"
)

type SharedStateRepositoryImpl struct {
	db *gorm.DB
}

func NewSharedStateRepository(db *gorm.DB) interfaces.StateRepository {
	return &SharedStateRepositoryImpl{db: db}
}
