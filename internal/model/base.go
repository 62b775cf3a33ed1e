package model

import (
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Exam{},
		&Question{},
		&Submission{},
		&Answer{},
	}
}
