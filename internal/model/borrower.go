package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Borrower represents a registered member of the cooperative. A borrower owns
// loans; deleting a borrower soft-deletes the record and keeps the ledger
// history reachable.
type Borrower struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone"`
	Community      string         `gorm:"type:varchar(255)" json:"community"`
	GuarantorName  string         `gorm:"type:varchar(255)" json:"guarantor_name"`
	GuarantorPhone string         `gorm:"type:varchar(50)" json:"guarantor_phone"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
