package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalRequest represents an in-flight request to withdraw from a loan's
// savings or adashe balance. Out-direction movements on those balances are
// never applied directly; they exist only as a request until the staged
// approval chain reaches a terminal status. A request whose status is one of
// the pending stages belongs to the loan's pending set; terminal rows are kept
// for history.
type WithdrawalRequest struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LoanID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"loan_id"`
	Category        string          `gorm:"type:varchar(30);not null" json:"category"` // SAVINGS, ADASHE
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Status          string          `gorm:"type:varchar(20);not null;default:'PENDING_STAGE_1';index" json:"status"`
	RequestedBy     *uuid.UUID      `gorm:"type:uuid;index" json:"requested_by"`
	Stage1By        *uuid.UUID      `gorm:"type:uuid" json:"stage1_by"` // Approver who cleared stage 1
	Stage2By        *uuid.UUID      `gorm:"type:uuid" json:"stage2_by"`
	Stage3By        *uuid.UUID      `gorm:"type:uuid" json:"stage3_by"`
	PaymentID       *uuid.UUID      `gorm:"type:uuid" json:"payment_id"` // Set once the approved effect is posted
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	ResolvedAt      *time.Time      `json:"resolved_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
