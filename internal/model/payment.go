package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCategory enum constants. LOAN_INSTALMENT is the distinguished
// category used for principal-repayment detection; SAVINGS and ADASHE move
// the stored balances on the loan.
const (
	PaymentCategoryInstalment   = "LOAN_INSTALMENT"
	PaymentCategorySavings      = "SAVINGS"
	PaymentCategoryAdashe       = "ADASHE"
	PaymentCategoryRegistration = "REGISTRATION_FEE"
	PaymentCategoryLoanFee      = "LOAN_FEE"
	PaymentCategoryTransfer     = "TRANSFER"
)

// PaymentDirection enum constants
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// WithdrawalNote is the fixed note attached to payments created by an
// approved withdrawal request.
const WithdrawalNote = "Approved Withdrawal"

// Payment is one immutable entry in a loan's ledger. Rows are never updated
// in place; a correction deletes the row through the reversal operation,
// which also re-applies the inverse balance delta.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LoanID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"loan_id"`
	Category  string          `gorm:"type:varchar(30);not null;index" json:"category"`
	Direction string          `gorm:"type:varchar(5);not null" json:"direction"` // IN, OUT
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Notes     string          `gorm:"type:text" json:"notes"`
	PaidAt    time.Time       `gorm:"not null;index" json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// ValidPaymentCategory reports whether category belongs to the fixed
// payment vocabulary.
func ValidPaymentCategory(category string) bool {
	switch category {
	case PaymentCategoryInstalment, PaymentCategorySavings, PaymentCategoryAdashe,
		PaymentCategoryRegistration, PaymentCategoryLoanFee, PaymentCategoryTransfer:
		return true
	}
	return false
}

// ValidDirection reports whether direction is one of the two ledger
// directions.
func ValidDirection(direction string) bool {
	return direction == DirectionIn || direction == DirectionOut
}

// RestrictedCategory reports whether Out-direction movements in this
// category must pass through the staged approval workflow.
func RestrictedCategory(category string) bool {
	return category == PaymentCategorySavings || category == PaymentCategoryAdashe
}
