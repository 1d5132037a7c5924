package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanType enum constants
const (
	LoanTypeWeeklyBusiness = "WEEKLY_BUSINESS"
	LoanTypeMonthlyAgric   = "MONTHLY_AGRIC"
)

// Loan is the aggregate root for a single credit facility. Stored balances
// (savings, adashe) are mutated only through the command methods below;
// outstanding principal is never stored and is always derived from the
// instalment payments.
type Loan struct {
	ID                 uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BorrowerID         uuid.UUID           `gorm:"type:uuid;not null;index" json:"borrower_id"`
	Borrower           *Borrower           `gorm:"foreignKey:BorrowerID" json:"borrower,omitempty"`
	LoanType           string              `gorm:"type:varchar(30);not null" json:"loan_type"`   // WEEKLY_BUSINESS, MONTHLY_AGRIC
	Principal          decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"principal"` // Fixed at disbursement, includes financed interest
	DisbursementStatus string              `gorm:"type:varchar(20);not null;default:'PENDING_STAGE_1';index" json:"disbursement_status"`
	DisbursementDate   *time.Time          `json:"disbursement_date"` // Nil until disbursement is approved
	SavingsBalance     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"savings_balance"`
	AdasheBalance      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"adashe_balance"`
	DPD                int                 `gorm:"not null;default:0" json:"dpd"` // Days past due
	RiskTier           string              `gorm:"type:varchar(20);not null;default:'CURRENT';index" json:"risk_tier"`
	Payments           []Payment           `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	Requests           []WithdrawalRequest `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"requests,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	DeletedAt          gorm.DeletedAt      `gorm:"index" json:"-"`
}

// ApplyEffect mutates the stored balance touched by a payment effect.
// Instalments and fee-type categories carry no stored-balance side effect:
// instalments reduce the derived outstanding principal, fees count toward
// reporting aggregates only.
func (l *Loan) ApplyEffect(category, direction string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	switch category {
	case PaymentCategorySavings:
		return l.adjustBalance(&l.SavingsBalance, direction, amount)
	case PaymentCategoryAdashe:
		return l.adjustBalance(&l.AdasheBalance, direction, amount)
	default:
		return nil
	}
}

// ReverseEffect undoes the balance effect a payment had when it was applied.
// Reversing can itself fail the non-negativity check (e.g. reversing a savings
// deposit that has since been withdrawn); the caller must not remove the
// payment in that case.
func (l *Loan) ReverseEffect(p *Payment) error {
	inverse := DirectionOut
	if p.Direction == DirectionOut {
		inverse = DirectionIn
	}
	return l.ApplyEffect(p.Category, inverse, p.Amount)
}

func (l *Loan) adjustBalance(balance *decimal.Decimal, direction string, amount decimal.Decimal) error {
	if direction == DirectionOut {
		next := balance.Sub(amount)
		if next.IsNegative() {
			return ErrInsufficientFunds
		}
		*balance = next
		return nil
	}
	*balance = balance.Add(amount)
	return nil
}

// OutstandingPrincipal derives the remaining principal from the total of
// instalment payments received. Treated as a signed quantity: inconsistent
// reversals can drive it negative and callers must tolerate that.
func (l *Loan) OutstandingPrincipal(instalmentsPaid decimal.Decimal) decimal.Decimal {
	return l.Principal.Sub(instalmentsPaid)
}
