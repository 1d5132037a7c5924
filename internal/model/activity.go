package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateBorrower = "CREATE_BORROWER"
	ActionUpdateBorrower = "UPDATE_BORROWER"
	ActionDeleteBorrower = "DELETE_BORROWER"
	ActionCreateLoan     = "CREATE_LOAN"
	ActionUpdateDPD      = "UPDATE_DPD"

	// Ledger actions
	ActionApplyPayment   = "APPLY_PAYMENT"
	ActionReversePayment = "REVERSE_PAYMENT"

	// Approval workflow actions
	ActionSubmitWithdrawal    = "SUBMIT_WITHDRAWAL"
	ActionAdvanceWithdrawal   = "ADVANCE_WITHDRAWAL"
	ActionRejectWithdrawal    = "REJECT_WITHDRAWAL"
	ActionApproveWithdrawal   = "APPROVE_WITHDRAWAL"
	ActionAdvanceDisbursement = "ADVANCE_DISBURSEMENT"
	ActionRejectDisbursement  = "REJECT_DISBURSEMENT"
)

// ActivityLog tracks Who, What, and When for every engine mutation
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index" json:"actor_id"` // Nullable when triggered by the scheduler
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable label
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
