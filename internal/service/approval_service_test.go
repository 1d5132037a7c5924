package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microfin/internal/model"
	"microfin/internal/service"
	"microfin/internal/workflow"
)

type approvalFixture struct {
	loanRepo       *fakeLoanRepo
	withdrawalRepo *fakeWithdrawalRepo
	paymentRepo    *fakePaymentRepo
	activityRepo   *fakeActivityRepo
	svc            service.ApprovalService
	loan           model.Loan
}

func newApprovalFixture(t *testing.T, savings decimal.Decimal) *approvalFixture {
	t.Helper()

	f := &approvalFixture{
		loanRepo:       newFakeLoanRepo(),
		withdrawalRepo: newFakeWithdrawalRepo(),
		paymentRepo:    newFakePaymentRepo(),
		activityRepo:   newFakeActivityRepo(),
	}
	f.svc = service.NewApprovalService(f.loanRepo, f.withdrawalRepo, f.paymentRepo, f.activityRepo, fakeTxManager{}, service.NewLoanLocker(), nil)

	loan := model.Loan{
		LoanType:           model.LoanTypeWeeklyBusiness,
		Principal:          decimal.NewFromInt(160000),
		DisbursementStatus: workflow.StatusPendingStage1,
		SavingsBalance:     savings,
		AdasheBalance:      decimal.Zero,
	}
	require.NoError(t, f.loanRepo.Create(context.Background(), &loan))
	f.loan = loan
	return f
}

func TestSubmitWithdrawal(t *testing.T) {
	f := newApprovalFixture(t, decimal.NewFromInt(1000))
	ctx := context.Background()

	actor := uuid.NewString()
	resp, err := f.svc.SubmitWithdrawal(ctx, f.loan.ID.String(), actor, service.SubmitWithdrawalRequest{
		Category: model.PaymentCategorySavings,
		Amount:   "400",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingStage1, resp.Status)
	require.NotNil(t, resp.RequestedBy)
	assert.Equal(t, actor, *resp.RequestedBy)

	// Submission has no balance effect.
	stored, err := f.loanRepo.FindByID(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.SavingsBalance.Equal(decimal.NewFromInt(1000)))

	pending, err := f.withdrawalRepo.ListPendingByLoan(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSubmitWithdrawalValidation(t *testing.T) {
	f := newApprovalFixture(t, decimal.NewFromInt(1000))
	ctx := context.Background()

	_, err := f.svc.SubmitWithdrawal(ctx, f.loan.ID.String(), "", service.SubmitWithdrawalRequest{
		Category: model.PaymentCategorySavings,
		Amount:   "0",
	})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = f.svc.SubmitWithdrawal(ctx, uuid.NewString(), "", service.SubmitWithdrawalRequest{
		Category: model.PaymentCategorySavings,
		Amount:   "100",
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWithdrawalApprovalChain(t *testing.T) {
	f := newApprovalFixture(t, decimal.NewFromInt(1000))
	ctx := context.Background()

	submitted, err := f.svc.SubmitWithdrawal(ctx, f.loan.ID.String(), uuid.NewString(), service.SubmitWithdrawalRequest{
		Category: model.PaymentCategorySavings,
		Amount:   "400",
	})
	require.NoError(t, err)

	approvers := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}

	resp, err := f.svc.AdvanceWithdrawal(ctx, submitted.ID, approvers[0])
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingStage2, resp.Status)
	assert.Nil(t, resp.PaymentID, "no effect before terminal approval")

	resp, err = f.svc.AdvanceWithdrawal(ctx, submitted.ID, approvers[1])
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingStage3, resp.Status)

	resp, err = f.svc.AdvanceWithdrawal(ctx, submitted.ID, approvers[2])
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, resp.Status)

	require.NotNil(t, resp.Stage1By)
	require.NotNil(t, resp.Stage2By)
	require.NotNil(t, resp.Stage3By)
	assert.Equal(t, approvers[0], *resp.Stage1By)
	assert.Equal(t, approvers[1], *resp.Stage2By)
	assert.Equal(t, approvers[2], *resp.Stage3By)
	require.NotNil(t, resp.PaymentID)
	require.NotNil(t, resp.ResolvedAt)

	// Terminal approval posted the Out payment and debited the balance.
	stored, err := f.loanRepo.FindByID(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.SavingsBalance.Equal(decimal.NewFromInt(600)))

	pid, err := uuid.Parse(*resp.PaymentID)
	require.NoError(t, err)
	payment, err := f.paymentRepo.FindByID(ctx, f.loan.ID, pid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCategorySavings, payment.Category)
	assert.Equal(t, model.DirectionOut, payment.Direction)
	assert.Equal(t, model.WithdrawalNote, payment.Notes)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(400)))

	// Approved request leaves the pending set.
	pending, err := f.withdrawalRepo.ListPendingByLoan(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Contains(t, f.activityRepo.actions(), model.ActionApproveWithdrawal)
}

func TestWithdrawalApprovalInsufficientFundsIsRetriable(t *testing.T) {
	f := newApprovalFixture(t, decimal.NewFromInt(100))
	ctx := context.Background()

	submitted, err := f.svc.SubmitWithdrawal(ctx, f.loan.ID.String(), "", service.SubmitWithdrawalRequest{
		Category: model.PaymentCategorySavings,
		Amount:   "400",
	})
	require.NoError(t, err)

	_, err = f.svc.AdvanceWithdrawal(ctx, submitted.ID, "")
	require.NoError(t, err)
	_, err = f.svc.AdvanceWithdrawal(ctx, submitted.ID, "")
	require.NoError(t, err)

	// Terminal approval cannot cover the amount: everything rolls back and
	// the request stays at stage 3.
	_, err = f.svc.AdvanceWithdrawal(ctx, submitted.ID, "")
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	rid, err := uuid.Parse(submitted.ID)
	require.NoError(t, err)
	request, err := f.withdrawalRepo.FindByID(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingStage3, request.Status)
	assert.Nil(t, request.PaymentID)

	stored, err := f.loanRepo.FindByID(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.SavingsBalance.Equal(decimal.NewFromInt(100)))

	_, total, err := f.paymentRepo.ListByLoan(ctx, f.loan.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	// Once funds exist, the same advance succeeds.
	stored.SavingsBalance = decimal.NewFromInt(500)
	require.NoError(t, f.loanRepo.Update(ctx, stored))

	resp, err := f.svc.AdvanceWithdrawal(ctx, submitted.ID, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, resp.Status)

	after, err := f.loanRepo.FindByID(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.True(t, after.SavingsBalance.Equal(decimal.NewFromInt(100)))
}

func TestAdvanceWithdrawalTerminal(t *testing.T) {
	f := newApprovalFixture(t, decimal.NewFromInt(1000))
	ctx := context.Background()

	submitted, err := f.svc.SubmitWithdrawal(ctx, f.loan.ID.String(), "", service.SubmitWithdrawalRequest{
		Category: model.PaymentCategoryAdashe,
		Amount:   "50",
	})
	require.NoError(t, err)

	_, err = f.svc.RejectWithdrawal(ctx, submitted.ID, "", "wrong member")
	require.NoError(t, err)

	_, err = f.svc.AdvanceWithdrawal(ctx, submitted.ID, "")
	assert.ErrorIs(t, err, workflow.ErrTerminalState)
}

func TestRejectWithdrawal(t *testing.T) {
	f := newApprovalFixture(t, decimal.NewFromInt(1000))
	ctx := context.Background()

	submitted, err := f.svc.SubmitWithdrawal(ctx, f.loan.ID.String(), "", service.SubmitWithdrawalRequest{
		Category: model.PaymentCategorySavings,
		Amount:   "400",
	})
	require.NoError(t, err)

	resp, err := f.svc.RejectWithdrawal(ctx, submitted.ID, uuid.NewString(), "insufficient documentation")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, resp.Status)
	assert.Equal(t, "insufficient documentation", resp.RejectionReason)
	require.NotNil(t, resp.ResolvedAt)

	// Rejection has no ledger effect.
	stored, err := f.loanRepo.FindByID(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.SavingsBalance.Equal(decimal.NewFromInt(1000)))

	_, err = f.svc.RejectWithdrawal(ctx, submitted.ID, "", "again")
	assert.ErrorIs(t, err, workflow.ErrTerminalState)
}

func TestDisbursementApprovalChain(t *testing.T) {
	f := newApprovalFixture(t, decimal.Zero)
	ctx := context.Background()

	resp, err := f.svc.AdvanceDisbursement(ctx, f.loan.ID.String(), uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingStage2, resp.DisbursementStatus)
	assert.Nil(t, resp.DisbursementDate)

	resp, err = f.svc.AdvanceDisbursement(ctx, f.loan.ID.String(), uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingStage3, resp.DisbursementStatus)

	resp, err = f.svc.AdvanceDisbursement(ctx, f.loan.ID.String(), uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, resp.DisbursementStatus)
	assert.NotNil(t, resp.DisbursementDate, "terminal approval sets the disbursement date")

	stored, err := f.loanRepo.FindByID(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.DisbursementDate)

	_, err = f.svc.AdvanceDisbursement(ctx, f.loan.ID.String(), "")
	assert.ErrorIs(t, err, workflow.ErrTerminalState)
}

func TestRejectDisbursement(t *testing.T) {
	f := newApprovalFixture(t, decimal.Zero)
	ctx := context.Background()

	resp, err := f.svc.RejectDisbursement(ctx, f.loan.ID.String(), "", "over exposure")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, resp.DisbursementStatus)
	assert.Nil(t, resp.DisbursementDate)

	_, err = f.svc.AdvanceDisbursement(ctx, f.loan.ID.String(), "")
	assert.ErrorIs(t, err, workflow.ErrTerminalState)
}
