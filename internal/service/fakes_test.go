package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"microfin/internal/model"
	"microfin/internal/workflow"
)

// In-memory repository fakes. Reads hand out copies so an aborted transaction
// cannot leak half-applied mutations into the stored state, mirroring how a
// real rollback behaves.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeLoanRepo struct {
	loans map[uuid.UUID]model.Loan
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[uuid.UUID]model.Loan)}
}

func (r *fakeLoanRepo) Create(ctx context.Context, loan *model.Loan) error {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	loan.CreatedAt = time.Now()
	r.loans[loan.ID] = *loan
	return nil
}

func (r *fakeLoanRepo) Update(ctx context.Context, loan *model.Loan) error {
	if _, ok := r.loans[loan.ID]; !ok {
		return model.ErrNotFound
	}
	r.loans[loan.ID] = *loan
	return nil
}

func (r *fakeLoanRepo) UpdateDelinquency(ctx context.Context, id uuid.UUID, dpd int, tier string) error {
	loan, ok := r.loans[id]
	if !ok {
		return model.ErrNotFound
	}
	loan.DPD = dpd
	loan.RiskTier = tier
	r.loans[id] = loan
	return nil
}

func (r *fakeLoanRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	loan, ok := r.loans[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := loan
	return &cp, nil
}

func (r *fakeLoanRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeLoanRepo) List(ctx context.Context, tier, disbursementStatus string, borrowerID *uuid.UUID, page, limit int) ([]model.Loan, int64, error) {
	var out []model.Loan
	for _, l := range r.loans {
		if tier != "" && l.RiskTier != tier {
			continue
		}
		if disbursementStatus != "" && l.DisbursementStatus != disbursementStatus {
			continue
		}
		if borrowerID != nil && l.BorrowerID != *borrowerID {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (r *fakeLoanRepo) ListDisbursed(ctx context.Context) ([]model.Loan, error) {
	var out []model.Loan
	for _, l := range r.loans {
		if l.DisbursementStatus == workflow.StatusApproved && l.DisbursementDate != nil {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]model.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.payments[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, loanID, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok || p.LoanID != loanID {
		return nil, model.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *fakePaymentRepo) ListByLoan(ctx context.Context, loanID uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.LoanID == loanID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) SumByCategory(ctx context.Context, loanID uuid.UUID, category, direction string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.LoanID == loanID && p.Category == category && p.Direction == direction {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *fakePaymentRepo) CategoryFlows(ctx context.Context, start, end time.Time) ([]model.CategoryFlow, error) {
	return nil, nil
}

type fakeWithdrawalRepo struct {
	requests map[uuid.UUID]model.WithdrawalRequest
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{requests: make(map[uuid.UUID]model.WithdrawalRequest)}
}

func (r *fakeWithdrawalRepo) Create(ctx context.Context, req *model.WithdrawalRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	r.requests[req.ID] = *req
	return nil
}

func (r *fakeWithdrawalRepo) Update(ctx context.Context, req *model.WithdrawalRequest) error {
	if _, ok := r.requests[req.ID]; !ok {
		return model.ErrNotFound
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *fakeWithdrawalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := req
	return &cp, nil
}

func (r *fakeWithdrawalRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeWithdrawalRepo) ListPendingByLoan(ctx context.Context, loanID uuid.UUID) ([]model.WithdrawalRequest, error) {
	var out []model.WithdrawalRequest
	for _, req := range r.requests {
		if req.LoanID != loanID {
			continue
		}
		switch req.Status {
		case workflow.StatusPendingStage1, workflow.StatusPendingStage2, workflow.StatusPendingStage3:
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeWithdrawalRepo) List(ctx context.Context, status string, page, limit int) ([]model.WithdrawalRequest, int64, error) {
	var out []model.WithdrawalRequest
	for _, req := range r.requests {
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

type fakeActivityRepo struct {
	entries []model.ActivityLog
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Log(ctx context.Context, entry *model.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) List(ctx context.Context, action string, page, limit int) ([]model.ActivityLog, int64, error) {
	var out []model.ActivityLog
	for _, e := range r.entries {
		if action != "" && e.Action != action {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeActivityRepo) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeBorrowerRepo struct {
	borrowers map[uuid.UUID]model.Borrower
}

func newFakeBorrowerRepo() *fakeBorrowerRepo {
	return &fakeBorrowerRepo{borrowers: make(map[uuid.UUID]model.Borrower)}
}

func (r *fakeBorrowerRepo) Create(ctx context.Context, borrower *model.Borrower) error {
	if borrower.ID == uuid.Nil {
		borrower.ID = uuid.New()
	}
	r.borrowers[borrower.ID] = *borrower
	return nil
}

func (r *fakeBorrowerRepo) Update(ctx context.Context, borrower *model.Borrower) error {
	if _, ok := r.borrowers[borrower.ID]; !ok {
		return model.ErrNotFound
	}
	r.borrowers[borrower.ID] = *borrower
	return nil
}

func (r *fakeBorrowerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.borrowers[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.borrowers, id)
	return nil
}

func (r *fakeBorrowerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Borrower, error) {
	b, ok := r.borrowers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := b
	return &cp, nil
}

func (r *fakeBorrowerRepo) List(ctx context.Context, search string, page, limit int) ([]model.Borrower, int64, error) {
	var out []model.Borrower
	for _, b := range r.borrowers {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}
