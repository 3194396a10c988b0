package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/autodebit"
	"github.com/hana-ti/home-planner/internal/format"
	"github.com/hana-ti/home-planner/internal/ledger"
	"github.com/hana-ti/home-planner/internal/logging"
	"github.com/hana-ti/home-planner/internal/notification"
)

const repaymentMemo = "대출 상환금 납입"

// Processor collects due repayments from each contract's disburse account.
type Processor struct {
	repo     Repository
	accounts Accounts
	notifier notification.Notifier
	locks    *autodebit.Locks
	retry    autodebit.Retry
	now      func() time.Time
}

// NewProcessor builds the daily loan repayment processor.
func NewProcessor(repo Repository, accounts Accounts, notifier notification.Notifier) *Processor {
	return &Processor{
		repo:     repo,
		accounts: accounts,
		notifier: notifier,
		locks:    autodebit.NewLocks(),
		retry:    autodebit.DefaultRetry(),
		now:      time.Now,
	}
}

// Run processes every ACTIVE contract for date.
func (p *Processor) Run(ctx context.Context, date time.Time) (autodebit.Result, error) {
	logger := logging.FromContext(ctx)
	date = dateOnly(date)
	res := autodebit.Result{ProcessDate: date.Format(time.DateOnly)}

	contracts, err := p.repo.Contracts(ctx, "", ContractActive)
	if err != nil {
		return res, fmt.Errorf("list loan contracts: %w", err)
	}
	for _, c := range contracts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		cRes, err := p.processContract(ctx, c, date)
		res.Merge(cRes)
		if err != nil {
			res.Errors++
			logger.Error("loan contract processing failed", slog.String("loan_id", c.ID), slog.Any("error", err))
		}
	}
	logger.Info("loan repayment finished",
		slog.String("date", res.ProcessDate),
		slog.Int("success", res.Success),
		slog.Int("failure", res.Failure),
		slog.Int("errors", res.Errors),
		slog.Int64("total_amount", res.TotalAmount))
	return res, nil
}

func (p *Processor) processContract(ctx context.Context, c Contract, date time.Time) (autodebit.Result, error) {
	unlock := p.locks.Lock(c.AccountID)
	defer unlock()

	res := autodebit.Result{Accounts: 1}
	repayments, err := p.repo.Repayments(ctx, c.ID)
	if err != nil {
		return res, err
	}
	for _, rp := range Due(repayments, date) {
		paid, err := p.collect(ctx, c, rp)
		switch {
		case err != nil:
			res.Errors++
			logging.FromContext(ctx).Error("loan repayment failed", slog.String("repay_id", rp.ID), slog.Any("error", err))
		case paid:
			res.Success++
			res.TotalAmount += rp.Total
		default:
			res.Failure++
		}
	}
	return res, nil
}

func (p *Processor) collect(ctx context.Context, c Contract, rp Repayment) (bool, error) {
	var paid bool
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		balance, err := p.accounts.Balance(ctx, c.DisburseAccountID)
		if err != nil {
			return err
		}
		if balance.Amount < rp.Total {
			paid = false
			return nil
		}
		_, err = p.accounts.Transfer(ctx, account.TransferInput{
			FromAccountID: c.DisburseAccountID,
			ToAccountID:   c.AccountID,
			Amount:        rp.Total,
			ClientTxID:    "repay:" + rp.ID,
			Memo:          repaymentMemo,
		})
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			paid = false
			return nil
		case err == nil, errors.Is(err, ledger.ErrDuplicateTransaction):
			paid = true
			return nil
		}
		return err
	}, autodebit.Transient)
	if err != nil {
		return false, err
	}

	if !paid {
		rp.Status = RepaymentOverdue
		if err := p.repo.UpdateRepayment(ctx, rp); err != nil {
			return false, err
		}
		p.notify(ctx, notification.KindLoanRepaymentFailed, c.UserID,
			fmt.Sprintf("대출 상환금 %s 출금에 실패하여 연체되었습니다.", format.Won(rp.Total)))
		return false, nil
	}
	paidAt := p.now().UTC()
	rp.Status = RepaymentPaid
	rp.PaidDate = &paidAt
	if err := p.repo.UpdateRepayment(ctx, rp); err != nil {
		return false, err
	}
	p.notify(ctx, notification.KindLoanRepaymentPaid, c.UserID,
		fmt.Sprintf("대출 상환금 %s이 납입되었습니다.", format.Won(rp.Total)))
	return true, nil
}

func (p *Processor) notify(ctx context.Context, kind, userID, body string) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Send(ctx, notification.Message{Kind: kind, Destination: userID, Body: body}); err != nil {
		logging.FromContext(ctx).Warn("notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}
