package savings

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

const autoDebitMemo = "적금 자동이체"

// Processor debits due savings payments from each holder's auto-debit account.
type Processor struct {
	repo     Repository
	accounts Accounts
	notifier notification.Notifier
	locks    *autodebit.Locks
	retry    autodebit.Retry
	now      func() time.Time
}

// NewProcessor builds the daily savings auto-debit processor.
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

// Run processes every SAVING and JOINT_SAVING account for date. One
// account's failure never stops the others.
func (p *Processor) Run(ctx context.Context, date time.Time) (autodebit.Result, error) {
	logger := logging.FromContext(ctx)
	date = dateOnly(date)
	res := autodebit.Result{ProcessDate: date.Format(time.DateOnly)}

	accounts, err := p.accounts.ListByType(ctx, account.TypeSaving, account.TypeJointSaving)
	if err != nil {
		return res, fmt.Errorf("list savings accounts: %w", err)
	}
	logger.Info("savings auto-debit started", slog.String("date", res.ProcessDate), slog.Int("accounts", len(accounts)))

	for _, acc := range accounts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		accRes, err := p.processAccount(ctx, acc, date)
		res.Merge(accRes)
		if err != nil {
			res.Errors++
			logger.Error("savings account processing failed", slog.String("account_id", acc.ID), slog.Any("error", err))
		}
	}

	logger.Info("savings auto-debit finished",
		slog.Int("success", res.Success),
		slog.Int("failure", res.Failure),
		slog.Int("errors", res.Errors),
		slog.Int64("total_amount", res.TotalAmount))
	return res, nil
}

func (p *Processor) processAccount(ctx context.Context, acc account.Account, date time.Time) (autodebit.Result, error) {
	unlock := p.locks.Lock(acc.ID)
	defer unlock()

	res := autodebit.Result{Accounts: 1}
	holders, err := p.repo.SavingsByAccount(ctx, acc.ID)
	if err != nil {
		return res, err
	}
	for _, holder := range holders {
		if holder.AutoDebitAccount == "" || holder.Status != StatusActive {
			continue
		}
		payments, err := p.repo.Payments(ctx, acc.ID, holder.UserID)
		if err != nil {
			return res, err
		}
		for _, payment := range Due(payments, date) {
			paid, err := p.processPayment(ctx, acc, holder, payment)
			switch {
			case err != nil:
				res.Errors++
				logging.FromContext(ctx).Error("savings payment failed",
					slog.String("payment_id", payment.ID), slog.Any("error", err))
			case paid:
				res.Success++
				res.TotalAmount += payment.Amount
			default:
				res.Failure++
			}
		}
	}
	return res, nil
}

// Due returns PENDING payments due on or before date and OVERDUE payments due before it.
func Due(payments []Payment, date time.Time) []Payment {
	date = dateOnly(date)
	var out []Payment
	for _, p := range payments {
		due := dateOnly(p.DueDate)
		switch {
		case p.Status == PaymentPending && !due.After(date):
			out = append(out, p)
		case p.Status == PaymentOverdue && due.Before(date):
			out = append(out, p)
		}
	}
	return out
}

func (p *Processor) processPayment(ctx context.Context, acc account.Account, holder UserSavings, payment Payment) (bool, error) {
	source, err := p.accounts.GetByNumber(ctx, holder.AutoDebitAccount)
	if err != nil {
		return false, fmt.Errorf("auto-debit account %s: %w", holder.AutoDebitAccount, err)
	}
	ok, err := p.accounts.IsParticipant(ctx, source.ID, holder.UserID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("auto-debit account %s: %w", holder.AutoDebitAccount, ErrForeignAutoDebit)
	}

	var paid bool
	err = p.retry.Do(ctx, func(ctx context.Context) error {
		balance, err := p.accounts.Balance(ctx, source.ID)
		if err != nil {
			return err
		}
		if balance.Amount < payment.Amount {
			paid = false
			return nil
		}
		_, err = p.accounts.Transfer(ctx, account.TransferInput{
			FromAccountID: source.ID,
			ToAccountID:   acc.ID,
			Amount:        payment.Amount,
			ClientTxID:    "savings:" + payment.ID,
			Memo:          autoDebitMemo,
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
		payment.Status = PaymentOverdue
		if err := p.repo.UpdatePayment(ctx, payment); err != nil {
			return false, err
		}
		p.notify(ctx, notification.KindSavingsPaymentFailed, holder.UserID,
			fmt.Sprintf("적금 자동이체 잔액 부족: %s 납입이 연체되었습니다.", format.Won(payment.Amount)))
		return false, nil
	}

	paidAt := p.now().UTC()
	payment.Status = PaymentPaid
	payment.PaidDate = &paidAt
	if err := p.repo.UpdatePayment(ctx, payment); err != nil {
		return false, err
	}
	p.notify(ctx, notification.KindSavingsPaymentPaid, holder.UserID,
		fmt.Sprintf("적금 %s 자동이체가 완료되었습니다.", format.Won(payment.Amount)))
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
