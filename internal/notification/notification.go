package notification

import (
	"context"
	"log/slog"
	"sync"
)

// Message kinds.
const (
	KindTransferReceived     = "transfer_received"
	KindCoupleInvite         = "couple_invite"
	KindCoupleAccepted       = "couple_accepted"
	KindJointInvite          = "joint_account_invite"
	KindJointAccepted        = "joint_account_accepted"
	KindJointLoanInvite      = "joint_loan_invite"
	KindSavingsPaymentPaid   = "savings_payment_paid"
	KindSavingsPaymentFailed = "savings_payment_overdue"
	KindLoanRepaymentPaid    = "loan_repayment_paid"
	KindLoanRepaymentFailed  = "loan_repayment_overdue"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}

// Recorder keeps sent messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send records message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Kinds counts recorded messages per kind.
func (r *Recorder) Kinds() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, m := range r.messages {
		out[m.Kind]++
	}
	return out
}
