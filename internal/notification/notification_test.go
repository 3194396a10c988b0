package notification

import (
	"context"
	"testing"

	"github.com/hana-ti/home-planner/internal/logging"
)

func TestRecorderCountsKinds(t *testing.T) {
	var r Recorder
	_ = r.Send(context.Background(), Message{Kind: KindCoupleInvite, Destination: "a"})
	_ = r.Send(context.Background(), Message{Kind: KindCoupleInvite, Destination: "b"})
	_ = r.Send(context.Background(), Message{Kind: KindSavingsPaymentPaid, Destination: "a"})

	if got := r.Kinds()[KindCoupleInvite]; got != 2 {
		t.Fatalf("expected 2 couple invites, got %d", got)
	}
	if len(r.Messages()) != 3 {
		t.Fatalf("expected 3 messages")
	}
}

func TestLoggerNotifierToleratesNil(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{Kind: KindTransferReceived}); err != nil {
		t.Fatalf("nil notifier: %v", err)
	}
	if err := NewLoggerNotifier(logging.Discard()).Send(context.Background(), Message{Kind: KindTransferReceived}); err != nil {
		t.Fatalf("send: %v", err)
	}
}
