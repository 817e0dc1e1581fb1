package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func TestOutboxEnqueueAssignsID(t *testing.T) {
	repo := NewOutboxRepository()

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "1",
		EventType:     "order.created",
		Payload:       []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("expected generated outbox id")
	}
}

func TestOutboxPullPendingKeepsEnqueueOrder(t *testing.T) {
	repo := NewOutboxRepository()

	for i := 0; i < 5; i++ {
		if _, err := repo.Enqueue(domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   fmt.Sprintf("%d", i),
			EventType:     "order.created",
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	pending, err := repo.PullPending(3)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending messages, got %d", len(pending))
	}
	for i, msg := range pending {
		if msg.AggregateID != fmt.Sprintf("%d", i) {
			t.Fatalf("expected enqueue order, got %s at position %d", msg.AggregateID, i)
		}
	}
}

func TestOutboxMarkSentRemovesFromPending(t *testing.T) {
	repo := NewOutboxRepository()

	first, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "1"})
	second, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "2"})

	if err := repo.MarkSent(first.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("expected only the second message pending, got %+v", pending)
	}

	// failed остаётся вне pending и требует ручного вмешательства.
	if err := repo.MarkFailed(second.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	pending, _ = repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(pending))
	}

	if err := repo.MarkSent("missing"); err == nil {
		t.Fatal("expected error for unknown outbox id")
	}
}

func TestOutboxStats(t *testing.T) {
	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	first, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "1"})
	repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "2"})

	stats, err = repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() || stats.OldestPendingAt.After(time.Now().UTC()) {
		t.Fatalf("unexpected oldest pending timestamp: %v", stats.OldestPendingAt)
	}

	_ = repo.MarkSent(first.ID)
	stats, _ = repo.Stats()
	if stats.PendingCount != 1 {
		t.Fatalf("expected 1 pending after mark sent, got %d", stats.PendingCount)
	}
}
