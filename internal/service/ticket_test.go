package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kube-rca/workflow-tickets/internal/db"
	"github.com/kube-rca/workflow-tickets/internal/model"
)

func seedTickets(t *testing.T) (*db.Memory, *model.Outcome, *model.Outcome) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemory()
	dedup := newTestDedup(store)
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

	first, err := dedup.Decide(ctx, "org/app", "boom", "", now)
	if err != nil {
		t.Fatalf("seed first: %v", err)
	}
	second, err := dedup.Decide(ctx, "org/app", "kaboom", "", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("seed second: %v", err)
	}
	return store, first, second
}

func TestTicketServiceResolve(t *testing.T) {
	ctx := context.Background()
	store, _, open := seedTickets(t)
	svc := NewTicketService(store)
	now := time.Date(2026, 2, 13, 13, 0, 0, 0, time.UTC)

	got, err := svc.UpdateStatus(ctx, open.TicketID, "done", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Status != model.TicketStatusDone || !got.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected ticket: %+v", got)
	}

	// 이미 done이면 no-op
	if _, err := svc.UpdateStatus(ctx, open.TicketID, "done", now.Add(time.Hour)); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
}

func TestTicketServiceRejectsInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	store, superseded, open := seedTickets(t)
	svc := NewTicketService(store)
	now := time.Now()

	if _, err := svc.UpdateStatus(ctx, open.TicketID, "done", now); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	tests := []struct {
		name   string
		id     string
		status string
		want   error
	}{
		{name: "reopen-done", id: open.TicketID, status: "open", want: ErrInvalidTransition},
		{name: "resolve-superseded", id: superseded.TicketID, status: "done", want: ErrInvalidTransition},
		{name: "set-superseded", id: open.TicketID, status: "superseded", want: ErrInvalidTransition},
		{name: "unknown-status", id: open.TicketID, status: "resolved", want: ErrInvalidInput},
		{name: "missing-ticket", id: "nope", status: "done", want: ErrTicketNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(ctx, tt.id, tt.status, now)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTicketServiceList(t *testing.T) {
	ctx := context.Background()
	store, _, _ := seedTickets(t)
	svc := NewTicketService(store)

	all, err := svc.List(ctx, model.TicketFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(all))
	}

	open, err := svc.List(ctx, model.TicketFilter{Status: model.TicketStatusOpen, Repo: " org/app "})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 || open[0].ErrorMessage != "kaboom" {
		t.Fatalf("unexpected open list: %+v", open)
	}

	if _, err := svc.List(ctx, model.TicketFilter{Status: "closed"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if _, err := svc.List(ctx, model.TicketFilter{Offset: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative offset, got %v", err)
	}
}

type limitRecorder struct {
	*db.Memory
	got model.TicketFilter
}

func (r *limitRecorder) ListTickets(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error) {
	r.got = f
	return r.Memory.ListTickets(ctx, f)
}

func TestTicketServiceListLimits(t *testing.T) {
	rec := &limitRecorder{Memory: db.NewMemory()}
	svc := NewTicketService(rec)

	if _, err := svc.List(context.Background(), model.TicketFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.got.Limit != defaultListLimit {
		t.Fatalf("expected default limit %d, got %d", defaultListLimit, rec.got.Limit)
	}
	if _, err := svc.List(context.Background(), model.TicketFilter{Limit: 10000}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.got.Limit != maxListLimit {
		t.Fatalf("expected capped limit %d, got %d", maxListLimit, rec.got.Limit)
	}
}
