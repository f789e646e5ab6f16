package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kube-rca/workflow-tickets/internal/model"
)

func openTicket(id, repo, msg string, now time.Time) model.Ticket {
	return model.Ticket{
		ID:              id,
		Repo:            repo,
		Status:          model.TicketStatusOpen,
		ErrorMessage:    msg,
		OccurrenceCount: 1,
		CreatedAt:       now,
		LastSeenAt:      now,
		UpdatedAt:       now,
	}
}

func TestMemoryCreateConflictsOnSecondOpenTicket(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

	if _, err := store.CreateTicket(ctx, openTicket("t1", "org/app", "boom", now)); err != nil {
		t.Fatalf("create first: %v", err)
	}
	_, err := store.CreateTicket(ctx, openTicket("t2", "org/app", "kaboom", now))
	if !errors.Is(err, ErrTicketConflict) {
		t.Fatalf("expected ErrTicketConflict, got %v", err)
	}

	// 다른 repo는 영향 없음
	if _, err := store.CreateTicket(ctx, openTicket("t3", "org/other", "boom", now)); err != nil {
		t.Fatalf("create other repo: %v", err)
	}
}

func TestMemoryBumpRequiresOpenTicket(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)

	if _, err := store.CreateTicket(ctx, openTicket("t1", "org/app", "boom", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.BumpOccurrence(ctx, "t1", later, "https://ci/run/2"); err != nil {
		t.Fatalf("bump: %v", err)
	}

	got, err := store.GetTicket(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OccurrenceCount != 2 || got.RunURL != "https://ci/run/2" || !got.LastSeenAt.Equal(later) {
		t.Fatalf("unexpected ticket after bump: %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("createdAt must not change, got %v", got.CreatedAt)
	}

	// 빈 runURL도 최신 값으로 덮어씀
	if err := store.BumpOccurrence(ctx, "t1", later, ""); err != nil {
		t.Fatalf("bump without run url: %v", err)
	}
	if got, _ := store.GetTicket(ctx, "t1"); got.OccurrenceCount != 3 || got.RunURL != "" {
		t.Fatalf("unexpected ticket after second bump: %+v", got)
	}

	if err := store.CloseTicket(ctx, "t1", later, model.TicketStatusSuperseded); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.BumpOccurrence(ctx, "t1", later, ""); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound on closed ticket, got %v", err)
	}
	if err := store.BumpOccurrence(ctx, "missing", later, ""); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound on missing ticket, got %v", err)
	}
}

func TestMemoryCloseIsIdempotentAndIrreversible(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

	if _, err := store.CreateTicket(ctx, openTicket("t1", "org/app", "boom", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CloseTicket(ctx, "t1", now, model.TicketStatusDone); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.CloseTicket(ctx, "t1", now.Add(time.Hour), model.TicketStatusDone); err != nil {
		t.Fatalf("second close with same status must be a no-op, got %v", err)
	}
	if err := store.CloseTicket(ctx, "t1", now, model.TicketStatusSuperseded); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound closing done ticket as superseded, got %v", err)
	}
	if err := store.CloseTicket(ctx, "t1", now, model.TicketStatusOpen); err == nil {
		t.Fatalf("expected error for non-terminal status")
	}

	got, _ := store.GetTicket(ctx, "t1")
	if got.Status != model.TicketStatusDone || !got.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected ticket: %+v", got)
	}

	open, err := store.FindOpenTicketByRepo(ctx, "org/app")
	if err != nil || open != nil {
		t.Fatalf("expected no open ticket, got %+v err=%v", open, err)
	}
	if _, err := store.CreateTicket(ctx, openTicket("t2", "org/app", "boom", now)); err != nil {
		t.Fatalf("create after close: %v", err)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

	if _, err := store.CreateTicket(ctx, openTicket("t1", "org/app", "boom", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	found, _ := store.FindOpenTicketByRepo(ctx, "org/app")
	found.OccurrenceCount = 99
	found.Status = model.TicketStatusDone

	again, _ := store.GetTicket(ctx, "t1")
	if again.OccurrenceCount != 1 || again.Status != model.TicketStatusOpen {
		t.Fatalf("stored ticket was mutated through a returned copy: %+v", again)
	}
}

func TestMemoryListTickets(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	base := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		tk := openTicket(id, "org/"+id, "boom", base.Add(time.Duration(i)*time.Minute))
		if _, err := store.CreateTicket(ctx, tk); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := store.CloseTicket(ctx, "a", base.Add(10*time.Minute), model.TicketStatusDone); err != nil {
		t.Fatalf("close: %v", err)
	}

	all, err := store.ListTickets(ctx, model.TicketFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "c" || all[2].ID != "b" {
		t.Fatalf("unexpected order: %+v", all)
	}

	open, _ := store.ListTickets(ctx, model.TicketFilter{Status: model.TicketStatusOpen, Limit: 10})
	if len(open) != 2 {
		t.Fatalf("expected 2 open tickets, got %d", len(open))
	}

	page, _ := store.ListTickets(ctx, model.TicketFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID != "c" {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, _ := store.ListTickets(ctx, model.TicketFilter{Limit: 10, Offset: 10})
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}
