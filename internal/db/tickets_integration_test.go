package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kube-rca/workflow-tickets/internal/config"
	"github.com/kube-rca/workflow-tickets/internal/model"
)

func postgresIntegrationStore(t *testing.T) *Postgres {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TICKETS_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("set TICKETS_TEST_POSTGRES_DSN to run Postgres integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, config.PostgresConfig{DatabaseURL: dsn})
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	store := &Postgres{Pool: pool}
	if err := store.EnsureTicketSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func integrationRepo(t *testing.T) string {
	return fmt.Sprintf("it/%s-%d", t.Name(), time.Now().UnixNano())
}

func TestPostgresIntegrationTicketLifecycle(t *testing.T) {
	store := postgresIntegrationStore(t)
	ctx := context.Background()
	repo := integrationRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	created, err := store.CreateTicket(ctx, openTicket(repo+"-1", repo, "boom", now))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != model.TicketStatusOpen || created.OccurrenceCount != 1 {
		t.Fatalf("unexpected created ticket: %+v", created)
	}

	_, err = store.CreateTicket(ctx, openTicket(repo+"-2", repo, "other", now))
	if !errors.Is(err, ErrTicketConflict) {
		t.Fatalf("expected ErrTicketConflict, got %v", err)
	}

	later := now.Add(time.Minute)
	if err := store.BumpOccurrence(ctx, created.ID, later, "https://ci/run/2"); err != nil {
		t.Fatalf("bump: %v", err)
	}
	open, err := store.FindOpenTicketByRepo(ctx, repo)
	if err != nil || open == nil {
		t.Fatalf("find open: %+v err=%v", open, err)
	}
	if open.OccurrenceCount != 2 || open.RunURL != "https://ci/run/2" || !open.LastSeenAt.Equal(later) {
		t.Fatalf("unexpected ticket after bump: %+v", open)
	}

	if err := store.CloseTicket(ctx, created.ID, later, model.TicketStatusSuperseded); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.CloseTicket(ctx, created.ID, later, model.TicketStatusSuperseded); err != nil {
		t.Fatalf("idempotent close: %v", err)
	}
	if err := store.CloseTicket(ctx, created.ID, later, model.TicketStatusDone); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}
	if err := store.BumpOccurrence(ctx, created.ID, later, ""); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}

	list, err := store.ListTickets(ctx, model.TicketFilter{Repo: repo, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != model.TicketStatusSuperseded {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestPostgresIntegrationConcurrentCreateKeepsOneOpen(t *testing.T) {
	store := postgresIntegrationStore(t)
	ctx := context.Background()
	repo := integrationRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.CreateTicket(ctx, openTicket(fmt.Sprintf("%s-%d", repo, i), repo, "boom", now))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrTicketConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful create, got %d", succeeded)
	}
}
