package db

import (
	"context"
	"time"

	"github.com/kube-rca/workflow-tickets/internal/model"
)

// TicketStore - Postgres, Memory 공통 티켓 저장소
type TicketStore interface {
	FindOpenTicketByRepo(ctx context.Context, repo string) (*model.Ticket, error)
	CreateTicket(ctx context.Context, t model.Ticket) (*model.Ticket, error)
	BumpOccurrence(ctx context.Context, id string, now time.Time, runURL string) error
	CloseTicket(ctx context.Context, id string, now time.Time, status model.TicketStatus) error
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	ListTickets(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error)
}

var (
	_ TicketStore = (*Postgres)(nil)
	_ TicketStore = (*Memory)(nil)
)
