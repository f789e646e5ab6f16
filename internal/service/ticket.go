package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kube-rca/workflow-tickets/internal/db"
	"github.com/kube-rca/workflow-tickets/internal/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ticketReader - 조회/해결용 DB 인터페이스
type ticketReader interface {
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	ListTickets(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error)
	CloseTicket(ctx context.Context, id string, now time.Time, status model.TicketStatus) error
}

// TicketService - 티켓 목록/상세/수동 해결
type TicketService struct {
	repo ticketReader
}

func NewTicketService(repo ticketReader) *TicketService {
	return &TicketService{repo: repo}
}

func (s *TicketService) List(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error) {
	f.Repo = strings.TrimSpace(f.Repo)
	if f.Status != "" && !f.Status.Valid() {
		return nil, newValidationError("VALIDATION_ERROR", "`status` must be one of open, done, superseded")
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		return nil, newValidationError("VALIDATION_ERROR", "`offset` must not be negative")
	}
	return s.repo.ListTickets(ctx, f)
}

func (s *TicketService) Get(ctx context.Context, id string) (*model.Ticket, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrTicketNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrTicketNotFound, id)
		}
		return nil, err
	}
	return t, nil
}

// UpdateStatus - 수동 해결 (open → done)
//
// 종료는 되돌릴 수 없으므로 reopen 요청과 superseded 티켓 해결은 ErrInvalidTransition
func (s *TicketService) UpdateStatus(ctx context.Context, id, status string, now time.Time) (*model.Ticket, error) {
	target := model.TicketStatus(strings.TrimSpace(status))
	if !target.Valid() {
		return nil, newValidationError("VALIDATION_ERROR", "`status` must be one of open, done")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case target == model.TicketStatusSuperseded:
		return nil, fmt.Errorf("%w: superseded is set only by rotation", ErrInvalidTransition)
	case target == model.TicketStatusOpen && current.Status == model.TicketStatusOpen:
		return current, nil
	case target == model.TicketStatusOpen:
		return nil, fmt.Errorf("%w: ticket %s is %s and cannot be reopened", ErrInvalidTransition, id, current.Status)
	case current.Status == model.TicketStatusSuperseded:
		return nil, fmt.Errorf("%w: ticket %s was superseded", ErrInvalidTransition, id)
	}

	if err := s.repo.CloseTicket(ctx, id, now.UTC().Truncate(time.Second), model.TicketStatusDone); err != nil {
		if errors.Is(err, db.ErrTicketNotFound) {
			// 조회 이후 rotation으로 superseded 된 경우
			return nil, fmt.Errorf("%w: ticket %s is no longer open", ErrInvalidTransition, id)
		}
		return nil, err
	}
	log.Printf("[Tickets] Resolved ticket (id=%s, repo=%s)", id, current.Repo)

	return s.Get(ctx, id)
}
