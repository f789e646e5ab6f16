package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kube-rca/workflow-tickets/internal/model"
)

// Memory - 프로세스 내 티켓 저장소 (TICKET_STORE=memory, 테스트용)
// Postgres 구현과 같은 조건부 쓰기 규칙을 mutex로 보장합니다.
type Memory struct {
	mu      sync.Mutex
	tickets map[string]*model.Ticket
	open    map[string]string // repo -> open ticket id
}

func NewMemory() *Memory {
	return &Memory{
		tickets: make(map[string]*model.Ticket),
		open:    make(map[string]string),
	}
}

func (m *Memory) FindOpenTicketByRepo(ctx context.Context, repo string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.open[repo]
	if !ok {
		return nil, nil
	}
	t := *m.tickets[id]
	return &t, nil
}

func (m *Memory) CreateTicket(ctx context.Context, t model.Ticket) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tickets[t.ID]; exists {
		return nil, fmt.Errorf("duplicate ticket id: %s", t.ID)
	}
	if t.Status == model.TicketStatusOpen {
		if _, exists := m.open[t.Repo]; exists {
			return nil, fmt.Errorf("%w: repo=%s", ErrTicketConflict, t.Repo)
		}
		m.open[t.Repo] = t.ID
	}

	stored := t
	m.tickets[t.ID] = &stored
	return &t, nil
}

func (m *Memory) BumpOccurrence(ctx context.Context, id string, now time.Time, runURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok || t.Status != model.TicketStatusOpen {
		return fmt.Errorf("%w: id=%s", ErrTicketNotFound, id)
	}
	t.OccurrenceCount++
	t.LastSeenAt = now
	t.UpdatedAt = now
	t.RunURL = runURL
	return nil
}

func (m *Memory) CloseTicket(ctx context.Context, id string, now time.Time, status model.TicketStatus) error {
	if !status.IsClosed() {
		return fmt.Errorf("invalid terminal status: %s", status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return fmt.Errorf("%w: id=%s", ErrTicketNotFound, id)
	}
	if t.Status == status {
		return nil
	}
	if t.Status != model.TicketStatusOpen {
		return fmt.Errorf("%w: id=%s status=%s", ErrTicketNotFound, id, t.Status)
	}
	t.Status = status
	t.UpdatedAt = now
	delete(m.open, t.Repo)
	return nil
}

func (m *Memory) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%s", ErrTicketNotFound, id)
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) ListTickets(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error) {
	m.mu.Lock()
	list := make([]model.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		if f.Repo != "" && t.Repo != f.Repo {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		list = append(list, *t)
	}
	m.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID < list[j].ID
	})

	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Offset >= len(list) {
		return []model.Ticket{}, nil
	}
	list = list[f.Offset:]
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}
