// 워크플로 실패 이벤트 → 티켓 dedup 결정 로직
//
// 처리 흐름 (Decide 한 번):
//  1. repo의 현재 open 티켓 조회
//  2. 없으면: 새 티켓 생성 → created
//  3. 같은 errorMessage면: occurrence_count + 1 → updated
//  4. 다른 errorMessage면: 기존 티켓 superseded 처리 후 새 티켓 생성 → created_new
//
// 동시성:
//   - CreateTicket은 repo당 open 티켓이 없을 때만 성공 (ErrTicketConflict)
//   - BumpOccurrence/CloseTicket은 open일 때만 성공 (ErrTicketNotFound)
//   - 위 두 에러는 다른 요청이 먼저 상태를 바꿨다는 뜻이므로 다시 조회 후 재결정
//   - 재시도는 maxAttempts회까지, 초과하면 ErrRetryExhausted

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kube-rca/workflow-tickets/internal/db"
	"github.com/kube-rca/workflow-tickets/internal/model"
)

const defaultMaxAttempts = 5

// ticketRepo - Dedup 엔진이 사용하는 저장소 인터페이스
type ticketRepo interface {
	FindOpenTicketByRepo(ctx context.Context, repo string) (*model.Ticket, error)
	CreateTicket(ctx context.Context, t model.Ticket) (*model.Ticket, error)
	BumpOccurrence(ctx context.Context, id string, now time.Time, runURL string) error
	CloseTicket(ctx context.Context, id string, now time.Time, status model.TicketStatus) error
}

// DedupService - repo별 open 티켓 dedup 상태 머신
type DedupService struct {
	repo        ticketRepo
	maxAttempts int
	newID       func() string
}

func NewDedupService(repo ticketRepo, maxAttempts int) *DedupService {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &DedupService{
		repo:        repo,
		maxAttempts: maxAttempts,
		newID:       uuid.NewString,
	}
}

// Decide - 실패 이벤트 하나에 대해 created/updated/created_new 중 하나를 반환
//
// now는 호출자가 주입 (UTC, 초 단위로 절삭하여 저장)
func (s *DedupService) Decide(ctx context.Context, repo, errorMessage, runURL string, now time.Time) (*model.Outcome, error) {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return nil, newValidationError("VALIDATION_ERROR", "`repo` is required")
	}
	errorMessage = strings.TrimSpace(errorMessage)
	runURL = strings.TrimSpace(runURL)
	now = now.UTC().Truncate(time.Second)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		outcome, err := s.decideOnce(ctx, repo, errorMessage, runURL, now)
		if err == nil {
			return outcome, nil
		}
		if !isRaceLost(err) {
			return nil, err
		}
		log.Printf("[Dedup] Lost race for repo=%s (attempt %d/%d): %v", repo, attempt, s.maxAttempts, err)
	}

	return nil, fmt.Errorf("%w: repo=%s after %d attempts", ErrRetryExhausted, repo, s.maxAttempts)
}

func (s *DedupService) decideOnce(ctx context.Context, repo, errorMessage, runURL string, now time.Time) (*model.Outcome, error) {
	existing, err := s.repo.FindOpenTicketByRepo(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("find open ticket: %w", err)
	}

	// 1. open 티켓 없음 → 생성
	if existing == nil {
		created, err := s.create(ctx, repo, errorMessage, runURL, now)
		if err != nil {
			return nil, err
		}
		return &model.Outcome{
			Kind:            model.OutcomeCreated,
			TicketID:        created.ID,
			OccurrenceCount: created.OccurrenceCount,
		}, nil
	}

	// 2. 같은 에러 → occurrence 증가 (저장된 값도 trim 후 비교)
	if strings.TrimSpace(existing.ErrorMessage) == errorMessage {
		if err := s.repo.BumpOccurrence(ctx, existing.ID, now, runURL); err != nil {
			return nil, fmt.Errorf("bump occurrence: %w", err)
		}
		return &model.Outcome{
			Kind:            model.OutcomeUpdated,
			TicketID:        existing.ID,
			OccurrenceCount: existing.OccurrenceCount + 1,
		}, nil
	}

	// 3. 다른 에러 → 기존 티켓 종료 후 새 티켓 (repo당 open 1개 유지)
	// 이미 다른 요청이 superseded 처리했으면 close는 no-op, 이어지는 create가 conflict로 재결정
	if err := s.repo.CloseTicket(ctx, existing.ID, now, model.TicketStatusSuperseded); err != nil {
		return nil, fmt.Errorf("close superseded ticket: %w", err)
	}
	created, err := s.create(ctx, repo, errorMessage, runURL, now)
	if err != nil {
		return nil, err
	}
	return &model.Outcome{
		Kind:             model.OutcomeCreatedNew,
		TicketID:         created.ID,
		PreviousTicketID: existing.ID,
		OccurrenceCount:  created.OccurrenceCount,
	}, nil
}

func (s *DedupService) create(ctx context.Context, repo, errorMessage, runURL string, now time.Time) (*model.Ticket, error) {
	created, err := s.repo.CreateTicket(ctx, model.Ticket{
		ID:              s.newID(),
		Repo:            repo,
		Status:          model.TicketStatusOpen,
		ErrorMessage:    errorMessage,
		RunURL:          runURL,
		OccurrenceCount: 1,
		CreatedAt:       now,
		LastSeenAt:      now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return created, nil
}

// 다른 요청이 먼저 open 티켓을 만들거나 닫은 경우
func isRaceLost(err error) bool {
	return errors.Is(err, db.ErrTicketConflict) || errors.Is(err, db.ErrTicketNotFound)
}
