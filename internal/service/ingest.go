package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/kube-rca/workflow-tickets/internal/model"
)

type decider interface {
	Decide(ctx context.Context, repo, errorMessage, runURL string, now time.Time) (*model.Outcome, error)
}

// IngestService - POST /workflow-failure 페이로드 검증 후 Dedup 엔진 호출
type IngestService struct {
	dedup decider
}

func NewIngestService(dedup decider) *IngestService {
	return &IngestService{dedup: dedup}
}

// Handle - success 이벤트는 엔진을 호출하지 않고 ignored로 응답
func (s *IngestService) Handle(ctx context.Context, event model.WorkflowEvent, now time.Time) (*model.IngestResult, error) {
	repo := strings.TrimSpace(event.Repo)
	status := strings.TrimSpace(event.Status)
	errorMessage := strings.TrimSpace(event.ErrorMessage)
	runURL := strings.TrimSpace(event.RunURL)

	if repo == "" {
		return nil, newValidationError("VALIDATION_ERROR", "`repo` is required")
	}
	if status != model.WorkflowStatusFailure && status != model.WorkflowStatusSuccess {
		return nil, newValidationError("VALIDATION_ERROR", "`status` must be 'failure' or 'success'")
	}

	if status == model.WorkflowStatusSuccess {
		log.Printf("[Ingest] Ignored success event (repo=%s)", repo)
		return &model.IngestResult{Ignored: true, Repo: repo}, nil
	}

	outcome, err := s.dedup.Decide(ctx, repo, errorMessage, runURL, now)
	if err != nil {
		log.Printf("[Ingest] Failed to process failure event (repo=%s): %v", repo, err)
		return nil, err
	}

	switch outcome.Kind {
	case model.OutcomeCreatedNew:
		log.Printf("[Ingest] Rotated ticket (repo=%s, previous=%s, new=%s)", repo, outcome.PreviousTicketID, outcome.TicketID)
	default:
		log.Printf("[Ingest] %s ticket (repo=%s, id=%s, occurrences=%d)", outcome.Kind, repo, outcome.TicketID, outcome.OccurrenceCount)
	}
	return &model.IngestResult{Repo: repo, Outcome: outcome}, nil
}
