package model

// WorkflowEvent - CI/CD 워크플로 결과 알림 페이로드
type WorkflowEvent struct {
	Repo         string `json:"repo"`
	Status       string `json:"status"` // failure, success
	ErrorMessage string `json:"errorMessage"`
	RunURL       string `json:"runUrl"`
}

const (
	WorkflowStatusFailure = "failure"
	WorkflowStatusSuccess = "success"
)

// OutcomeKind - Dedup 결정 결과 종류
type OutcomeKind string

const (
	OutcomeCreated    OutcomeKind = "created"
	OutcomeUpdated    OutcomeKind = "updated"
	OutcomeCreatedNew OutcomeKind = "created_new"
)

// Outcome - Decide 한 번의 결과
//
//   - created:     TicketID
//   - updated:     TicketID
//   - created_new: PreviousTicketID, TicketID (새 티켓)
type Outcome struct {
	Kind             OutcomeKind
	TicketID         string
	PreviousTicketID string
	OccurrenceCount  int
}

// IngestResult - 웹훅 처리 결과 (ignored면 Outcome은 nil)
type IngestResult struct {
	Ignored bool
	Repo    string
	Outcome *Outcome
}
