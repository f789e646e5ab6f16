package model

import "time"

// ============================================================================
// Ticket 모델 (repo별 미해결 워크플로 실패 단위)
// ============================================================================

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusDone       TicketStatus = "done"
	TicketStatusSuperseded TicketStatus = "superseded" // 다른 에러로 rotate되어 닫힘
)

// IsClosed - done/superseded 모두 종료 상태
func (s TicketStatus) IsClosed() bool {
	return s == TicketStatusDone || s == TicketStatusSuperseded
}

func (s TicketStatus) Valid() bool {
	return s == TicketStatusOpen || s.IsClosed()
}

// Ticket - 저장소에 기록되는 티켓
type Ticket struct {
	ID              string       `json:"id"`
	Repo            string       `json:"repo"`
	Status          TicketStatus `json:"status"`
	ErrorMessage    string       `json:"errorMessage"`
	RunURL          string       `json:"runUrl"`
	OccurrenceCount int          `json:"occurrenceCount"`
	CreatedAt       time.Time    `json:"createdAt"`
	LastSeenAt      time.Time    `json:"lastSeenAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// TicketFilter - 목록 조회 조건
type TicketFilter struct {
	Repo   string
	Status TicketStatus
	Limit  int
	Offset int
}

// TicketListResponse - GET /todos 응답
type TicketListResponse struct {
	Items []Ticket `json:"items"`
}

// UpdateTicketStatusRequest - PATCH /todos/{id} 요청
type UpdateTicketStatusRequest struct {
	Status string `json:"status"`
}

// TicketUpdateResponse - PATCH /todos/{id} 응답
type TicketUpdateResponse struct {
	Status string  `json:"status"`
	Ticket *Ticket `json:"ticket"`
}
