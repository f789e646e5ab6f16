package model

// ErrorDetail - 모든 에러 응답의 공통 형태
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TicketRef - ingest 응답에 포함되는 티켓 식별 정보
type TicketRef struct {
	ID   string `json:"id"`
	Repo string `json:"repo"`
}

// WorkflowEventResponse - POST /workflow-failure 응답 (202)
//
//	ignored:     {status, repo}
//	created:     {status, ticket}
//	updated:     {status, ticket}
//	created_new: {status, previousTicketId, newTicketId, repo}
type WorkflowEventResponse struct {
	Status           string     `json:"status"`
	Repo             string     `json:"repo,omitempty"`
	Ticket           *TicketRef `json:"ticket,omitempty"`
	PreviousTicketID string     `json:"previousTicketId,omitempty"`
	NewTicketID      string     `json:"newTicketId,omitempty"`
}

// NewWorkflowEventResponse - IngestResult를 외부 응답 형태로 변환
func NewWorkflowEventResponse(res *IngestResult) WorkflowEventResponse {
	if res.Ignored || res.Outcome == nil {
		return WorkflowEventResponse{Status: "ignored", Repo: res.Repo}
	}

	out := res.Outcome
	switch out.Kind {
	case OutcomeCreatedNew:
		return WorkflowEventResponse{
			Status:           string(out.Kind),
			PreviousTicketID: out.PreviousTicketID,
			NewTicketID:      out.TicketID,
			Repo:             res.Repo,
		}
	default:
		return WorkflowEventResponse{
			Status: string(out.Kind),
			Ticket: &TicketRef{ID: out.TicketID, Repo: res.Repo},
		}
	}
}
