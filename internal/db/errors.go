package db

import "errors"

var (
	// 같은 repo에 open 티켓이 이미 커밋되어 있음 (조건부 insert 실패)
	ErrTicketConflict = errors.New("open ticket already exists for repo")
	// 티켓이 없거나 더 이상 open이 아님
	ErrTicketNotFound = errors.New("ticket not found or not open")
)
