package domain

import "time"

// StatusChange is an audit entry written whenever a ticket changes status.
type StatusChange struct {
	ID        string
	TicketID  string
	ChangedBy string
	From      TicketStatus
	To        TicketStatus
	CreatedAt time.Time
}
