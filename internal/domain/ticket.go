package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "Aberto"
	TicketStatusInProgress    TicketStatus = "Em andamento"
	TicketStatusAwaitingReply TicketStatus = "Aguardando resposta"
	TicketStatusResolved      TicketStatus = "Resolvido"
	TicketStatusClosed        TicketStatus = "Fechado"
)

// TerminalStatuses lists states that accept no further mutation.
var TerminalStatuses = []TicketStatus{TicketStatusResolved, TicketStatusClosed}

// IsTerminal reports whether the status ends the lifecycle.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusAwaitingReply, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Baixa"
	TicketPriorityMedium TicketPriority = "Média"
	TicketPriorityHigh   TicketPriority = "Alta"
	TicketPriorityUrgent TicketPriority = "Urgente"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Requester identifies the student who raised a ticket.
type Requester struct {
	Name           string
	RegistrationID string
	Email          string
	Program        string
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Number      int64
	Requester   Requester
	CategoryID  *string
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	Department  *string
	OwnerID     string
	AIAnswer    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssistantQuestion is the text submitted to the assistant for this ticket.
func (t *Ticket) AssistantQuestion() string {
	return t.Title + "\n\n" + t.Description
}
