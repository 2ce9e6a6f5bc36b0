package domain

import "time"

// AcceptedSuggestionMessage is appended when a requester confirms the AI answer solved the issue.
const AcceptedSuggestionMessage = "Problema resolvido com a ajuda da IA"

// Response is an append-only message in a ticket thread.
type Response struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorName *string
	Message    string
	IsAI       bool
	CreatedAt  time.Time
}
