// Package triage derives a suggested ticket priority from free text.
package triage

import (
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type rule struct {
	priority domain.TicketPriority
	keywords []string
}

// rules are evaluated in order; the first matching set wins.
var rules = []rule{
	{
		priority: domain.TicketPriorityUrgent,
		keywords: []string{"urgente", "emergência", "emergencia", "crítico", "critico", "parado", "travado", "não consigo acessar", "nao consigo acessar"},
	},
	{
		priority: domain.TicketPriorityHigh,
		keywords: []string{"importante", "preciso urgente", "problema grave", "não funciona", "nao funciona", "erro crítico", "erro critico"},
	},
	{
		priority: domain.TicketPriorityMedium,
		keywords: []string{"dúvida", "duvida", "ajuda", "problema", "erro", "bug"},
	},
}

// Classify maps ticket text to a priority by keyword precedence. Text with no
// known keyword, including the empty string, is Low.
func Classify(text string) domain.TicketPriority {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.priority
			}
		}
	}
	return domain.TicketPriorityLow
}
