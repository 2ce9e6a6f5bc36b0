package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	StudentName    string                `json:"nome_aluno" validate:"required,max=200"`
	RegistrationID string                `json:"ra" validate:"required,max=50"`
	Email          string                `json:"email" validate:"required,email"`
	Program        string                `json:"curso" validate:"required,max=200"`
	CategoryID     *string               `json:"categoria_id" validate:"omitempty,uuid"`
	Title          string                `json:"titulo" validate:"required,max=200"`
	Description    string                `json:"descricao" validate:"required"`
	Priority       domain.TicketPriority `json:"prioridade" validate:"omitempty,oneof=Baixa Média Alta Urgente"`
}

// TicketSummary response.
type TicketSummary struct {
	ID         string                `json:"id"`
	Number     int64                 `json:"numero_chamado"`
	Title      string                `json:"titulo"`
	CategoryID *string               `json:"categoria_id"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"prioridade"`
	Department *string               `json:"setor_responsavel"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID             string                `json:"id"`
	Number         int64                 `json:"numero_chamado"`
	StudentName    string                `json:"nome_aluno"`
	RegistrationID string                `json:"ra"`
	Email          string                `json:"email"`
	Program        string                `json:"curso"`
	CategoryID     *string               `json:"categoria_id"`
	Title          string                `json:"titulo"`
	Description    string                `json:"descricao"`
	Priority       domain.TicketPriority `json:"prioridade"`
	Status         domain.TicketStatus   `json:"status"`
	Department     *string               `json:"setor_responsavel"`
	OwnerID        string                `json:"usuario_id"`
	AIAnswer       *string               `json:"resposta_ia"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ResponseMessage represents one thread message.
type ResponseMessage struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"chamado_id"`
	AuthorID   string    `json:"usuario_id"`
	AuthorName *string   `json:"autor_nome,omitempty"`
	Message    string    `json:"mensagem"`
	IsAI       bool      `json:"is_ia"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateResponseRequest payload.
type CreateResponseRequest struct {
	Message string `json:"mensagem" validate:"required"`
}

// StatusChangeResponse is one entry of a ticket's status history.
type StatusChangeResponse struct {
	ID        string              `json:"id"`
	ChangedBy string              `json:"alterado_por"`
	From      domain.TicketStatus `json:"status_anterior"`
	To        domain.TicketStatus `json:"status_novo"`
	CreatedAt time.Time           `json:"created_at"`
}

// SuggestionResponse is the assistant's draft for a ticket.
type SuggestionResponse struct {
	Answer   string                `json:"resposta"`
	Priority domain.TicketPriority `json:"prioridade,omitempty"`
}

// AcceptSuggestionRequest carries the answer the requester accepted.
type AcceptSuggestionRequest struct {
	Answer string `json:"resposta" validate:"required"`
}

// ForwardRequest assigns a department.
type ForwardRequest struct {
	Department string `json:"setor" validate:"required,max=100"`
}

// StatusUpdateRequest requests an explicit transition.
type StatusUpdateRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required,oneof='Aberto' 'Em andamento' 'Aguardando resposta' 'Resolvido' 'Fechado'"`
}
