package dto

import "time"

// CategoryRequest payload.
type CategoryRequest struct {
	Name        string  `json:"nome" validate:"required,max=100"`
	Description *string `json:"descricao"`
}

// CategoryResponse response.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"nome"`
	Description *string   `json:"descricao"`
	CreatedAt   time.Time `json:"created_at"`
}

// FAQRequest payload.
type FAQRequest struct {
	CategoryID *string `json:"categoria_id" validate:"omitempty,uuid"`
	Question   string  `json:"pergunta" validate:"required"`
	Answer     string  `json:"resposta" validate:"required"`
}

// FAQResponse response.
type FAQResponse struct {
	ID         string    `json:"id"`
	CategoryID *string   `json:"categoria_id"`
	Question   string    `json:"pergunta"`
	Answer     string    `json:"resposta"`
	Helpful    int       `json:"util"`
	Views      int       `json:"visualizacoes"`
	CreatedAt  time.Time `json:"created_at"`
}
