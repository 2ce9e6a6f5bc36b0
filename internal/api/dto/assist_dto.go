package dto

// AssistRequest is the body of the AI-assist endpoint.
type AssistRequest struct {
	Question   string  `json:"pergunta" validate:"required"`
	CategoryID *string `json:"categoriaId" validate:"omitempty,uuid"`
}

// AssistResponse carries the drafted answer.
type AssistResponse struct {
	Answer   string `json:"resposta"`
	Priority string `json:"prioridade,omitempty"`
}
