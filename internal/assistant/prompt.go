package assistant

import (
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/knowledge"
)

const systemPreamble = `Você é um assistente de suporte técnico especializado.
Sua função é ajudar usuários com problemas técnicos de TI de forma clara e objetiva.

Base de conhecimento:
`

const systemGuidelines = `

Diretrizes:
- Responda de forma clara e profissional
- Se a pergunta estiver na base de conhecimento, use essa informação
- Se não souber, sugira abrir um chamado específico
- Seja educado e prestativo
- Mantenha respostas concisas mas completas`

// RenderKnowledge serializes pairs as "Q: ...\nA: ..." blocks separated by a blank line.
func RenderKnowledge(kb knowledge.Context) string {
	blocks := make([]string, 0, kb.Len())
	for p := range kb.All() {
		blocks = append(blocks, "Q: "+p.Question+"\nA: "+p.Answer)
	}
	return strings.Join(blocks, "\n\n")
}

// SystemPrompt builds the single system instruction sent with every question.
func SystemPrompt(kb knowledge.Context) string {
	return systemPreamble + RenderKnowledge(kb) + systemGuidelines
}
