package handler

import (
	"github.com/hostscout/concierge/internal/assistant"
	"github.com/hostscout/concierge/internal/billing"
	"github.com/hostscout/concierge/internal/pms"
)

// Services are the shared dependencies handlers call into.
// Set once at startup via Init.
type Services struct {
	Syncer     *pms.Syncer
	Billing    *billing.Service
	LLM        *assistant.OpenAIClient
	Summarizer *assistant.Summarizer
}

var svc Services

// Init wires the handler package's service dependencies
func Init(s Services) {
	svc = s
}
