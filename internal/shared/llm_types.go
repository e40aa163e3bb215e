package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for one AI generator call.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// NewAgentMeta stamps the latency of a call that started at start.
func NewAgentMeta(agentName string, usage TokenUsage, start time.Time) AgentMeta {
	return AgentMeta{
		AgentName: agentName,
		Usage:     usage,
		Latency:   time.Since(start),
	}
}

// AgentRecorder receives the metadata of every AI generator call, failed or not.
type AgentRecorder interface {
	RecordAgent(meta AgentMeta, err error)
}
