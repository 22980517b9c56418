// Package shared holds types passed between the LLM clients and the agents using them.
package shared

import "time"

// TokenUsage is what one model call cost.
type TokenUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

// Total returns TotalTokens, or the sum of both sides when the provider did not report it.
func (u TokenUsage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// AgentMeta describes one agent execution: which agent, what it cost, how long it took.
type AgentMeta struct {
	AgentName string        `json:"agent_name"`
	Usage     TokenUsage    `json:"usage"`
	Latency   time.Duration `json:"latency"`
}
