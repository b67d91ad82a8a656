// Package llm provides the chat-completion client behind the narrative and
// quote writers.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Complete: send system/user prompts, receive prose.
// Client.CompleteJSON: same, constrained to a JSON object response.
// DecodeJSON: decode a JSON payload tolerating code fences and preambles.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, empty completions, and network
// timeouts with exponential backoff (base 1s, max 10s, 5 attempts by default).
// A Retry-After header overrides the computed delay. Context cancellation
// aborts retries immediately.
//
// # Pacing
//
// WithRequestsPerMinute installs a token-bucket limiter shared by every call
// on the client, so a month run never exceeds the provider's request ceiling
// even when each day issues several generations back to back.
package llm
