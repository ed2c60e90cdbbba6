// Package jobs defines the River job kinds and how they are enqueued.
package jobs

// DebateMapRefreshArgs rebuilds the cached debate map in the background.
type DebateMapRefreshArgs struct{}

// Kind returns the job type identifier for River.
func (DebateMapRefreshArgs) Kind() string { return "debate_map_refresh" }

// LLMWarmupArgs sends a one-token completion to the chat provider.
type LLMWarmupArgs struct{}

// Kind returns the job type identifier for River.
func (LLMWarmupArgs) Kind() string { return "llm_warmup" }
