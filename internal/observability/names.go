// Package observability provides OpenTelemetry metrics, tracing and log correlation for the API.
package observability

import "strings"

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameHTTPRequests          = "pfa_http_requests_total"
	MetricNameHTTPRequestDuration   = "pfa_http_request_duration_seconds"
	MetricNameRequestBodyTooLarge   = "pfa_request_body_too_large_total"
	MetricNameCacheHits             = "pfa_cache_hits_total"
	MetricNameCacheMisses           = "pfa_cache_misses_total"
	MetricNameEmbeddingRequests     = "pfa_embedding_requests_total"
	MetricNameEmbeddingDuration     = "pfa_embedding_duration_seconds"
	MetricNameLLMCompletions        = "pfa_llm_completions_total"
	MetricNameLLMCompletionDuration = "pfa_llm_completion_duration_seconds"
	MetricNameDebateMapGenerations  = "pfa_debate_map_generations_total"
	MetricNameDebateMapDuration     = "pfa_debate_map_duration_seconds"
	MetricNamePipelineStrategy      = "pfa_pipeline_strategy_total"
	MetricNameRiverQueueDepth       = "pfa_river_queue_depth"
)

// Attribute keys.
const (
	AttrReason      = "reason"
	AttrStatus      = "status"
	AttrProvider    = "provider"
	AttrOutcome     = "outcome"
	AttrMode        = "mode"
	AttrStage       = "stage"
	AttrStrategy    = "strategy"
	AttrCache       = "cache"
	AttrMethod      = "method"
	AttrRoute       = "route"
	AttrStatusClass = "status_class"
)

// AllowedCacheNames for pfa_cache_hits_total and pfa_cache_misses_total.
var AllowedCacheNames = map[string]bool{
	"embeddings": true,
	"debate_map": true,
	"ai_health":  true,
}

// AllowedEmbeddingProviders for pfa_embedding_requests_total.
var AllowedEmbeddingProviders = map[string]bool{
	"openai": true,
	"google": true,
	"onnx":   true,
	"mock":   true,
	"tfidf":  true,
}

// AllowedEmbeddingStatuses for pfa_embedding_requests_total.
var AllowedEmbeddingStatuses = map[string]bool{
	"success":      true,
	"error":        true,
	"rate_limited": true,
}

// AllowedLLMOutcomes for pfa_llm_completions_total: success plus every completion failure reason.
var AllowedLLMOutcomes = map[string]bool{
	"success":           true,
	"no_credentials":    true,
	"rate_limited":      true,
	"timeout":           true,
	"model_unavailable": true,
	"http_status":       true,
	"transport":         true,
	"empty_response":    true,
}

// AllowedDebateMapModes for pfa_debate_map_generations_total.
var AllowedDebateMapModes = map[string]bool{
	"full":    true,
	"minimal": true,
}

// AllowedDebateMapReasons for pfa_debate_map_generations_total. "none" marks a full map.
var AllowedDebateMapReasons = map[string]bool{
	"none":                        true,
	"insufficient_data":           true,
	"embedding_model_unavailable": true,
	"projection_unavailable":      true,
	"clustering_unavailable":      true,
}

// AllowedPipelineStages for pfa_pipeline_strategy_total.
var AllowedPipelineStages = map[string]bool{
	"embed":   true,
	"reduce":  true,
	"cluster": true,
}

// AllowedPipelineStrategies for pfa_pipeline_strategy_total.
var AllowedPipelineStrategies = map[string]bool{
	"openai":  true,
	"google":  true,
	"onnx":    true,
	"mock":    true,
	"tfidf":   true,
	"umap":    true,
	"pca":     true,
	"hdbscan": true,
	"kmeans":  true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeCacheName returns name if it is a known cache, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}

// Slug lowercases s and replaces spaces with underscores ("Insufficient Data" -> "insufficient_data").
// An empty string becomes "none".
func Slug(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "none"
	}

	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}
