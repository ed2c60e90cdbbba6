package models

import (
	"time"

	"github.com/google/uuid"
)

// Debate map modes.
const (
	DebateMapModeFull    = "full"
	DebateMapModeMinimal = "minimal"
)

// NoiseClusterID marks points a density clusterer left unassigned.
const NoiseClusterID = -1

// DebatePoint is one feedback item projected onto the map.
type DebatePoint struct {
	ID              uuid.UUID `json:"id"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	ClusterID       int       `json:"cluster_id"`
	Sentiment       Sentiment `json:"sentiment"`
	Text            string    `json:"text"`
	StakeholderType *string   `json:"stakeholder_type,omitempty"`
}

// DebateCluster summarises one group of points.
type DebateCluster struct {
	ID               int       `json:"id"`
	Label            string    `json:"label"`
	Size             int       `json:"size"`
	AverageSentiment Sentiment `json:"average_sentiment"`
	KeyThemes        []string  `json:"key_themes"`
	Color            string    `json:"color"`
}

// ConflictZone pairs two clusters whose dominant sentiments differ.
type ConflictZone struct {
	Cluster1    string `json:"cluster1"`
	Cluster2    string `json:"cluster2"`
	Description string `json:"description"`
}

// DebateMap is the assembled map. Points always has one entry per input item.
type DebateMap struct {
	Mode             string          `json:"mode"`
	Reason           string          `json:"reason,omitempty"`
	Points           []DebatePoint   `json:"points"`
	Clusters         []DebateCluster `json:"clusters"`
	Narrative        string          `json:"narrative"`
	ConflictZones    []ConflictZone  `json:"conflict_zones"`
	ConsensusAreas   []string        `json:"consensus_areas"`
	EmbeddingBackend string          `json:"embedding_backend,omitempty"`
	Reducer          string          `json:"reducer,omitempty"`
	Clusterer        string          `json:"clusterer,omitempty"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// DebateMapQuery holds the query parameters of the debate map endpoint.
type DebateMapQuery struct {
	Regenerate bool `form:"regenerate"`
}
