package models

// ClusterRequest asks for a KMeans grouping of the stored feedback.
type ClusterRequest struct {
	NumClusters  int  `json:"num_clusters" validate:"omitempty,min=2,max=10"`
	AnalyzeElbow bool `json:"analyze_elbow"`
}

// ClusterGroup lists the members of one cluster by their index in the snapshot.
type ClusterGroup struct {
	ClusterID     int        `json:"cluster_id"`
	MemberIndices []int      `json:"member_indices"`
	Items         []Feedback `json:"items"`
}

// ElbowPoint is the inertia observed for one k.
type ElbowPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// ElbowAnalysis is the inertia curve and the k at its sharpest bend.
type ElbowAnalysis struct {
	Points     []ElbowPoint `json:"points"`
	SuggestedK int          `json:"suggested_k"`
}

// ClusterResult is the outcome of the clustering operation. SilhouetteScore is
// omitted when fewer than two labels exist or the snapshot is too large.
type ClusterResult struct {
	Groups           []ClusterGroup        `json:"groups"`
	Clusters         map[string][]Feedback `json:"clusters"`
	NumClusters      int                   `json:"num_clusters"`
	SilhouetteScore  *float64              `json:"silhouette_score,omitempty"`
	Elbow            *ElbowAnalysis        `json:"elbow,omitempty"`
	EmbeddingBackend string                `json:"embedding_backend,omitempty"`
	Degraded         bool                  `json:"degraded"`
	Message          string                `json:"message,omitempty"`
}
