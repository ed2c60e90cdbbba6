package models

// PredictiveScores are keyword-derived risk and opportunity scores in [0,100].
type PredictiveScores struct {
	LegalRisk            int `json:"legal_risk"`
	ComplianceDifficulty int `json:"compliance_difficulty"`
	BusinessGrowth       int `json:"business_growth"`
}

// AnalyzeTextRequest asks for scoring without storing anything.
type AnalyzeTextRequest struct {
	Text     string    `json:"text" validate:"required,min=1,max=10000,no_null_bytes"`
	Language *Language `json:"language,omitempty" validate:"omitempty,language"`
}

// TextAnalysis is the full classifier output for one text.
type TextAnalysis struct {
	Sentiment     Sentiment        `json:"sentiment"`
	Language      Language         `json:"language"`
	Nuances       []string         `json:"nuances"`
	IsSpam        bool             `json:"is_spam"`
	Scores        PredictiveScores `json:"scores"`
	EdgeCaseFlags []string         `json:"edge_case_flags"`
	EdgeCaseMatch *string          `json:"edge_case_match,omitempty"`
	Summary       string           `json:"summary"`
}
