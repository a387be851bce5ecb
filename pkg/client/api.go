package client

import (
	"context"
)

// ─────────────────────────────────────────────────────────────────────────────
// Wire types
// ─────────────────────────────────────────────────────────────────────────────

// Channels carries the recorded EMG amplitudes in microvolts.  Unrecorded
// channels stay nil.
type Channels struct {
	MasseterRightChewing   *float64 `json:"masseter_right_chewing,omitempty"`
	MasseterLeftChewing    *float64 `json:"masseter_left_chewing,omitempty"`
	TemporalisRightChewing *float64 `json:"temporalis_right_chewing,omitempty"`
	TemporalisLeftChewing  *float64 `json:"temporalis_left_chewing,omitempty"`
	MasseterRightMVC       *float64 `json:"masseter_right_max_clench,omitempty"`
	MasseterLeftMVC        *float64 `json:"masseter_left_max_clench,omitempty"`
	TemporalisRightMVC     *float64 `json:"temporalis_right_max_clench,omitempty"`
	TemporalisLeftMVC      *float64 `json:"temporalis_left_max_clench,omitempty"`
}

// RecommendationRequest is the body of POST /api/v1/recommendations.
type RecommendationRequest struct {
	Apparatus string   `json:"apparatus,omitempty"`
	Channels  Channels `json:"channels"`

	Age                     *int     `json:"age,omitempty"`
	OcclusionAnomalyType    string   `json:"occlusion_anomaly_type,omitempty"`
	WearSeverity            string   `json:"wear_severity,omitempty"`
	MVCHyperfunctionPercent *float64 `json:"mvc_hyperfunction_percent,omitempty"`
	MVCDurationSecPerMin    *float64 `json:"mvc_duration_sec_per_min,omitempty"`

	TopN                int      `json:"top_n,omitempty"`
	IncludeAlternatives bool     `json:"include_alternatives,omitempty"`
	Regions             []string `json:"regions,omitempty"`
	Manufacturers       []string `json:"manufacturers,omitempty"`
	YearMin             int      `json:"year_min,omitempty"`
	PriceMax            float64  `json:"price_max,omitempty"`
}

// Composite is one catalog material as returned by the API.
type Composite struct {
	Name                 string  `json:"name"`
	Category             string  `json:"category"`
	Viscosity            string  `json:"viscosity"`
	Manufacturer         string  `json:"manufacturer"`
	Region               string  `json:"region"`
	YearReleased         int     `json:"year_released"`
	PriceRub             float64 `json:"price_rub"`
	MicrohardnessKHN     float64 `json:"microhardness_KHN"`
	ShrinkagePercent     float64 `json:"polymerization_shrinkage_percent"`
	FillerContentPercent float64 `json:"filler_content_percent"`
	DepthOfCureMM        float64 `json:"depth_of_cure_mm"`
	WearResistance       string  `json:"wear_resistance"`
	SuitableForOcclusal  bool    `json:"suitable_for_occlusal"`
	RequiresCapping      bool    `json:"requires_capping"`
	Notes                string  `json:"notes"`
	FillerOptimal        bool    `json:"filler_optimal"`
}

// Justification explains one recommendation.
type Justification struct {
	Reasons       []string `json:"reasons"`
	Category      string   `json:"category"`
	Notes         string   `json:"notes"`
	IsPriority    bool     `json:"is_priority"`
	PriorityNote  string   `json:"priority_note,omitempty"`
	FillerContent float64  `json:"filler_content"`
}

// Recommendation is one ranked candidate.
type Recommendation struct {
	Composite     Composite     `json:"composite"`
	Score         float64       `json:"score"`
	Justification Justification `json:"justification"`
}

// ModelPrediction is the classifier's opinion when a model is deployed.
type ModelPrediction struct {
	Composite  string  `json:"composite"`
	Confidence float64 `json:"confidence"`
}

// RecommendationResult is the body of a successful recommendation call.
type RecommendationResult struct {
	Recommendations         []Recommendation `json:"recommendations"`
	WearSeverity            string           `json:"wear_severity"`
	CandidateCount          int              `json:"candidate_count"`
	UsedFallbackCalibration bool             `json:"used_fallback_calibration"`
	ModelPrediction         *ModelPrediction `json:"model_prediction,omitempty"`
}

// TrainRequest is the body of POST /api/v1/train.
type TrainRequest struct {
	SkipSynthetic bool `json:"skip_synthetic,omitempty"`
}

// TrainResult summarizes a completed training run.
type TrainResult struct {
	SnapshotID       string   `json:"snapshot_id,omitempty"`
	ModelType        string   `json:"model_type"`
	Examples         int      `json:"examples"`
	TestExamples     int      `json:"test_examples"`
	Classes          []string `json:"classes"`
	HoldoutAccuracy  *float64 `json:"holdout_accuracy,omitempty"`
	UsedEnsemble     bool     `json:"used_ensemble"`
	EnsembleFallback bool     `json:"ensemble_fallback"`
	ArtifactPath     string   `json:"artifact_path"`
	DurationMS       int64    `json:"duration_ms"`
}

// ModelInfo describes the deployed model.
type ModelInfo struct {
	Trained         bool     `json:"trained"`
	ModelType       string   `json:"model_type,omitempty"`
	TrainedAt       string   `json:"trained_at,omitempty"`
	Examples        int      `json:"examples,omitempty"`
	Classes         []string `json:"classes,omitempty"`
	HoldoutAccuracy *float64 `json:"holdout_accuracy,omitempty"`
	UsedEnsemble    bool     `json:"used_ensemble,omitempty"`
	ArtifactPath    string   `json:"artifact_path,omitempty"`
}

// ArticleRequest is the body of POST /api/v1/corpus/articles.
type ArticleRequest struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Authors  string   `json:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Year     int      `json:"year,omitempty"`
	Text     string   `json:"text"`
	URL      string   `json:"url,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// IngestResult summarizes one ingested article.
type IngestResult struct {
	ArticleID      string `json:"article_id"`
	PairsExtracted int    `json:"pairs_extracted"`
	KnowledgeItems int    `json:"knowledge_items"`
}

// KnowledgeBase is the aggregated knowledge across the corpus.
type KnowledgeBase struct {
	ArticlesCount  int `json:"articles_count"`
	KnowledgeCount int `json:"knowledge_count"`

	CompositeRecommendations []struct {
		Composite string `json:"composite"`
		Context   string `json:"context"`
		Source    string `json:"source"`
	} `json:"composite_recommendations"`
	EMGGuidelines []struct {
		Value   float64 `json:"value"`
		Std     float64 `json:"std"`
		Context string  `json:"context"`
		Source  string  `json:"source"`
	} `json:"emg_guidelines"`
	ClinicalCriteria []struct {
		Criterion string `json:"criterion"`
		Value     string `json:"value,omitempty"`
		Source    string `json:"source"`
	} `json:"clinical_criteria"`
	TechnicalSpecs []struct {
		Composite string  `json:"composite"`
		Property  string  `json:"property"`
		Value     float64 `json:"value"`
		Source    string  `json:"source"`
	} `json:"technical_specs"`
}

// CorpusStats summarizes the ingested corpus.
type CorpusStats struct {
	Articles     int64 `json:"articles"`
	Pairs        int64 `json:"pairs"`
	LabeledPairs int64 `json:"labeled_pairs"`
}

// Health is the body of the liveness probe.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Calls
// ─────────────────────────────────────────────────────────────────────────────

// Recommend requests ranked composite recommendations for one recording.
func (c *Client) Recommend(ctx context.Context, req *RecommendationRequest) (*RecommendationResult, error) {
	var result RecommendationResult
	if err := c.post(ctx, "/api/v1/recommendations", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Train triggers a synchronous training run.
func (c *Client) Train(ctx context.Context, req *TrainRequest) (*TrainResult, error) {
	var result TrainResult
	if err := c.post(ctx, "/api/v1/train", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ModelInfo fetches the deployed model's metadata.
func (c *Client) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	var info ModelInfo
	if err := c.get(ctx, "/api/v1/model", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// IngestArticle submits one article to the corpus.
func (c *Client) IngestArticle(ctx context.Context, req *ArticleRequest) (*IngestResult, error) {
	var result IngestResult
	if err := c.post(ctx, "/api/v1/corpus/articles", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Knowledge fetches the aggregated knowledge base.
func (c *Client) Knowledge(ctx context.Context) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := c.get(ctx, "/api/v1/knowledge", &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// CorpusStats fetches corpus counters.
func (c *Client) CorpusStats(ctx context.Context) (*CorpusStats, error) {
	var stats CorpusStats
	if err := c.get(ctx, "/api/v1/corpus/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Healthz probes the liveness endpoint.
func (c *Client) Healthz(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/healthz", &h); err != nil {
		return nil, err
	}
	return &h, nil
}
