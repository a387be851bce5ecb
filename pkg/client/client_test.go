package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL,
		WithRetryMax(2),
		WithRetryWait(time.Millisecond, 5*time.Millisecond))
	require.NoError(t, err)
	return c, srv
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)

	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}

func TestRecommendSendsChannelsAndDecodesResult(t *testing.T) {
	var gotBody RecommendationRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/recommendations", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(RecommendationResult{
			WearSeverity:   "emg_moderate",
			CandidateCount: 3,
			Recommendations: []Recommendation{{
				Composite: Composite{Name: "NanoCeram Uni", FillerOptimal: true},
				Score:     0.91,
				Justification: Justification{
					Reasons:    []string{"microhardness above the occlusal threshold"},
					IsPriority: true,
				},
			}},
		})
	}))

	v := 352.5
	res, err := c.Recommend(context.Background(), &RecommendationRequest{
		Apparatus: "Synapsis",
		Channels:  Channels{MasseterRightChewing: &v},
		TopN:      3,
	})
	require.NoError(t, err)

	require.NotNil(t, gotBody.Channels.MasseterRightChewing)
	assert.Equal(t, 352.5, *gotBody.Channels.MasseterRightChewing)
	assert.Equal(t, "Synapsis", gotBody.Apparatus)

	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "NanoCeram Uni", res.Recommendations[0].Composite.Name)
	assert.True(t, res.Recommendations[0].Composite.FillerOptimal)
	assert.True(t, res.Recommendations[0].Justification.IsPriority)
	assert.Equal(t, "emg_moderate", res.WearSeverity)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "COMMON_006",
			"message": "at least one EMG channel is required",
		})
	}))

	_, err := c.Recommend(context.Background(), &RecommendationRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsBadRequest())
	assert.Equal(t, "COMMON_006", apiErr.Code)
	assert.Contains(t, apiErr.Message, "channel")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(ModelInfo{Trained: true, ModelType: "random_forest"})
	}))

	info, err := c.ModelInfo(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Trained)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTrain(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/train", r.URL.Path)
		var req TrainRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.SkipSynthetic)

		acc := 0.83
		json.NewEncoder(w).Encode(TrainResult{
			SnapshotID:      "snap-1",
			ModelType:       "random_forest",
			Examples:        120,
			Classes:         []string{"NanoCeram Uni", "BulkArmor Max"},
			HoldoutAccuracy: &acc,
		})
	}))

	res, err := c.Train(context.Background(), &TrainRequest{SkipSynthetic: true})
	require.NoError(t, err)
	assert.Equal(t, "snap-1", res.SnapshotID)
	assert.Equal(t, 120, res.Examples)
	require.NotNil(t, res.HoldoutAccuracy)
	assert.InDelta(t, 0.83, *res.HoldoutAccuracy, 1e-9)
}

func TestIngestArticleAcceptsCreated(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/corpus/articles", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(IngestResult{
			ArticleID:      "manual-abc",
			PairsExtracted: 1,
			KnowledgeItems: 2,
		})
	}))

	res, err := c.IngestArticle(context.Background(), &ArticleRequest{
		Title: "Surface EMG of masticatory muscles",
		Text:  "…",
	})
	require.NoError(t, err)
	assert.Equal(t, "manual-abc", res.ArticleID)
	assert.Equal(t, 1, res.PairsExtracted)
}

func TestKnowledgeAndStats(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/knowledge":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"articles_count":  5,
				"knowledge_count": 12,
			})
		case "/api/v1/corpus/stats":
			json.NewEncoder(w).Encode(CorpusStats{Articles: 5, Pairs: 9, LabeledPairs: 6})
		default:
			http.NotFound(w, r)
		}
	}))

	kb, err := c.Knowledge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, kb.ArticlesCount)
	assert.Equal(t, 12, kb.KnowledgeCount)

	stats, err := c.CorpusStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), stats.Pairs)
	assert.Equal(t, int64(6), stats.LabeledPairs)
}

func TestHealthz(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		json.NewEncoder(w).Encode(Health{Status: "ok", Version: "0.1.0", Uptime: "1m3s"})
	}))

	h, err := c.Healthz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}

func TestNotFoundMapsToAPIError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "COMMON_003",
			"message": "route not found",
		})
	}))

	_, err := c.ModelInfo(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsServerError())
}

func TestOptions(t *testing.T) {
	hc := &http.Client{Timeout: 2 * time.Second}
	c, err := NewClient("http://localhost:1",
		WithHTTPClient(hc),
		WithUserAgent("dentemg-cli/test"),
		WithRetryMax(0),
		WithRetryWait(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, "dentemg-cli/test", c.userAgent)
	assert.Equal(t, 0, c.retryMax)
}
