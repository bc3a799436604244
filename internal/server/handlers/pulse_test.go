// internal/server/handlers/pulse_test.go

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/analysis"
	"pulse/internal/domain/pulse"
)

type stubProvider struct {
	result *pulse.Result
}

func (s *stubProvider) Latest() *pulse.Result { return s.result }

func fixtureResult() *pulse.Result {
	return &pulse.Result{
		Topics: []pulse.ComputedTopic{
			{Slug: "ai", Label: "AI / Machine Learning", PulseScore: 0.85, MentionCount: 150, MentionRank: 1, PulseRank: 1},
			{Slug: "rust", Label: "Rust", PulseScore: 0.72, MentionCount: 89, MentionRank: 4, PulseRank: 2, Velocity: 2.1, UniqueAuthors: 30},
			{Slug: "python", Label: "Python", PulseScore: 0.65, MentionCount: 120, MentionRank: 2, PulseRank: 3},
			{Slug: "javascript", Label: "JavaScript", PulseScore: 0.58, MentionCount: 95, MentionRank: 3, PulseRank: 4},
		},
		Edges: []pulse.CooccurrenceEdge{
			{TopicA: "ai", TopicB: "python", SharedPosts: 5, SharedAuthors: 3},
			{TopicA: "python", TopicB: "rust", SharedPosts: 1, SharedAuthors: 1},
		},
		Clusters:   []pulse.ClusterInfo{},
		CapturedAt: time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
	}
}

func newHandler(result *pulse.Result) *PulseHandler {
	return NewPulseHandler(&stubProvider{result: result}, analysis.DefaultThresholds())
}

func doRequest(t *testing.T, handler http.HandlerFunc, url string) (*httptest.ResponseRecorder, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec, rec.Body.Bytes()
}

func TestGetCurrent(t *testing.T) {
	rec, body := doRequest(t, newHandler(fixtureResult()).GetCurrent, "/api/v1/pulse/current")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp PulseResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Topics, 4)
	assert.Equal(t, "ai", resp.Topics[0].Slug)
	assert.NotEmpty(t, resp.SnapshotID)
}

func TestGetCurrentLimit(t *testing.T) {
	rec, body := doRequest(t, newHandler(fixtureResult()).GetCurrent, "/api/v1/pulse/current?limit=2")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PulseResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Topics, 2)
	assert.Equal(t, "ai", resp.Topics[0].Slug)
	assert.Equal(t, "rust", resp.Topics[1].Slug)
}

func TestGetCurrentMinScore(t *testing.T) {
	rec, body := doRequest(t, newHandler(fixtureResult()).GetCurrent, "/api/v1/pulse/current?min_score=0.7")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PulseResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Topics, 2)
}

func TestGetCurrentInvalidLimit(t *testing.T) {
	rec, _ := doRequest(t, newHandler(fixtureResult()).GetCurrent, "/api/v1/pulse/current?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCurrentNoResultYet(t *testing.T) {
	rec, body := doRequest(t, newHandler(nil).GetCurrent, "/api/v1/pulse/current")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PulseResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Empty(t, resp.Topics)
	assert.Empty(t, resp.Clusters)
}

func TestGetGraph(t *testing.T) {
	rec, body := doRequest(t, newHandler(fixtureResult()).GetGraph, "/api/v1/pulse/graph")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp GraphResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Len(t, resp.Nodes, 4)
	require.Len(t, resp.Edges, 2)
	assert.Equal(t, "ai", resp.Edges[0].Source)
	assert.Equal(t, "python", resp.Edges[0].Target)
	// Edge weight is the shared author count, not the post count.
	assert.Equal(t, 3, resp.Edges[0].Weight)
	assert.Equal(t, 5, resp.Edges[0].SharedPosts)
}

func TestGetGraphMinEdgeWeight(t *testing.T) {
	rec, body := doRequest(t, newHandler(fixtureResult()).GetGraph, "/api/v1/pulse/graph?min_edge_weight=2")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp GraphResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Edges, 1)
	assert.Equal(t, 3, resp.Edges[0].Weight)
	assert.Equal(t, "ai", resp.Edges[0].Source)
}

func TestGetGraphInvalidMinEdgeWeight(t *testing.T) {
	rec, _ := doRequest(t, newHandler(fixtureResult()).GetGraph, "/api/v1/pulse/graph?min_edge_weight=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetComparison(t *testing.T) {
	rec, body := doRequest(t, newHandler(fixtureResult()).GetComparison, "/api/v1/pulse/compare")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp pulse.RankComparison
	require.NoError(t, json.Unmarshal(body, &resp))

	assert.True(t, resp.HypothesisSupported)
	require.Len(t, resp.Divergences, 1)
	assert.Equal(t, "rust", resp.Divergences[0].Slug)
	assert.Equal(t, 2, resp.Divergences[0].RankDifference)
}

func TestGetComparisonNoResultYet(t *testing.T) {
	rec, body := doRequest(t, newHandler(nil).GetComparison, "/api/v1/pulse/compare")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp pulse.RankComparison
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.HypothesisSupported)
	assert.Empty(t, resp.Divergences)
}
