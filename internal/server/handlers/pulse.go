// internal/server/handlers/pulse.go

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pulse/internal/analysis"
	"pulse/internal/domain/pulse"
)

// PulseProvider supplies the most recent pulse computation.
type PulseProvider interface {
	Latest() *pulse.Result
}

// PulseHandler handles pulse-related HTTP requests
type PulseHandler struct {
	provider   PulseProvider
	thresholds analysis.Thresholds
}

// NewPulseHandler creates a new pulse handler
func NewPulseHandler(provider PulseProvider, thresholds analysis.Thresholds) *PulseHandler {
	return &PulseHandler{
		provider:   provider,
		thresholds: thresholds,
	}
}

// PulseResponse is the payload for the current-pulse endpoint.
type PulseResponse struct {
	SnapshotID string                `json:"snapshot_id"`
	Topics     []pulse.ComputedTopic `json:"topics"`
	Clusters   []pulse.ClusterInfo   `json:"clusters"`
	CapturedAt time.Time             `json:"captured_at"`
}

// GraphNode is a topic node in the graph payload.
type GraphNode struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// GraphEdge is a co-occurrence edge in the graph payload. Weight is the
// number of shared authors; the shared post count rides along separately.
type GraphEdge struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Weight      int    `json:"weight"`
	SharedPosts int    `json:"shared_posts"`
}

// GraphResponse is the payload for the graph endpoint.
type GraphResponse struct {
	Nodes      []GraphNode         `json:"nodes"`
	Edges      []GraphEdge         `json:"edges"`
	Clusters   []pulse.ClusterInfo `json:"clusters"`
	CapturedAt time.Time           `json:"captured_at"`
}

// GetCurrent returns the most recent pulse ranking
func (h *PulseHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	result := h.provider.Latest()
	if result == nil {
		respondWithJSON(w, http.StatusOK, PulseResponse{
			SnapshotID: uuid.NewString(),
			Topics:     []pulse.ComputedTopic{},
			Clusters:   []pulse.ClusterInfo{},
		})
		return
	}

	// Parse query parameters
	limit := len(result.Topics)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	minScore := 0.0
	if scoreStr := r.URL.Query().Get("min_score"); scoreStr != "" {
		parsed, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid min_score", err)
			return
		}
		minScore = parsed
	}

	topics := make([]pulse.ComputedTopic, 0, limit)
	for _, t := range result.Topics {
		if len(topics) >= limit {
			break
		}
		if t.PulseScore < minScore {
			continue
		}
		topics = append(topics, t)
	}

	respondWithJSON(w, http.StatusOK, PulseResponse{
		SnapshotID: uuid.NewString(),
		Topics:     topics,
		Clusters:   result.Clusters,
		CapturedAt: result.CapturedAt,
	})
}

// GetGraph returns the topic co-occurrence graph
func (h *PulseHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	result := h.provider.Latest()
	if result == nil {
		respondWithJSON(w, http.StatusOK, GraphResponse{
			Nodes:    []GraphNode{},
			Edges:    []GraphEdge{},
			Clusters: []pulse.ClusterInfo{},
		})
		return
	}

	minWeight := 1
	if weightStr := r.URL.Query().Get("min_edge_weight"); weightStr != "" {
		parsed, err := strconv.Atoi(weightStr)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid min_edge_weight", err)
			return
		}
		minWeight = parsed
	}

	nodes := make([]GraphNode, 0, len(result.Topics))
	for _, t := range result.Topics {
		nodes = append(nodes, GraphNode{Slug: t.Slug, Label: t.Label})
	}

	edges := make([]GraphEdge, 0, len(result.Edges))
	for _, e := range result.Edges {
		if e.SharedAuthors < minWeight {
			continue
		}
		edges = append(edges, GraphEdge{
			Source:      e.TopicA,
			Target:      e.TopicB,
			Weight:      e.SharedAuthors,
			SharedPosts: e.SharedPosts,
		})
	}

	respondWithJSON(w, http.StatusOK, GraphResponse{
		Nodes:      nodes,
		Edges:      edges,
		Clusters:   result.Clusters,
		CapturedAt: result.CapturedAt,
	})
}

// GetComparison returns the pulse-vs-mentions ranking diff
func (h *PulseHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	result := h.provider.Latest()
	if result == nil {
		respondWithJSON(w, http.StatusOK, pulse.RankComparison{
			Divergences:  []pulse.RankDivergence{},
			MentionOrder: []string{},
			PulseOrder:   []string{},
		})
		return
	}

	comparison := analysis.CompareRankings(result.Topics, h.thresholds)
	respondWithJSON(w, http.StatusOK, comparison)
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		log.Error().Err(err).Int("code", code).Str("message", message).Msg("request failed")
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
