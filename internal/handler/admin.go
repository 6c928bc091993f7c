package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/osse101/RecipeForge_Go/internal/metrics"
	"github.com/osse101/RecipeForge_Go/internal/player"
)

// AdminMetricsResponse is a JSON digest of the Prometheus metrics
type AdminMetricsResponse struct {
	HTTP        HTTPMetrics        `json:"http"`
	Events      EventMetrics       `json:"events"`
	Crafting    CraftingMetrics    `json:"crafting"`
	Persistence PersistenceMetrics `json:"persistence"`
	Players     player.Stats       `json:"players"`
	Recipes     int                `json:"recipes"`
}

type HTTPMetrics struct {
	RequestsTotalByStatus map[string]float64 `json:"requests_total_by_status"`
	AvgLatencyMs          float64            `json:"avg_latency_ms"`
	P95LatencyMs          float64            `json:"p95_latency_ms"`
	InFlight              float64            `json:"in_flight"`
}

type EventMetrics struct {
	PublishedTotalByType map[string]float64 `json:"published_total_by_type"`
	HandlerErrorsByType  map[string]float64 `json:"handler_errors_by_type"`
}

type CraftingMetrics struct {
	CraftsByResult map[string]float64 `json:"crafts_by_result"`
	Rejected       float64            `json:"rejected"`
	LimitsReached  float64            `json:"limits_reached"`
	WorldsCleaned  float64            `json:"worlds_cleaned"`
}

type PersistenceMetrics struct {
	OperationsByStatus map[string]float64 `json:"operations_by_status"`
	RetriesByOperation map[string]float64 `json:"retries_by_operation"`
}

// AdminHandler handles operator endpoints
type AdminHandler struct {
	recipes   RecipeCounter
	directory *player.Directory
	gatherer  prometheus.Gatherer
}

// NewAdminHandler creates a new admin handler reading the default registry
func NewAdminHandler(recipes RecipeCounter, directory *player.Directory) *AdminHandler {
	return &AdminHandler{recipes: recipes, directory: directory, gatherer: prometheus.DefaultGatherer}
}

// HandleGetMetrics returns JSON-formatted metrics
// GET /api/v1/admin/metrics
func (h *AdminHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	resp, err := gatherMetrics(h.gatherer)
	if err != nil {
		respondServiceError(w, r, "Failed to gather metrics", err)
		return
	}
	resp.Recipes = h.recipes.RecipeCount()
	if h.directory != nil {
		resp.Players = h.directory.Stats()
	}
	respondJSON(w, http.StatusOK, resp)
}

func gatherMetrics(g prometheus.Gatherer) (*AdminMetricsResponse, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	resp := &AdminMetricsResponse{
		HTTP: HTTPMetrics{RequestsTotalByStatus: make(map[string]float64)},
		Events: EventMetrics{
			PublishedTotalByType: make(map[string]float64),
			HandlerErrorsByType:  make(map[string]float64),
		},
		Crafting: CraftingMetrics{CraftsByResult: make(map[string]float64)},
		Persistence: PersistenceMetrics{
			OperationsByStatus: make(map[string]float64),
			RetriesByOperation: make(map[string]float64),
		},
	}

	for _, mf := range families {
		switch mf.GetName() {
		case metrics.MetricNameHTTPRequestsTotal:
			sumByLabel(mf, metrics.LabelStatus, resp.HTTP.RequestsTotalByStatus)
		case metrics.MetricNameHTTPRequestDuration:
			var count uint64
			var sum float64
			for _, m := range mf.GetMetric() {
				if hist := m.GetHistogram(); hist != nil {
					count += hist.GetSampleCount()
					sum += hist.GetSampleSum()
					resp.HTTP.P95LatencyMs = max(resp.HTTP.P95LatencyMs, estimateQuantile(hist, 0.95)*1000)
				}
			}
			if count > 0 {
				resp.HTTP.AvgLatencyMs = sum / float64(count) * 1000
			}
		case metrics.MetricNameHTTPRequestsInFlight:
			resp.HTTP.InFlight = total(mf)
		case metrics.MetricNameEventsPublished:
			sumByLabel(mf, metrics.LabelType, resp.Events.PublishedTotalByType)
		case metrics.MetricNameEventHandlerErrors:
			sumByLabel(mf, metrics.LabelType, resp.Events.HandlerErrorsByType)
		case metrics.MetricNameCraftsRecorded:
			sumByLabel(mf, metrics.LabelResult, resp.Crafting.CraftsByResult)
		case metrics.MetricNameCraftsRejected:
			resp.Crafting.Rejected = total(mf)
		case metrics.MetricNameCraftLimitsReached:
			resp.Crafting.LimitsReached = total(mf)
		case metrics.MetricNameWorldsCleaned:
			resp.Crafting.WorldsCleaned = total(mf)
		case metrics.MetricNamePersistenceOperations:
			sumByLabel(mf, metrics.LabelStatus, resp.Persistence.OperationsByStatus)
		case metrics.MetricNamePersistenceRetries:
			sumByLabel(mf, metrics.LabelOperation, resp.Persistence.RetriesByOperation)
		}
	}

	return resp, nil
}

// sumByLabel adds every counter of the family into out, keyed by label
func sumByLabel(mf *dto.MetricFamily, label string, out map[string]float64) {
	for _, m := range mf.GetMetric() {
		if v := getLabelValue(m, label); v != "" {
			out[v] += m.GetCounter().GetValue()
		}
	}
}

// total sums a family of unlabeled counters or gauges
func total(mf *dto.MetricFamily) float64 {
	var sum float64
	for _, m := range mf.GetMetric() {
		sum += m.GetCounter().GetValue() + m.GetGauge().GetValue()
	}
	return sum
}

func getLabelValue(m *dto.Metric, labelName string) string {
	for _, label := range m.GetLabel() {
		if label.GetName() == labelName {
			return label.GetValue()
		}
	}
	return ""
}

// estimateQuantile approximates the given quantile from a histogram
func estimateQuantile(hist *dto.Histogram, quantile float64) float64 {
	totalCount := hist.GetSampleCount()
	if totalCount == 0 {
		return 0
	}

	target := float64(totalCount) * quantile
	buckets := hist.GetBucket()
	for _, bucket := range buckets {
		if float64(bucket.GetCumulativeCount()) >= target {
			return bucket.GetUpperBound()
		}
	}
	if len(buckets) > 0 {
		return buckets[len(buckets)-1].GetUpperBound()
	}
	return 0
}
