package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/couchcryptid/crash-data-dashboard/internal/model"
	"github.com/couchcryptid/crash-data-dashboard/internal/pipeline"
)

// RiskModel is the classifier used by the risk assessment endpoint.
const RiskModel = "risk"

// topRiskFactors is how many feature importances an assessment reports.
const topRiskFactors = 3

// maxBodyBytes bounds prediction request bodies.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidSeverity),
		errors.Is(err, model.ErrUnknownCategory),
		errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrModelNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pipeline.ErrDatasetUnavailable):
		status = http.StatusServiceUnavailable
	case r.Context().Err() != nil:
		// Client gave up while the dataset was loading.
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dataset.Status())
}

func (s *Server) handleWeatherConditions(w http.ResponseWriter, r *http.Request) {
	weather, err := s.deps.Dataset.WeatherConditions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weather)
}

type filterEcho struct {
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Weather  string          `json:"weather"`
	Severity domain.Severity `json:"severity"`
}

func echoFilter(p domain.FilterParams) filterEcho {
	return filterEcho{
		Start:    p.Start.Format(dateLayout),
		End:      p.End.Format(dateLayout),
		Weather:  p.Weather,
		Severity: p.Severity,
	}
}

type summaryResponse struct {
	Filter  filterEcho     `json:"filter"`
	Summary domain.Summary `json:"summary"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	view, err := s.deps.Dataset.View(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Filter: echoFilter(params), Summary: view.Summary})
}

type recordsResponse struct {
	Filter  filterEcho           `json:"filter"`
	Total   int                  `json:"total"`
	Records []domain.CrashRecord `json:"records"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := parseFilterParams(q)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	limit, err := parseLimit(q)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	view, err := s.deps.Dataset.View(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records := view.Records
	if len(records) > limit {
		records = records[:limit]
	}
	writeJSON(w, http.StatusOK, recordsResponse{Filter: echoFilter(params), Total: len(view.Records), Records: records})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Dataset.Overview(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRoadConditions(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Dataset.RoadConditions(r.Context(), parseRoadFilter(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	html, err := s.deps.Map.HTML()
	if err != nil {
		s.logger.Error("map unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "map unavailable"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html) //nolint:errcheck // client may have gone away
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	names, err := s.deps.Models.Names()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

type modelResponse struct {
	Name     string                    `json:"name"`
	Target   string                    `json:"target"`
	Features []model.FeatureOption     `json:"features"`
	Top      []model.FeatureImportance `json:"top_features"`
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Models.Get(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modelResponse{
		Name:     c.Name(),
		Target:   c.Target(),
		Features: c.Options(),
		Top:      c.TopFeatures(-1),
	})
}

type predictRequest struct {
	Inputs map[string]string `json:"inputs"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	c, err := s.deps.Models.Get(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req predictRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.predict(c, req.Inputs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type riskResponse struct {
	RiskLevel     string                    `json:"risk_level"`
	Message       string                    `json:"message"`
	Probabilities map[string]float64        `json:"probabilities"`
	TopFactors    []model.FeatureImportance `json:"top_factors"`
	Suggestions   []string                  `json:"suggestions"`
	SafetyTip     string                    `json:"safety_tip"`
}

func (s *Server) handleRiskAssess(w http.ResponseWriter, r *http.Request) {
	var scenario domain.RiskScenario
	if err := decodeBody(w, r, &scenario); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := scenario.Validate(); err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	c, err := s.deps.Models.Get(RiskModel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.predict(c, scenario.ModelInputs())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, riskResponse{
		RiskLevel:     p.Label,
		Message:       domain.RiskMessage(p.Label),
		Probabilities: p.Probabilities,
		TopFactors:    c.TopFeatures(topRiskFactors),
		Suggestions:   domain.PolicySuggestions(scenario),
		SafetyTip:     domain.PickSafetyTip(nil),
	})
}

func (s *Server) predict(c *model.Classifier, inputs map[string]string) (model.Prediction, error) {
	p, err := c.Predict(inputs)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.Predictions.WithLabelValues(c.Name(), outcome).Inc()
	}
	return p, err
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest(err)
	}
	return nil
}
