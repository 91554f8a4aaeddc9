// Package predict consults the advisory prediction service for
// recommended actions. The service is optional: any failure falls back
// to a local canned heuristic and is never surfaced as a cycle error.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"plantwatch/internal/logger"
	"plantwatch/internal/metrics"
	"plantwatch/internal/models"
)

const defaultTimeout = 3 * time.Second

// Advisor fetches one advisory line per violation.
type Advisor struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// New creates an Advisor. An empty url selects heuristic-only mode.
func New(url string, timeout time.Duration) *Advisor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Advisor{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

type adviceRequest struct {
	Domain    string  `json:"domain"`
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Severity  string  `json:"severity"`
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

// Advice returns a recommended-action line for v. On any service
// failure it substitutes the local heuristic and proceeds.
func (a *Advisor) Advice(ctx context.Context, v models.Violation) string {
	if a.url == "" {
		return heuristic(v)
	}

	advice, err := a.fetch(ctx, v)
	if err != nil {
		log := logger.WithComponent("advisor")
		log.Debug().
			Err(err).
			Str("violation_id", v.ID).
			Msg("prediction service unavailable, using heuristic")
		metrics.PredictionRequests.WithLabelValues("fallback").Inc()
		return heuristic(v)
	}

	metrics.PredictionRequests.WithLabelValues("success").Inc()
	return advice
}

func (a *Advisor) fetch(ctx context.Context, v models.Violation) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	payload, err := json.Marshal(adviceRequest{
		Domain:    string(v.Domain),
		Parameter: v.Parameter,
		Value:     v.Value,
		Threshold: v.Threshold,
		Severity:  string(v.Severity),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("prediction service: non-2xx response %d", resp.StatusCode)
	}

	var decoded adviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Advice == "" {
		return "", fmt.Errorf("prediction service: empty advice")
	}
	return decoded.Advice, nil
}

// heuristic returns the canned recommended action for a violation
func heuristic(v models.Violation) string {
	switch v.Domain {
	case models.DomainEmission:
		return "Check scrubber and ESP operation; reduce load until emission levels recover."
	case models.DomainEquipment:
		if v.Parameter == "efficiency" {
			return "Inspect heat exchanger fouling and condenser vacuum; schedule cleaning."
		}
		return "Reduce unit load and schedule an inspection of the affected component."
	case models.DomainLoad:
		return "Coordinate with grid dispatch to shed or redistribute load."
	case models.DomainAshStorage:
		return "Schedule ash evacuation and verify silo level sensors."
	default:
		return "Review the affected parameter and follow the plant operating procedure."
	}
}
