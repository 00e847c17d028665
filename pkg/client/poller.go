// Package client implements the polling protocol for extraction runs. A
// Poller repeatedly reads the status endpoint of one paper, emits deduplicated
// progress updates, and fetches the full result exactly once when the run
// reaches a terminal state.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// DefaultInterval is the polling cadence used when none is configured.
const DefaultInterval = 3 * time.Second

// Update is one observed state of the polled run. Paper and Projections are
// set only on the final update, after the run reached a terminal status;
// projections are fetched only when the run completed.
type Update struct {
	Status              string                `json:"status"`
	Progress            int32                 `json:"progress"`
	ErrorMessage        string                `json:"error_message,omitempty"`
	ErrorDetails        *workflow.StageError  `json:"error_details,omitempty"`
	Diagnostics         *workflow.Diagnostics `json:"diagnostics,omitempty"`
	EstimatedDurationMs int64                 `json:"estimated_duration_ms,omitempty"`

	Paper       *workflow.Paper            `json:"paper,omitempty"`
	Projections map[string]json.RawMessage `json:"projections,omitempty"`
}

type statusResponse struct {
	ID                  string                `json:"id"`
	Status              string                `json:"status"`
	Progress            int32                 `json:"progress"`
	ErrorMessage        string                `json:"error_message,omitempty"`
	ErrorDetails        *workflow.StageError  `json:"error_details,omitempty"`
	Diagnostics         *workflow.Diagnostics `json:"diagnostics,omitempty"`
	EstimatedDurationMs int64                 `json:"estimated_duration_ms,omitempty"`
}

// Poller polls one paper's status until the run finishes. It is single-use:
// create a new Poller per run.
type Poller struct {
	baseURL string
	paperID string
	apiKey  string

	interval    time.Duration
	projections []string
	httpClient  *http.Client

	cancel context.CancelFunc
}

// NewPollerParams configures a Poller. BaseURL is the server root, e.g.
// "http://localhost:8080". Projections names the projection kinds to fetch
// once after a completed run ("hierarchical", "flow", "sequential").
type NewPollerParams struct {
	BaseURL string
	PaperID string
	APIKey  string

	Interval    time.Duration
	Projections []string
	HTTPClient  *http.Client
}

func NewPoller(params NewPollerParams) *Poller {
	interval := params.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Poller{
		baseURL:     params.BaseURL,
		paperID:     params.PaperID,
		apiKey:      params.APIKey,
		interval:    interval,
		projections: params.Projections,
		httpClient:  httpClient,
	}
}

// Run starts polling and returns a channel of updates. The channel carries
// only changes: identical consecutive states are suppressed, and a stale
// response never lowers the reported progress. The channel closes after the
// terminal update or when the context ends.
func (p *Poller) Run(ctx context.Context) <-chan Update {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	updates := make(chan Update)
	go p.loop(ctx, updates)
	return updates
}

// Stop ends an in-flight Run. The update channel is closed afterwards.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) loop(ctx context.Context, updates chan<- Update) {
	defer close(updates)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var lastProgress int32
	var lastStatus string

	for {
		status, err := p.getStatus(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient poll failures are retried on the next tick.
		} else {
			// Responses can arrive out of order; progress never goes backwards.
			if status.Progress < lastProgress {
				status.Progress = lastProgress
			}

			terminal := workflow.PaperStatus(status.Status).Terminal()
			changed := status.Status != lastStatus || status.Progress != lastProgress
			lastStatus = status.Status
			lastProgress = status.Progress

			if terminal {
				update := Update{
					Status:              status.Status,
					Progress:            status.Progress,
					ErrorMessage:        status.ErrorMessage,
					ErrorDetails:        status.ErrorDetails,
					Diagnostics:         status.Diagnostics,
					EstimatedDurationMs: status.EstimatedDurationMs,
				}
				if paper, err := p.getPaper(ctx); err == nil {
					update.Paper = paper
				}
				if status.Status == string(workflow.StatusCompleted) && len(p.projections) > 0 {
					update.Projections = p.getProjections(ctx)
				}
				select {
				case updates <- update:
				case <-ctx.Done():
				}
				return
			}

			if changed {
				select {
				case updates <- Update{
					Status:              status.Status,
					Progress:            status.Progress,
					Diagnostics:         status.Diagnostics,
					EstimatedDurationMs: status.EstimatedDurationMs,
				}:
				case <-ctx.Done():
					return
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) getStatus(ctx context.Context) (*statusResponse, error) {
	var status statusResponse
	url := fmt.Sprintf("%s/api/papers/%s/status", p.baseURL, p.paperID)
	if err := p.getJSON(ctx, url, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (p *Poller) getPaper(ctx context.Context) (*workflow.Paper, error) {
	var paper workflow.Paper
	url := fmt.Sprintf("%s/api/papers/%s", p.baseURL, p.paperID)
	if err := p.getJSON(ctx, url, &paper); err != nil {
		return nil, err
	}
	return &paper, nil
}

func (p *Poller) getProjections(ctx context.Context) map[string]json.RawMessage {
	projections := make(map[string]json.RawMessage, len(p.projections))
	for _, kind := range p.projections {
		var payload json.RawMessage
		url := fmt.Sprintf("%s/api/papers/%s/projections/%s", p.baseURL, p.paperID, kind)
		if err := p.getJSON(ctx, url, &payload); err != nil {
			continue
		}
		projections[kind] = payload
	}
	if len(projections) == 0 {
		return nil
	}
	return projections
}

func (p *Poller) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
