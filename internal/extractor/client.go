package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chicken-dinner/internal/metrics"
	"github.com/mauv0809/chicken-dinner/internal/scoring"
)

const (
	extractionToolName = "extract_match_data"

	// maxAttempts is the total call budget per screenshot, first try included.
	maxAttempts    = 3
	retryBaseDelay = 500 * time.Millisecond
)

// extractionPrompt steers the model toward the forced tool call. The wording
// mirrors the fields of the extract_match_data schema.
const extractionPrompt = "This is a screenshot of a PUBG match results screen. " +
	"Read the team's final placement and total kill count exactly as shown " +
	"and report them with the extract_match_data function."

// ErrNoToolCall is returned when the model answers without invoking the
// extraction function. Resending the same image rarely changes that, so the
// call is not retried.
var ErrNoToolCall = errors.New("model response contained no tool call")

// StatusError is returned for non-OK responses from the model API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received non-OK HTTP status: %d", e.Code)
}

// transportError marks network-level failures, which are always retryable.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// Client calls an OpenAI-compatible chat completions endpoint with a forced
// function call to pull structured match data out of a screenshot.
type Client struct {
	httpClient *http.Client
	BaseURL    string
	apiKey     string
	model      string
	baseDelay  time.Duration
	metrics    metrics.Metrics
}

// NewClient creates a new extraction client.
func NewClient(apiKey, model, baseURL string, metrics metrics.Metrics) Extractor {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		baseDelay:  retryBaseDelay,
		metrics:    metrics,
	}
}

// Ensure Client implements the Extractor interface.
var _ Extractor = (*Client)(nil)

// ExtractMatchData sends the screenshot to the model and returns the reported
// placement and kills. Rate limits, quota errors, server errors and network
// failures are retried with a linear backoff; schema violations fail
// immediately because a retry would just replay them.
func (c *Client) ExtractMatchData(ctx context.Context, imageURL string) (*Result, error) {
	payload, err := json.Marshal(c.buildRequest(imageURL))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * c.baseDelay
			log.Warn("Retrying extraction", "attempt", attempt, "delay", delay, "error", lastErr)
			c.metrics.IncExtractionRetries()
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				c.metrics.IncExtractionFailures()
				return nil, ctx.Err()
			}
		}

		result, err := c.extractOnce(ctx, payload)
		if err == nil {
			log.Info("Extracted match data", "placement", result.Placement, "kills", result.Kills, "attempt", attempt)
			return result, nil
		}
		if !isRetryable(err) {
			c.metrics.IncExtractionFailures()
			return nil, err
		}
		lastErr = err
	}

	c.metrics.IncExtractionFailures()
	return nil, fmt.Errorf("extraction failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) extractOnce(ctx context.Context, payload []byte) (*Result, error) {
	c.metrics.IncExtractionAttempts()

	url := c.BaseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Debug("Requesting extraction from model API", "url", url, "model", c.model)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Received non-OK HTTP status from model API", "status", resp.StatusCode, "body", string(body))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	return parseResult(body)
}

func (c *Client) buildRequest(imageURL string) chatRequest {
	return chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
			},
		}},
		Tools: []tool{{
			Type: "function",
			Function: toolFunction{
				Name:        extractionToolName,
				Description: "Report the placement and kill count shown on a PUBG match results screen.",
				Parameters: functionParameters{
					Type: "object",
					Properties: map[string]property{
						"placement": {Type: "integer", Description: "Final placement of the team, 1 for a chicken dinner."},
						"kills":     {Type: "integer", Description: "Total kills credited to the team."},
					},
					Required:             []string{"placement", "kills"},
					AdditionalProperties: false,
				},
			},
		}},
		ToolChoice: &toolChoice{
			Type:     "function",
			Function: toolChoiceFunction{Name: extractionToolName},
		},
	}
}

// parseResult decodes the forced tool call and validates it against the
// schema. Anything the model got wrong here is final for this call.
func parseResult(body []byte) (*Result, error) {
	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(completion.Choices) == 0 || len(completion.Choices[0].Message.ToolCalls) == 0 {
		return nil, ErrNoToolCall
	}

	call := completion.Choices[0].Message.ToolCalls[0]
	if call.Function.Name != extractionToolName {
		return nil, fmt.Errorf("model called unexpected tool %q", call.Function.Name)
	}

	var args struct {
		Placement *int `json:"placement"`
		Kills     *int `json:"kills"`
	}
	decoder := json.NewDecoder(strings.NewReader(call.Function.Arguments))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if args.Placement == nil || args.Kills == nil {
		return nil, fmt.Errorf("tool arguments missing placement or kills: %s", call.Function.Arguments)
	}
	if err := scoring.ValidatePlacement(*args.Placement); err != nil {
		return nil, err
	}
	if err := scoring.ValidateKills(*args.Kills); err != nil {
		return nil, err
	}

	return &Result{Placement: *args.Placement, Kills: *args.Kills}, nil
}

func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests ||
			statusErr.Code == http.StatusPaymentRequired ||
			statusErr.Code >= 500
	}
	var transport *transportError
	return errors.As(err, &transport)
}
