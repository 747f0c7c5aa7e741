package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/modfall/toxiscan/internal/config"
	"github.com/modfall/toxiscan/internal/metrics"
	"github.com/modfall/toxiscan/internal/util"
	"github.com/modfall/toxiscan/pkg/models"
)

// Client sends one batch of comments to an OpenAI-compatible
// classification endpoint and parses the response into verdicts. It
// performs exactly one logical call per Classify invocation: retry
// policy lives in the retry package, never here.
type Client struct {
	httpClient *http.Client
	limiters   *RateLimiterPool
	cfg        config.ClassifierConfig
	apiKey     string
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// NewClient creates a classifier client. The credential is threaded in
// explicitly; there is no ambient key state.
func NewClient(cfg config.ClassifierConfig, apiKey string, mc *metrics.Collector, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		},
		limiters: NewRateLimiterPool(),
		cfg:      cfg,
		apiKey:   apiKey,
		metrics:  mc,
		logger:   logger,
	}
}

// Classify sends the batch's comment texts in a single call and
// returns one verdict per comment, in input order. A response whose
// verdict count does not match the batch size is a malformed-response
// error, never a partial success.
func (c *Client) Classify(ctx context.Context, comments []models.Comment) ([]models.Verdict, error) {
	if len(comments) == 0 {
		return nil, nil
	}

	endpointID := c.cfg.BaseURL + ":" + c.cfg.ModelName
	waitStart := time.Now()
	if err := c.limiters.Wait(ctx, endpointID, c.cfg.RateLimitPerMinute); err != nil {
		return nil, err
	}
	c.metrics.RecordRateLimiterWait(c.cfg.ModelName, time.Since(waitStart))

	req := ChatCompletionRequest{
		Model:       c.cfg.ModelName,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxOutputTokens,
		N:           1,
		Messages: []Message{
			{Role: "user", Content: buildBatchPrompt(comments)},
		},
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, req)
	c.metrics.RecordClassifierRequest(c.cfg.ModelName, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}

	return c.parseVerdicts(resp, len(comments))
}

// buildBatchPrompt renders the classification instruction for a batch.
func buildBatchPrompt(comments []models.Comment) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following comments for offensive content. For each comment, classify it into one of these categories: hate speech, toxicity, profanity, harassment.\n\nComments:\n")
	for i, comment := range comments {
		fmt.Fprintf(&sb, "%d. '%s'\n", i+1, comment.Text)
	}
	sb.WriteString(`
For each comment, provide a JSON object with these fields:
- is_offensive (boolean)
- offense_type (string, must be one of: hate speech, toxicity, profanity, harassment, or none)
- explanation (string)
- severity (float between 0 and 1, where 1 is most severe)

Return the results as a JSON array of objects, one for each comment in the same order.
`)
	return sb.String()
}

func (c *Client) doRequest(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else {
		c.logger.Warn("Classifier request without credential", "endpoint", endpoint)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Network failures and client-side timeouts both fold into the
		// transient transport kind.
		return nil, &ClassifierError{
			Kind:    KindTransport,
			Message: fmt.Sprintf("request failed: %v", err),
		}
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &ClassifierError{
			Kind:    KindTransport,
			Message: fmt.Sprintf("failed to read response: %v", err),
		}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.statusError(httpResp.StatusCode, respBody)
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &ClassifierError{
			Kind:    KindMalformed,
			Message: fmt.Sprintf("failed to parse response: %v", err),
		}
	}
	if len(resp.Choices) == 0 {
		return nil, &ClassifierError{
			Kind:    KindMalformed,
			Message: "no choices returned in response",
		}
	}

	return &resp, nil
}

func (c *Client) statusError(statusCode int, body []byte) *ClassifierError {
	message := string(body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	kind := KindTransport
	switch {
	case statusCode == http.StatusTooManyRequests:
		kind = KindRateLimited
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		kind = KindUnauthorized
	case statusCode >= 400 && statusCode < 500:
		// Other 4xx means the request itself is bad; retrying the same
		// payload cannot help.
		kind = KindMalformed
	}

	return &ClassifierError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
	}
}

// parseVerdicts turns the model's JSON array into verdicts.
func (c *Client) parseVerdicts(resp *ChatCompletionResponse, want int) ([]models.Verdict, error) {
	content := resp.Choices[0].Message.Content
	jsonStr := util.SanitizeJSON(util.ExtractJSONArray(content))

	var raw []batchVerdict
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		c.logger.Error("Failed to parse classifier verdicts",
			"error", err,
			"extracted_json", util.TruncateString(jsonStr, 200),
			"original_response", util.TruncateString(content, 200))
		return nil, &ClassifierError{
			Kind:    KindMalformed,
			Message: fmt.Sprintf("failed to parse verdicts: %v", err),
		}
	}

	if len(raw) != want {
		return nil, &ClassifierError{
			Kind:    KindMalformed,
			Message: fmt.Sprintf("verdict count mismatch: got %d, want %d", len(raw), want),
		}
	}

	verdicts := make([]models.Verdict, len(raw))
	for i, bv := range raw {
		if math.IsNaN(bv.Severity) || math.IsInf(bv.Severity, 0) {
			return nil, &ClassifierError{
				Kind:    KindMalformed,
				Message: fmt.Sprintf("verdict %d has non-finite severity", i),
			}
		}
		verdicts[i] = models.Verdict{
			IsOffensive: bv.IsOffensive,
			Type:        normalizeOffenseType(bv.OffenseType, bv.IsOffensive),
			Severity:    clampSeverity(bv.Severity),
			Rationale:   bv.Explanation,
		}
	}
	return verdicts, nil
}

func clampSeverity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// normalizeOffenseType maps the service's label onto the fixed label
// set. When a response names several categories the most severe wins
// (hate speech > harassment > toxicity > profanity). An unrecognized
// label on an offensive verdict degrades to toxicity rather than
// silently to none.
func normalizeOffenseType(label string, offensive bool) models.OffenseType {
	l := strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(strings.TrimSpace(label)))

	matchers := []struct {
		substr string
		t      models.OffenseType
	}{
		{"hate", models.OffenseHateSpeech},
		{"harass", models.OffenseHarassment},
		{"toxic", models.OffenseToxicity},
		{"profan", models.OffenseProfanity},
	}

	best := models.OffenseNone
	for _, m := range matchers {
		if strings.Contains(l, m.substr) && m.t.Priority() > best.Priority() {
			best = m.t
		}
	}
	if best != models.OffenseNone {
		return best
	}
	if offensive {
		return models.OffenseToxicity
	}
	return models.OffenseNone
}
