package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AnalyticsClient talks to the remote analytics service. Every call issues a
// single request; there is no retry and no caching here.
type AnalyticsClient struct {
	baseURL    string
	httpClient HTTPDoer
}

func NewAnalyticsClient(cfg *config.AnalyticsConfig) *AnalyticsClient {
	return NewAnalyticsClientWithDoer(cfg.Url, &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	})
}

func NewAnalyticsClientWithDoer(baseURL string, doer HTTPDoer) *AnalyticsClient {
	return &AnalyticsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: doer,
	}
}

type recordActivityRequest struct {
	MemberAddress string                    `json:"memberAddress"`
	Type          models.EngagementType     `json:"type"`
	Timestamp     time.Time                 `json:"timestamp"`
	Metadata      models.EngagementMetadata `json:"metadata"`
}

type recordActivityResponse struct {
	Success bool `json:"success"`
}

// PersistEngagement posts a tracked event to the group's activity endpoint.
func (c *AnalyticsClient) PersistEngagement(ctx context.Context, event models.EngagementEvent) error {
	body := recordActivityRequest{
		MemberAddress: event.MemberAddress,
		Type:          event.Type,
		Timestamp:     event.Timestamp,
		Metadata:      event.Metadata,
	}

	var resp recordActivityResponse
	endpoint := groupPath(event.GroupAddress, "activity")
	if err := c.do(ctx, http.MethodPost, endpoint, nil, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s rejected event", models.ErrAnalyticsRequest, endpoint)
	}
	return nil
}

func (c *AnalyticsClient) GetGroupAnalytics(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.GroupAnalytics, error) {
	if groupAddress == "" {
		return &models.GroupAnalytics{}, nil
	}
	var out models.GroupAnalytics
	if err := c.do(ctx, http.MethodGet, groupPath(groupAddress, ""), queryValues(q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AnalyticsClient) GetFundingPatterns(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.FundingPatterns, error) {
	if groupAddress == "" {
		return &models.FundingPatterns{Trends: []models.FundingTrend{}}, nil
	}
	var out models.FundingPatterns
	if err := c.do(ctx, http.MethodGet, groupPath(groupAddress, "funding"), queryValues(q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AnalyticsClient) GetEngagementMetrics(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.EngagementReport, error) {
	if groupAddress == "" {
		return &models.EngagementReport{}, nil
	}
	var out models.EngagementReport
	if err := c.do(ctx, http.MethodGet, groupPath(groupAddress, "engagement"), queryValues(q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AnalyticsClient) GetPredictions(ctx context.Context, groupAddress string, q models.AnalyticsQuery) ([]models.Prediction, error) {
	if groupAddress == "" {
		return []models.Prediction{}, nil
	}
	var out struct {
		Predictions []models.Prediction `json:"predictions"`
	}
	if err := c.do(ctx, http.MethodGet, groupPath(groupAddress, "predictions"), queryValues(q), nil, &out); err != nil {
		return nil, err
	}
	if out.Predictions == nil {
		out.Predictions = []models.Prediction{}
	}
	return out.Predictions, nil
}

// CompareGroups returns an empty comparison without calling out when no
// addresses are given.
func (c *AnalyticsClient) CompareGroups(ctx context.Context, groupAddresses []string) (*models.GroupComparison, error) {
	addresses := make([]string, 0, len(groupAddresses))
	for _, a := range groupAddresses {
		if a = strings.TrimSpace(a); a != "" {
			addresses = append(addresses, a)
		}
	}
	if len(addresses) == 0 {
		return &models.GroupComparison{
			Groups:     []models.GroupBenchmark{},
			Benchmarks: map[string]float64{},
		}, nil
	}

	params := url.Values{}
	params.Set("groups", strings.Join(addresses, ","))

	var out models.GroupComparison
	if err := c.do(ctx, http.MethodGet, "/analytics/compare", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AnalyticsClient) ExportAnalytics(ctx context.Context, groupAddress, format string, q models.AnalyticsQuery) (*models.ExportResult, error) {
	if groupAddress == "" {
		return &models.ExportResult{}, nil
	}
	body := struct {
		Format    string `json:"format"`
		Timeframe string `json:"timeframe,omitempty"`
	}{Format: format, Timeframe: q.Timeframe}

	var out models.ExportResult
	if err := c.do(ctx, http.MethodPost, groupPath(groupAddress, "export"), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AnalyticsClient) do(ctx context.Context, method, endpoint string, params url.Values, body, out interface{}) error {
	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request for %s: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", models.ErrAnalyticsRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s %s returned status %d", models.ErrAnalyticsRequest, method, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", models.ErrAnalyticsDecode, method, endpoint, err)
	}

	logrus.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": endpoint,
		"status":   resp.StatusCode,
	}).Debug("Analytics request completed")

	return nil
}

func groupPath(groupAddress, resource string) string {
	p := "/analytics/groups/" + url.PathEscape(groupAddress)
	if resource != "" {
		p += "/" + resource
	}
	return p
}

func queryValues(q models.AnalyticsQuery) url.Values {
	params := url.Values{}
	if q.Timeframe != "" {
		params.Set("timeframe", q.Timeframe)
	}
	if q.IncludeMembers {
		params.Set("includeMembers", strconv.FormatBool(true))
	}
	if q.IncludePredictions {
		params.Set("includePredictions", strconv.FormatBool(true))
	}
	return params
}
