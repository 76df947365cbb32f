package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsClient_PersistEngagement(t *testing.T) {
	var got recordActivityRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analytics/groups/0xG1/activity", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewAnalyticsClientWithDoer(srv.URL+"/api/", srv.Client())
	amount := 0.5
	event := models.EngagementEvent{
		Type:          models.EngagementContribution,
		GroupAddress:  "0xG1",
		MemberAddress: "0xM1",
		Timestamp:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Metadata:      models.EngagementMetadata{Amount: &amount},
	}

	require.NoError(t, client.PersistEngagement(context.Background(), event))
	assert.Equal(t, "0xM1", got.MemberAddress)
	assert.Equal(t, models.EngagementContribution, got.Type)
	require.NotNil(t, got.Metadata.Amount)
	assert.Equal(t, 0.5, *got.Metadata.Amount)
}

func TestAnalyticsClient_PersistEngagementRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	client := NewAnalyticsClientWithDoer(srv.URL, srv.Client())

	err := client.PersistEngagement(context.Background(), models.EngagementEvent{GroupAddress: "0xG"})
	assert.ErrorIs(t, err, models.ErrAnalyticsRequest)
}

func TestAnalyticsClient_GetGroupAnalyticsSendsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analytics/groups/0xG1", r.URL.Path)
		assert.Equal(t, "30d", r.URL.Query().Get("timeframe"))
		assert.Equal(t, "true", r.URL.Query().Get("includeMembers"))
		assert.Empty(t, r.URL.Query().Get("includePredictions"))
		w.Write([]byte(`{"groupAddress":"0xG1","funding":{"balance":12.5},"engagement":{"activeMembers":4}}`))
	}))
	defer srv.Close()

	client := NewAnalyticsClientWithDoer(srv.URL, srv.Client())

	out, err := client.GetGroupAnalytics(context.Background(), "0xG1", models.AnalyticsQuery{
		Timeframe:      "30d",
		IncludeMembers: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, out.Funding.Balance)
	assert.Equal(t, 4, out.Engagement.ActiveMembers)
}

func TestAnalyticsClient_Non2xxNamesEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewAnalyticsClientWithDoer(srv.URL, srv.Client())

	_, err := client.GetFundingPatterns(context.Background(), "0xG1", models.AnalyticsQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAnalyticsRequest)
	assert.Contains(t, err.Error(), "/analytics/groups/0xG1/funding")
	assert.Contains(t, err.Error(), "502")
}

func TestAnalyticsClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewAnalyticsClientWithDoer(srv.URL, srv.Client())

	_, err := client.GetPredictions(context.Background(), "0xG1", models.AnalyticsQuery{})
	assert.ErrorIs(t, err, models.ErrAnalyticsDecode)
}

func TestAnalyticsClient_EmptyInputsSkipNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewAnalyticsClientWithDoer(srv.URL, srv.Client())
	ctx := context.Background()

	cmp, err := client.CompareGroups(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Groups)

	cmp, err = client.CompareGroups(ctx, []string{" ", ""})
	require.NoError(t, err)
	assert.Empty(t, cmp.Groups)

	_, err = client.GetGroupAnalytics(ctx, "", models.AnalyticsQuery{})
	require.NoError(t, err)
	preds, err := client.GetPredictions(ctx, "", models.AnalyticsQuery{})
	require.NoError(t, err)
	assert.Empty(t, preds)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAnalyticsClient_CompareGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analytics/compare", r.URL.Path)
		assert.Equal(t, "0xA,0xB", r.URL.Query().Get("groups"))
		w.Write([]byte(`{"groups":[{"groupAddress":"0xA","rank":1},{"groupAddress":"0xB","rank":2}],"benchmarks":{"avgBalance":3}}`))
	}))
	defer srv.Close()

	client := NewAnalyticsClientWithDoer(srv.URL, srv.Client())

	cmp, err := client.CompareGroups(context.Background(), []string{"0xA", "0xB"})
	require.NoError(t, err)
	require.Len(t, cmp.Groups, 2)
	assert.Equal(t, 3.0, cmp.Benchmarks["avgBalance"])
}

func TestAnalyticsClient_ExportAnalytics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analytics/groups/0xG/export", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "csv", body["format"])
		w.Write([]byte(`{"format":"csv","downloadUrl":"https://files/x.csv"}`))
	}))
	defer srv.Close()

	client := NewAnalyticsClient(&config.AnalyticsConfig{Url: srv.URL, Timeout: 5})

	out, err := client.ExportAnalytics(context.Background(), "0xG", "csv", models.AnalyticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, "https://files/x.csv", out.DownloadURL)
}

func TestRPCProbe_Check(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eth_blockNumber", req["method"])
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1b4"}`))
	}))
	defer srv.Close()

	probe := NewRPCProbe(&config.ChainConfig{RpcUrl: srv.URL, ProbeTimeout: 3})

	block, err := probe.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(436), block)
}

func TestRPCProbe_TimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	probe := NewRPCProbe(&config.ChainConfig{RpcUrl: srv.URL})
	probe.timeout = 50 * time.Millisecond

	_, err := probe.Check(context.Background())
	assert.ErrorIs(t, err, models.ErrRPCUnavailable)
}

func TestRPCProbe_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	}))
	defer srv.Close()

	probe := NewRPCProbe(&config.ChainConfig{RpcUrl: srv.URL})

	_, err := probe.Check(context.Background())
	assert.ErrorIs(t, err, models.ErrRPCUnavailable)
	assert.Contains(t, err.Error(), "method not found")
}
