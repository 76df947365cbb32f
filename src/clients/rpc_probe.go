package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/models"
)

const defaultProbeTimeout = 3 * time.Second

// RPCProbe checks that the chain RPC endpoint answers within its timeout.
type RPCProbe struct {
	url        string
	timeout    time.Duration
	httpClient HTTPDoer
}

func NewRPCProbe(cfg *config.ChainConfig) *RPCProbe {
	timeout := time.Duration(cfg.ProbeTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &RPCProbe{url: cfg.RpcUrl, timeout: timeout, httpClient: http.DefaultClient}
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Check returns the latest block number reported by the node.
func (p *RPCProbe) Check(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	payload := []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrRPCUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrRPCUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", models.ErrRPCUnavailable, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrRPCUnavailable, err)
	}
	if out.Error != nil {
		return 0, fmt.Errorf("%w: rpc error %d: %s", models.ErrRPCUnavailable, out.Error.Code, out.Error.Message)
	}

	block, err := strconv.ParseUint(strings.TrimPrefix(out.Result, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad block number %q", models.ErrRPCUnavailable, out.Result)
	}
	return block, nil
}
