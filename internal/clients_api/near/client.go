package near

// Package near is a narrow NEAR JSON-RPC client
// This file is the transport: JSON-RPC 2.0 over HTTP with rate limiting and a circuit breaker
// Read-only queries are retried, transaction broadcasts never are

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hot-claimer/internal/infra/log"
	"hot-claimer/internal/infra/metrics"
	"hot-claimer/internal/infra/retry"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	// MainnetRPC - public NEAR mainnet RPC
	MainnetRPC = "https://rpc.mainnet.near.org"
	// TestnetRPC - public NEAR testnet RPC
	TestnetRPC = "https://rpc.testnet.near.org"

	maxResponseSize = 10 * 1024 * 1024
)

// NodeURLFor maps a network name to its public RPC endpoint
func NodeURLFor(network string) string {
	if network == "testnet" {
		return TestnetRPC
	}
	return MainnetRPC
}

// Options configures the transport
type Options struct {
	NodeURL        string
	RequestTimeout time.Duration
	MaxRetries     int
	RateLimit      float64 // requests per second, 0 disables limiting
}

// Client talks to one NEAR RPC node
type Client struct {
	nodeURL        string
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	retry          retry.Options
}

func NewClient(opts Options) *Client {
	if opts.NodeURL == "" {
		opts.NodeURL = MainnetRPC
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "NearRPC",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// node-side errors are answers, only transport failures count against the node
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			_, isRPC := err.(*RPCError)
			return isRPC
		},
	})

	return &Client{
		nodeURL: opts.NodeURL,
		httpClient: &http.Client{
			Timeout: opts.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		rateLimiter:    limiter,
		circuitBreaker: breaker,
		retry: retry.Options{
			MaxRetries: opts.MaxRetries,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   8 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Call performs one JSON-RPC call and decodes result into out
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	requestID := log.GenerateRequestID()
	start := time.Now()

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	log.LogRequest(requestID, method)
	metrics.RPCCallsTotal.WithLabelValues(method).Inc()

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.do(ctx, requestID, method, params)
	})

	elapsed := time.Since(start)
	metrics.RPCLatency.WithLabelValues(method).Observe(elapsed.Seconds())
	log.LogResponse(requestID, method, elapsed.Milliseconds(), err)

	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return err
	}

	raw, _ := result.(json.RawMessage)
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s result: %v", ErrInvalidResponse, method, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, requestID, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: requestID, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	log.LogJSON(respBody, "RPC "+method+" body")

	var parsed rpcResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.Error != nil {
		return nil, parsed.Error
	}
	if len(parsed.Result) == 0 {
		return nil, fmt.Errorf("%w: empty result", ErrInvalidResponse)
	}
	return parsed.Result, nil
}

// Query runs a "query" request, retrying transient failures
func (c *Client) Query(ctx context.Context, params map[string]any, out any) error {
	return retry.Do(ctx, c.retry, func() error {
		return c.Call(ctx, "query", params, out)
	})
}

// ViewAccessKey returns the current nonce and a recent block hash for a key
func (c *Client) ViewAccessKey(ctx context.Context, accountID, publicKey string) (*AccessKeyView, error) {
	var view struct {
		AccessKeyView
		Error string `json:"error"`
	}
	err := c.Query(ctx, map[string]any{
		"request_type": "view_access_key",
		"finality":     "final",
		"account_id":   accountID,
		"public_key":   publicKey,
	}, &view)
	if err != nil {
		return nil, fmt.Errorf("view access key for %s: %w", accountID, err)
	}
	if view.Error != "" {
		return nil, fmt.Errorf("view access key for %s: %s", accountID, view.Error)
	}
	if view.BlockHash == "" {
		return nil, fmt.Errorf("view access key for %s: %w: missing block hash", accountID, ErrInvalidResponse)
	}
	return &view.AccessKeyView, nil
}

// CallFunction runs a view method and returns its raw return bytes
func (c *Client) CallFunction(ctx context.Context, contractID, method string, args any) ([]byte, error) {
	encoded, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}

	var result CallResult
	err = c.Query(ctx, map[string]any{
		"request_type": "call_function",
		"finality":     "final",
		"account_id":   contractID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(encoded),
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("view %s.%s: %w", contractID, method, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("view %s.%s: %s", contractID, method, result.Error)
	}
	return result.Bytes()
}

// BroadcastTxCommit submits a signed transaction and waits for its final outcome
func (c *Client) BroadcastTxCommit(ctx context.Context, tx *SignedTx) (*TransactionResult, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "broadcast_tx_commit", []string{base64.StdEncoding.EncodeToString(tx.Bytes)}, &raw); err != nil {
		return nil, fmt.Errorf("broadcast %s: %w", tx.Hash, err)
	}
	return DecodeTransactionResult(raw)
}
