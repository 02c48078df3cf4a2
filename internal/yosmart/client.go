package yosmart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"store-monitor-backend/config"
	"store-monitor-backend/internal/metrics"
)

// CodeSuccess is the vendor result code for a successful call.
const CodeSuccess = "000000"

// Vendor result codes that mean the bearer token was rejected. Note that a
// wrong method name also yields a token error from the vendor, which is why
// method resolution is driven by explicit device type.
const (
	codeAuthInvalid  = "010103"
	codeTokenExpired = "010104"
)

var tokenErrorCodes = map[string]bool{
	codeAuthInvalid:  true,
	codeTokenExpired: true,
}

// ErrorKind classifies local call failures. Vendor error codes are not errors;
// they come back as ordinary responses for the caller to inspect.
type ErrorKind int

const (
	// ErrKindNoToken means no valid access token could be obtained.
	ErrKindNoToken ErrorKind = iota + 1
	// ErrKindTransport means the HTTP round trip itself failed.
	ErrKindTransport
)

// CallError is a local failure calling the vendor API.
type CallError struct {
	Kind   ErrorKind
	Method string
	Err    error
}

func (e *CallError) Error() string {
	switch e.Kind {
	case ErrKindNoToken:
		return fmt.Sprintf("yosmart %s: no token: %v", e.Method, e.Err)
	case ErrKindTransport:
		return fmt.Sprintf("yosmart %s: transport: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("yosmart %s: %v", e.Method, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Client issues signed JSON requests against the YoSmart API, obtaining a
// bearer token before every call and retrying exactly once after a forced
// refresh when the vendor reports the token invalid.
type Client struct {
	http          *http.Client
	tokens        *TokenManager
	apiURL        string
	productionURL string
}

// NewClient builds a client from the vendor configuration. The HTTP client
// timeout bounds every call so one unresponsive device cannot stall a batch.
func NewClient(cfg *config.YoSmartConfig) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		http:          httpClient,
		tokens:        NewTokenManager(httpClient, cfg.TokenURL, cfg.UAID, cfg.SecretKey),
		apiURL:        cfg.APIURL,
		productionURL: cfg.ProductionURL,
	}
}

// Call issues method with params against the main device API endpoint.
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (*Response, error) {
	return c.call(ctx, method, params, c.apiURL, false)
}

// CallProduction issues method against the device provisioning endpoint.
func (c *Client) CallProduction(ctx context.Context, method string, params map[string]any) (*Response, error) {
	return c.call(ctx, method, params, c.productionURL, false)
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, endpoint string, isRetry bool) (*Response, error) {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		metrics.DeviceCalls.WithLabelValues("no_token").Inc()
		return nil, &CallError{Kind: ErrKindNoToken, Method: method, Err: err}
	}

	// Downlink envelope: {method, time, ...params}
	payload := make(map[string]any, len(params)+2)
	for k, v := range params {
		payload[k] = v
	}
	payload["method"] = method
	payload["time"] = time.Now().UnixMilli()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &CallError{Kind: ErrKindTransport, Method: method, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Kind: ErrKindTransport, Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.DeviceCalls.WithLabelValues("transport_error").Inc()
		log.Printf("yosmart call %s failed: %v (retry=%v)", method, err, isRetry)
		return nil, &CallError{Kind: ErrKindTransport, Method: method, Err: err}
	}
	defer resp.Body.Close()
	metrics.CallLatency.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.DeviceCalls.WithLabelValues("transport_error").Inc()
		return nil, &CallError{Kind: ErrKindTransport, Method: method, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.DeviceCalls.WithLabelValues("transport_error").Inc()
		return nil, &CallError{Kind: ErrKindTransport, Method: method, Err: fmt.Errorf("read response: %w", err)}
	}

	var apiResp Response
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		metrics.DeviceCalls.WithLabelValues("transport_error").Inc()
		return nil, &CallError{Kind: ErrKindTransport, Method: method, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	switch {
	case apiResp.Code == CodeSuccess:
		metrics.DeviceCalls.WithLabelValues("ok").Inc()
		return &apiResp, nil

	case tokenErrorCodes[apiResp.Code] && !isRetry:
		log.Printf("yosmart call %s rejected with token error %s, refreshing token and retrying once", method, apiResp.Code)
		if _, err := c.tokens.ForceRefresh(ctx); err != nil {
			// Refresh failed: hand the original error response back.
			log.Printf("token refresh failed: %v", err)
			metrics.DeviceCalls.WithLabelValues("vendor_error").Inc()
			return &apiResp, nil
		}
		return c.call(ctx, method, params, endpoint, true)

	default:
		metrics.DeviceCalls.WithLabelValues("vendor_error").Inc()
		log.Printf("yosmart call %s returned code %s (%s)", method, apiResp.Code, apiResp.Desc)
		return &apiResp, nil
	}
}
