package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
)

const (
	verifyPath = "/auth/verify-otp"
	resendPath = "/auth/resend-otp"

	maxBodyBytes = 1 << 20
)

// Client calls the marketplace backend auth endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A non-positive timeout means no
// client timeout beyond the request context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// VerifyOTP posts {phone, otp}. Reply fields are read from data.x,
// data.user.x, user.x or the top level, in that order.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (domain.VerifyResult, error) {
	body, err := c.post(ctx, "verify otp", verifyPath, map[string]string{"phone": phone, "otp": otp})
	if err != nil {
		return domain.VerifyResult{}, err
	}

	return domain.VerifyResult{
		Token:   lookup(body, "token"),
		Role:    lookup(body, "role"),
		UserID:  lookup(body, "userId", "_id", "id"),
		Phone:   lookup(body, "phone"),
		Message: stringValue(body["message"]),
	}, nil
}

// ResendOTP posts {phone} and returns the backend message.
func (c *Client) ResendOTP(ctx context.Context, phone string) (string, error) {
	body, err := c.post(ctx, "resend otp", resendPath, map[string]string{"phone": phone})
	if err != nil {
		return "", err
	}
	return stringValue(body["message"]), nil
}

// post sends payload as JSON and decodes the JSON object reply. Transport
// failures return *domain.TransportError; replies signalling failure return
// *domain.ServerRejection.
func (c *Client) post(ctx context.Context, op, path string, payload any) (map[string]any, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}

	body := map[string]any{}
	decodeErr := json.Unmarshal(raw, &body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ServerRejection{Status: resp.StatusCode, Message: stringValue(body["message"])}
	}
	if decodeErr != nil {
		return nil, &domain.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if success, ok := body["success"].(bool); ok && !success {
		return nil, &domain.ServerRejection{Status: resp.StatusCode, Message: stringValue(body["message"])}
	}
	return body, nil
}

// lookup returns the first non-empty value of keys, trying each key in
// every reply shape before the next key.
func lookup(body map[string]any, keys ...string) string {
	data, _ := body["data"].(map[string]any)
	dataUser, _ := data["user"].(map[string]any)
	user, _ := body["user"].(map[string]any)

	for _, key := range keys {
		for _, shape := range []map[string]any{data, dataUser, user, body} {
			if shape == nil {
				continue
			}
			if v := stringValue(shape[key]); v != "" {
				return v
			}
		}
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
