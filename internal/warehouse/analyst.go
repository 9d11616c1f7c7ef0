// Package warehouse talks to the warehouse's own HTTP APIs, authenticated
// with keypair bearer tokens.
package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenSource mints a fresh bearer token for one upstream call.
type TokenSource interface {
	Mint(now time.Time) (string, error)
}

// Analyst is a client for the warehouse's natural-language analyst endpoint.
// Each question is proxied with a freshly minted token; the warehouse keeps
// the conversation stateless.
type Analyst struct {
	endpoint string
	tokens   TokenSource
	client   *http.Client
}

func NewAnalyst(endpoint string, tokens TokenSource) *Analyst {
	return &Analyst{
		endpoint: endpoint,
		tokens:   tokens,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type analystRequest struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

type analystResponse struct {
	Answer string `json:"answer"`
}

// Ask sends one question scoped to the invoice data and returns the answer.
func (a *Analyst) Ask(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(analystRequest{Query: message, Context: "invoice_data"})
	if err != nil {
		return "", fmt.Errorf("marshal analyst request: %w", err)
	}

	token, err := a.tokens.Mint(time.Now())
	if err != nil {
		return "", fmt.Errorf("mint warehouse token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build analyst request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call analyst: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("analyst returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded analystResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode analyst response: %w", err)
	}
	return decoded.Answer, nil
}
