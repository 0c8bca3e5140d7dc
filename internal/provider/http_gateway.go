package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTPGateway pushes messages over the provider's HTTPS API using bearer
// credentials. A gateway is cheap to construct; the engine builds a fresh one
// per evaluation cycle from the current credentials snapshot so token
// rotation needs no restart.
type HTTPGateway struct {
	endpoint string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPGateway builds a gateway from a credentials snapshot. The limiter is
// shared across gateway instances so pacing survives per-cycle rebuilds; nil
// means unpaced.
func NewHTTPGateway(creds Credentials, limiter *rate.Limiter) *HTTPGateway {
	return &HTTPGateway{
		endpoint: strings.TrimRight(creds.Endpoint, "/"),
		token:    creds.AccessToken,
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  limiter,
	}
}

type pushRequest struct {
	To       []string      `json:"to"`
	Messages []pushMessage `json:"messages"`
}

type pushMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (g *HTTPGateway) PushBatch(ctx context.Context, recipientIDs []string, text string) error {
	if len(recipientIDs) > DefaultBatchLimit {
		return fmt.Errorf("batch of %d exceeds provider limit %d", len(recipientIDs), DefaultBatchLimit)
	}
	return g.post(ctx, "/multicast", pushRequest{
		To:       recipientIDs,
		Messages: []pushMessage{{Type: "text", Text: text}},
	})
}

func (g *HTTPGateway) PushOne(ctx context.Context, recipientID string, text string) error {
	return g.post(ctx, "/push", pushRequest{
		To:       []string{recipientID},
		Messages: []pushMessage{{Type: "text", Text: text}},
	})
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload pushRequest) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	return nil
}

var _ Gateway = (*HTTPGateway)(nil)
