package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintechfootball/internal/game"

	"github.com/google/uuid"
)

// Client talks to ffb-api.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IntentResponse is the gateway's answer to a table intent. Only the field
// for the intent that ran is set, next to the resulting state.
type IntentResponse struct {
	State   game.State           `json:"state"`
	GameID  string               `json:"game_id,omitempty"`
	Roll    *game.RollOutcome    `json:"roll,omitempty"`
	Turn    *game.TurnOutcome    `json:"turn,omitempty"`
	Player  *game.PlayerSnapshot `json:"player,omitempty"`
	Event   *game.EventOutcome   `json:"event,omitempty"`
	Auction *game.AuctionView    `json:"auction,omitempty"`
	Bid     *game.BidView        `json:"bid,omitempty"`
	Outcome *game.AuctionOutcome `json:"outcome,omitempty"`
	Result  *game.Result         `json:"result,omitempty"`
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (c *Client) State(ctx context.Context) (game.State, error) {
	var out game.State
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out)
	return out, err
}

func (c *Client) Projects(ctx context.Context) ([]game.ProjectView, error) {
	var out struct {
		Projects []game.ProjectView `json:"projects"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/projects", nil, &out)
	return out.Projects, err
}

func (c *Client) Analyze(ctx context.Context, projectID string) (game.ProjectView, error) {
	var out game.ProjectView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID)+"/analysis", nil, &out)
	return out, err
}

func (c *Client) Standings(ctx context.Context) ([]game.Standing, error) {
	var out struct {
		Standings []game.Standing `json:"standings"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/standings", nil, &out)
	return out.Standings, err
}

func (c *Client) History(ctx context.Context, limit int) ([]game.Result, error) {
	var out struct {
		Results []game.Result `json:"results"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/history?limit="+strconv.Itoa(limit), nil, &out)
	return out.Results, err
}

func (c *Client) Start(ctx context.Context, names []string) (IntentResponse, error) {
	return c.intent(ctx, "/v1/game/start", map[string]any{"names": names})
}

func (c *Client) Reset(ctx context.Context) (IntentResponse, error) {
	return c.intent(ctx, "/v1/game/reset", nil)
}

func (c *Client) End(ctx context.Context) (IntentResponse, error) {
	return c.intent(ctx, "/v1/game/end", nil)
}

func (c *Client) Roll(ctx context.Context) (IntentResponse, error) {
	return c.intent(ctx, "/v1/turn/roll", nil)
}

func (c *Client) Advance(ctx context.Context) (IntentResponse, error) {
	return c.intent(ctx, "/v1/turn/advance", nil)
}

func (c *Client) Invest(ctx context.Context, playerID, projectID string) (IntentResponse, error) {
	return c.intent(ctx, "/v1/projects/"+url.PathEscape(projectID)+"/invest", map[string]any{"player_id": playerID})
}

func (c *Client) Shock(ctx context.Context) (IntentResponse, error) {
	return c.intent(ctx, "/v1/market/shock", nil)
}

func (c *Client) Offer(ctx context.Context) (IntentResponse, error) {
	return c.intent(ctx, "/v1/auction/offer", nil)
}

// Bid sends the amount as typed; the gateway coerces it.
func (c *Client) Bid(ctx context.Context, playerID, amount string) (IntentResponse, error) {
	return c.intent(ctx, "/v1/auction/bids", map[string]any{"player_id": playerID, "amount": amount})
}

func (c *Client) Resolve(ctx context.Context) (IntentResponse, error) {
	return c.intent(ctx, "/v1/auction/resolve", nil)
}

// intent posts with a fresh Idempotency-Key and retries once on a transport
// failure, so a dropped response never applies an intent twice.
func (c *Client) intent(ctx context.Context, path string, body map[string]any) (IntentResponse, error) {
	var out IntentResponse
	idem := uuid.NewString()
	err := c.jsonRequest(ctx, http.MethodPost, path, body, &out, idem)
	var apiErr *APIError
	if err != nil && !errors.As(err, &apiErr) && ctx.Err() == nil {
		out = IntentResponse{}
		err = c.jsonRequest(ctx, http.MethodPost, path, body, &out, idem)
	}
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem ...string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else if method == http.MethodPost {
		body = strings.NewReader("{}")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(idem) > 0 && idem[0] != "" {
		req.Header.Set("Idempotency-Key", idem[0])
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
