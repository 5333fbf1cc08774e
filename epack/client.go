// Package epack reads the authoritative trade record from the ePack
// trading API and carries its small formatting helpers.
package epack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"epack-comc-prices/domain"
)

// DefaultBaseURL is the production ePack endpoint.
const DefaultBaseURL = "https://www.upperdeckepack.com"

// DefaultTimeout bounds one trade fetch.
const DefaultTimeout = 30 * time.Second

// TradeSource provides the structured trade record. The pipeline
// memoizes one record per page view.
type TradeSource interface {
	FetchTrade(ctx context.Context, tradeID string) (*domain.TradeRecord, error)
}

// Client implements TradeSource over the ViewTrade API.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the endpoint, for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a trade API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ TradeSource = (*Client)(nil)

// Wire types mirroring the ViewTrade response. Only the fields the
// reconciliation needs are decoded.
type apiParty struct {
	UserName      string `json:"UserName"`
	LastLoginDate string `json:"LastLoginDate"`
}

type apiCardTemplate struct {
	CardTemplateID string `json:"CardTemplateID"`
	PlayerName     string `json:"PlayerName"`
	InsertName     string `json:"InsertName"`
	CardNumber     string `json:"CardNumber"`
	IsPhysical     bool   `json:"IsPhysical"`
	IsTransferable bool   `json:"IsTransferable"`
}

type apiCardWrapper struct {
	CardTemplate *apiCardTemplate `json:"CardTemplate"`
}

type apiTrade struct {
	Initiator          *apiParty        `json:"Initiator"`
	Counterparty       *apiParty        `json:"Counterparty"`
	InitiatorRating    int              `json:"InitiatorRating"`
	CounterpartyRating int              `json:"CounterpartyRating"`
	InitiatorCards     []apiCardWrapper `json:"InitiatorCards"`
	CounterpartyCards  []apiCardWrapper `json:"CounterpartyCards"`
}

// FetchTrade retrieves and decodes one trade record.
func (c *Client) FetchTrade(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	u := fmt.Sprintf("%s/api/Trading/ViewTrade?id=%s&forceLoad=false", c.baseURL, url.QueryEscape(tradeID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build trade request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trade %s: %w", tradeID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch trade %s: HTTP %d", tradeID, resp.StatusCode)
	}

	var raw apiTrade
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode trade %s: %w", tradeID, err)
	}

	return raw.toDomain(), nil
}

func (t *apiTrade) toDomain() *domain.TradeRecord {
	record := &domain.TradeRecord{}

	if t.Initiator != nil {
		record.Initiator = domain.Party{
			UserName:  t.Initiator.UserName,
			LastLogin: parseAPITime(t.Initiator.LastLoginDate),
			Rating:    t.InitiatorRating,
		}
	}
	if t.Counterparty != nil {
		record.Counterparty = domain.Party{
			UserName:  t.Counterparty.UserName,
			LastLogin: parseAPITime(t.Counterparty.LastLoginDate),
			Rating:    t.CounterpartyRating,
		}
	}

	record.InitiatorCards = toCards(t.InitiatorCards)
	record.CounterpartyCards = toCards(t.CounterpartyCards)
	return record
}

func toCards(wrappers []apiCardWrapper) []domain.Card {
	var cards []domain.Card
	for _, w := range wrappers {
		if w.CardTemplate == nil || w.CardTemplate.CardTemplateID == "" {
			continue
		}
		cards = append(cards, domain.Card{
			ID:             w.CardTemplate.CardTemplateID,
			PlayerName:     w.CardTemplate.PlayerName,
			InsertName:     w.CardTemplate.InsertName,
			CardNumber:     w.CardTemplate.CardNumber,
			IsPhysical:     w.CardTemplate.IsPhysical,
			IsTransferable: w.CardTemplate.IsTransferable,
		})
	}
	return cards
}

// parseAPITime handles the API's bare UTC timestamps. Values without a
// zone suffix are UTC; the placeholder 0001-01-01T00:00:00 maps to the
// zero time.
func parseAPITime(s string) time.Time {
	if s == "" || s == "0001-01-01T00:00:00" {
		return time.Time{}
	}

	if !strings.HasSuffix(s, "Z") && !strings.Contains(s, "+") {
		s += "Z"
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
