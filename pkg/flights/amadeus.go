// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

// Package flights integrates the Amadeus flight-offers search API. The
// client handles the client-credentials token exchange and query
// construction; format.go turns raw offers into display text.
package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the Amadeus self-service test environment.
const DefaultBaseURL = "https://test.api.amadeus.com"

// tokenExpirySlack is subtracted from the advertised token lifetime so a
// token is never used right at its expiry boundary.
const tokenExpirySlack = 30 * time.Second

// SearchParams are the flight-offers search inputs as produced by the
// assistant's tool call arguments.
type SearchParams struct {
	OriginLocationCode      string `json:"originLocationCode"`
	DestinationLocationCode string `json:"destinationLocationCode"`
	DepartureDate           string `json:"departureDate"`
	Adults                  int    `json:"adults"`
	MaxResults              int    `json:"maxResults,omitempty"`
	ReturnDate              string `json:"returnDate,omitempty"`
	AllowLayovers           *bool  `json:"allowLayovers,omitempty"`
}

// Client queries the Amadeus flight-offers API.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Amadeus client.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchOffers runs a flight-offers search and returns the parsed response.
func (c *Client) SearchOffers(ctx context.Context, params SearchParams) (*OffersResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("amadeus auth: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/v2/shopping/flight-offers")
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("originLocationCode", params.OriginLocationCode)
	q.Set("destinationLocationCode", params.DestinationLocationCode)
	q.Set("departureDate", params.DepartureDate)
	q.Set("adults", strconv.Itoa(params.Adults))
	max := params.MaxResults
	if max <= 0 {
		max = 5
	}
	q.Set("max", strconv.Itoa(max))
	if params.ReturnDate != "" {
		q.Set("returnDate", params.ReturnDate)
	}
	// The API expects nonStop as the string "true", not a flag
	if params.AllowLayovers != nil && !*params.AllowLayovers {
		q.Set("nonStop", "true")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flight offers request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flight offers search: %s", apiErrorDetail(resp.StatusCode, body))
	}

	var offers OffersResponse
	if err := json.Unmarshal(body, &offers); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &offers, nil
}

// accessToken returns a cached bearer token, performing the
// client-credentials exchange when the cache is empty or expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access_token")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second).Add(-tokenExpirySlack)
	return c.token, nil
}

// apiErrorDetail extracts the first error detail from an Amadeus error body.
func apiErrorDetail(status int, body []byte) string {
	var payload struct {
		Errors []struct {
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 && payload.Errors[0].Detail != "" {
		return payload.Errors[0].Detail
	}
	return fmt.Sprintf("status %d", status)
}

// OffersResponse is the subset of the flight-offers payload the formatter
// needs.
type OffersResponse struct {
	Data []Offer `json:"data"`
}

// Offer is one priced flight option.
type Offer struct {
	Price       Price       `json:"price"`
	Itineraries []Itinerary `json:"itineraries"`
}

// Price carries the offer total.
type Price struct {
	GrandTotal string `json:"grandTotal"`
	Currency   string `json:"currency"`
}

// Itinerary is one direction of travel, made of one or more segments.
type Itinerary struct {
	Duration string    `json:"duration"` // ISO 8601, e.g. "PT7H30M"
	Segments []Segment `json:"segments"`
}

// Segment is one flight leg.
type Segment struct {
	Departure Endpoint `json:"departure"`
	Arrival   Endpoint `json:"arrival"`
}

// Endpoint is an airport and a local timestamp.
type Endpoint struct {
	IataCode string `json:"iataCode"`
	At       string `json:"at"` // e.g. "2026-09-14T08:25:00"
}
