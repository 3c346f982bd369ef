package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// usdConvertID is the price feed's identifier for USD quotes
const usdConvertID = 2781

// feedIDs maps non-pegged currency addresses to their price feed asset ids
var feedIDs = map[string]int{
	"0x471ece3750da237f93b8e339c536989b8978a438": 5567, // CELO
	"0x0000000000000000000000000000000000000000": 1027, // native ETH
}

// PriceSource resolves a token to its current USD price
type PriceSource interface {
	USDPrice(ctx context.Context, token Token) (decimal.Decimal, error)
}

// Client fetches USD conversions from the price feed API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type quoteEntry struct {
	CryptoID int     `json:"cryptoId"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
}

type conversionResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data *struct {
		Symbol string       `json:"symbol"`
		Amount float64      `json:"amount"`
		Quote  []quoteEntry `json:"quote"`
	} `json:"data"`
}

// USDPrice returns the token's USD price. Pegged tokens short-circuit to 1
// without a network call; non-pegged tokens without a feed id are an error.
func (c *Client) USDPrice(ctx context.Context, token Token) (decimal.Decimal, error) {
	if token.USDPegged {
		return decimal.NewFromInt(1), nil
	}

	feedID, ok := feedIDs[strings.ToLower(token.Address)]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price feed for token %s", token.Symbol)
	}

	url := fmt.Sprintf("%s?id=%d&amount=1&convert_id=%d", c.baseURL, feedID, usdConvertID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price feed error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("price feed returned %d: %s", resp.StatusCode, string(body))
	}

	var conversion conversionResponse
	if err := json.NewDecoder(resp.Body).Decode(&conversion); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price feed response: %w", err)
	}

	if conversion.Data == nil || len(conversion.Data.Quote) == 0 {
		return decimal.Zero, fmt.Errorf("price feed returned no quote for %s", token.Symbol)
	}

	price := conversion.Data.Quote[0].Price
	if price <= 0 {
		return decimal.Zero, fmt.Errorf("price feed returned non-positive price %f for %s", price, token.Symbol)
	}

	return decimal.NewFromFloat(price), nil
}
