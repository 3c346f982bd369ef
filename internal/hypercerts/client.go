package hypercerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sale is one marketplace purchase of hypercert fractions. CurrencyAmount is
// the raw on-chain amount as a decimal string since uint256 overflows int64.
type Sale struct {
	Currency               string `json:"currency"`
	CurrencyAmount         string `json:"currency_amount"`
	Buyer                  string `json:"buyer"`
	CreationBlockTimestamp int64  `json:"creation_block_timestamp"`
}

// Hypercert is one minted impact certificate with its sales
type Hypercert struct {
	HypercertID            string `json:"hypercert_id"`
	Units                  string `json:"units"`
	TotalUnitsForSale      string `json:"total_units_for_sale"`
	CreationBlockTimestamp int64  `json:"creation_block_timestamp"`
	Sales                  []Sale `json:"sales"`
}

// Listed reports whether any fraction of the hypercert is up for sale
func (h Hypercert) Listed() bool {
	return h.TotalUnitsForSale != "" && h.TotalUnitsForSale != "0"
}

// Client is a read-only client for the hypercerts GraphQL API
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

const hypercertsQuery = `
query EcocertainHypercerts {
  hypercerts {
    data {
      hypercert_id
      units
      creation_block_timestamp
      orders {
        totalUnitsForSale
      }
      sales {
        data {
          currency
          currency_amount
          buyer
          creation_block_timestamp
        }
      }
    }
  }
}`

const attestationCountQuery = `
query AttestationsByPeriod($start: BigInt!, $end: BigInt!) {
  attestations(
    where: { creation_block_timestamp: { gt: $start, lte: $end } }
  ) {
    count
  }
}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// flexInt64 tolerates the API returning numeric fields as either JSON numbers
// or decimal strings
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(data, `"`)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = 0
		return nil
	}
	var v int64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*f = flexInt64(v)
	return nil
}

type hypercertsResponse struct {
	Data struct {
		Hypercerts struct {
			Data []struct {
				HypercertID            string    `json:"hypercert_id"`
				Units                  string    `json:"units"`
				CreationBlockTimestamp flexInt64 `json:"creation_block_timestamp"`
				Orders                 *struct {
					TotalUnitsForSale string `json:"totalUnitsForSale"`
				} `json:"orders"`
				Sales struct {
					Data []struct {
						Currency               string    `json:"currency"`
						CurrencyAmount         string    `json:"currency_amount"`
						Buyer                  string    `json:"buyer"`
						CreationBlockTimestamp flexInt64 `json:"creation_block_timestamp"`
					} `json:"data"`
				} `json:"sales"`
			} `json:"data"`
		} `json:"hypercerts"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type attestationsResponse struct {
	Data struct {
		Attestations struct {
			Count int `json:"count"`
		} `json:"attestations"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

func (c *Client) post(ctx context.Context, request graphqlRequest, out interface{}) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hypercerts api error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("hypercerts api returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode hypercerts api response: %w", err)
	}
	return nil
}

// FetchHypercerts returns every hypercert with its sales history
func (c *Client) FetchHypercerts(ctx context.Context) ([]Hypercert, error) {
	var response hypercertsResponse
	if err := c.post(ctx, graphqlRequest{Query: hypercertsQuery}, &response); err != nil {
		return nil, err
	}
	if len(response.Errors) > 0 {
		return nil, fmt.Errorf("hypercerts query failed: %s", response.Errors[0].Message)
	}

	hypercerts := make([]Hypercert, 0, len(response.Data.Hypercerts.Data))
	for _, raw := range response.Data.Hypercerts.Data {
		hypercert := Hypercert{
			HypercertID:            raw.HypercertID,
			Units:                  raw.Units,
			CreationBlockTimestamp: int64(raw.CreationBlockTimestamp),
		}
		if raw.Orders != nil {
			hypercert.TotalUnitsForSale = raw.Orders.TotalUnitsForSale
		}
		for _, sale := range raw.Sales.Data {
			buyer := sale.Buyer
			if buyer == "" {
				buyer = "0x0"
			}
			hypercert.Sales = append(hypercert.Sales, Sale{
				Currency:               sale.Currency,
				CurrencyAmount:         sale.CurrencyAmount,
				Buyer:                  buyer,
				CreationBlockTimestamp: int64(sale.CreationBlockTimestamp),
			})
		}
		hypercerts = append(hypercerts, hypercert)
	}
	return hypercerts, nil
}

// AttestationCount returns the number of attestations created in
// (from, to], both bounds in unix seconds
func (c *Client) AttestationCount(ctx context.Context, from, to int64) (int, error) {
	request := graphqlRequest{
		Query: attestationCountQuery,
		Variables: map[string]interface{}{
			"start": from,
			"end":   to,
		},
	}

	var response attestationsResponse
	if err := c.post(ctx, request, &response); err != nil {
		return 0, err
	}
	if len(response.Errors) > 0 {
		return 0, fmt.Errorf("attestations query failed: %s", response.Errors[0].Message)
	}
	return response.Data.Attestations.Count, nil
}
