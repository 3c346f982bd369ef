package pricefeed

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Quoter memoizes price lookups for the lifetime of one report, so a report
// over many sales in the same currency hits the feed once. Not meant to be
// long-lived: construct a fresh one per report so prices stay current.
type Quoter struct {
	registry *Registry
	source   PriceSource

	mu    sync.Mutex
	cache map[string]quote
}

type quote struct {
	price decimal.Decimal
	ok    bool
}

func NewQuoter(registry *Registry, source PriceSource) *Quoter {
	return &Quoter{
		registry: registry,
		source:   source,
		cache:    map[string]quote{},
	}
}

// USDPrice resolves a currency address to its USD price. Unknown currencies
// and failed feed lookups report ok=false; failures are negative-cached so a
// flaky feed is queried at most once per report.
func (q *Quoter) USDPrice(ctx context.Context, currencyAddress string) (decimal.Decimal, bool) {
	key := strings.ToLower(currencyAddress)

	q.mu.Lock()
	if cached, hit := q.cache[key]; hit {
		q.mu.Unlock()
		return cached.price, cached.ok
	}
	q.mu.Unlock()

	token, known := q.registry.Lookup(key)
	result := quote{}
	if known {
		if price, err := q.source.USDPrice(ctx, token); err == nil {
			result = quote{price: price, ok: true}
		}
	}

	q.mu.Lock()
	q.cache[key] = result
	q.mu.Unlock()

	return result.price, result.ok
}

// ConvertToUSD converts a raw on-chain amount to USD using the token's
// decimals. The raw amount arrives as a decimal string since uint256 values
// overflow int64.
func (q *Quoter) ConvertToUSD(ctx context.Context, currencyAddress, rawAmount string) (decimal.Decimal, bool) {
	token, known := q.registry.Lookup(currencyAddress)
	if !known {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return decimal.Zero, false
	}

	price, ok := q.USDPrice(ctx, currencyAddress)
	if !ok {
		return decimal.Zero, false
	}

	return amount.Shift(-token.Decimals).Mul(price), true
}
