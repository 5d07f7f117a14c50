package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// OpeningPrice — цена открытия дня по паре, референс для всей лесенки.
// Публичный эндпоинт, без подписи.
func (c *Client) OpeningPrice(ctx context.Context, market string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("markets", market)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/ticker?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("OpeningPrice new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("OpeningPrice do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return decimal.Zero, fmt.Errorf("OpeningPrice http %d: %s", resp.StatusCode, string(data))
	}

	var tickers []tickerResponse
	if err := sonic.Unmarshal(data, &tickers); err != nil {
		return decimal.Zero, fmt.Errorf("OpeningPrice unmarshal: %w", err)
	}
	if len(tickers) == 0 {
		return decimal.Zero, fmt.Errorf("OpeningPrice: empty response for %s", market)
	}

	price := decimal.NewFromFloat(tickers[0].OpeningPrice)
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("OpeningPrice: non-positive price %s for %s", price, market)
	}
	return price, nil
}
