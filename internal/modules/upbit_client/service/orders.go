package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"dip_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceLimitBuy размещает лимитную заявку на покупку. Возвращает uuid заявки.
// Отказ биржи по валидации (minimum notional и т.п.) мапится в
// models.ErrPlacementRejected, остальное — транзиентно.
func (c *Client) PlaceLimitBuy(ctx context.Context, market string, volume, price decimal.Decimal) (string, error) {
	q := url.Values{}
	q.Set("market", market)
	q.Set("side", "bid")
	q.Set("volume", volume.String())
	q.Set("price", price.String())
	q.Set("ord_type", "limit")
	q.Set("identifier", uuid.New().String())

	body := map[string]string{}
	for k := range q {
		body[k] = q.Get(k)
	}
	payload, _ := sonic.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("PlaceLimitBuy new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req, q); err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("PlaceLimitBuy do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusBadRequest {
		var e errorResponse
		_ = sonic.Unmarshal(data, &e)
		return "", fmt.Errorf("%w: %s %s", models.ErrPlacementRejected, e.Error.Name, e.Error.Message)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("PlaceLimitBuy http %d: %s", resp.StatusCode, string(data))
	}

	var order orderResponse
	if err := sonic.Unmarshal(data, &order); err != nil {
		return "", fmt.Errorf("PlaceLimitBuy unmarshal: %w", err)
	}
	if order.UUID == "" {
		return "", fmt.Errorf("PlaceLimitBuy: empty uuid in response: %s", string(data))
	}
	return order.UUID, nil
}

// CancelOrder снимает заявку. Отсутствующая заявка — models.ErrOrderNotFound,
// для вызывающего это «заявки уже нет», не сбой.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	q := url.Values{}
	q.Set("uuid", orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/v1/order?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("CancelOrder new request: %w", err)
	}
	if err := c.authorize(req, q); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("CancelOrder do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, orderID)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("CancelOrder http %d: %s", resp.StatusCode, string(data))
	}
	return nil
}

// OpenOrders — uuid всех открытых заявок по паре. Авторитетный список биржи,
// против которого сверяется трекер.
func (c *Client) OpenOrders(ctx context.Context, market string) ([]string, error) {
	q := url.Values{}
	q.Set("market", market)
	q.Set("limit", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/orders/open?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("OpenOrders new request: %w", err)
	}
	if err := c.authorize(req, q); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenOrders do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("OpenOrders http %d: %s", resp.StatusCode, string(data))
	}

	var orders []orderResponse
	if err := sonic.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("OpenOrders unmarshal: %w", err)
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.UUID)
	}
	return ids, nil
}
