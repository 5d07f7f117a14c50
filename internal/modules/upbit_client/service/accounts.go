package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"dip_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

func (c *Client) accounts(ctx context.Context) ([]accountResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/accounts", nil)
	if err != nil {
		return nil, fmt.Errorf("accounts new request: %w", err)
	}
	if err := c.authorize(req, nil); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("accounts do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("accounts http %d: %s", resp.StatusCode, string(data))
	}

	var accs []accountResponse
	if err := sonic.Unmarshal(data, &accs); err != nil {
		return nil, fmt.Errorf("accounts unmarshal: %w", err)
	}
	return accs, nil
}

// Balance — свободный и зарезервированный остаток одного актива.
// Locked — капитал, замороженный в открытых заявках.
func (c *Client) Balance(ctx context.Context, currency string) (models.Balance, error) {
	accs, err := c.accounts(ctx)
	if err != nil {
		return models.Balance{}, err
	}

	for _, a := range accs {
		if a.Currency != currency {
			continue
		}
		free, err := decimal.NewFromString(a.Balance)
		if err != nil {
			return models.Balance{}, fmt.Errorf("Balance parse %q: %w", a.Balance, err)
		}
		locked, err := decimal.NewFromString(a.Locked)
		if err != nil {
			return models.Balance{}, fmt.Errorf("Balance parse locked %q: %w", a.Locked, err)
		}
		return models.Balance{Free: free, Locked: locked}, nil
	}
	// актива нет в аккаунте — нулевой баланс, не ошибка
	return models.Balance{Free: decimal.Zero, Locked: decimal.Zero}, nil
}

// Balances — все ненулевые балансы, для команды /check.
func (c *Client) Balances(ctx context.Context) ([]models.AccountBalance, error) {
	accs, err := c.accounts(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]models.AccountBalance, 0, len(accs))
	for _, a := range accs {
		free, _ := decimal.NewFromString(a.Balance)
		locked, _ := decimal.NewFromString(a.Locked)
		total := free.Add(locked)
		if total.IsZero() {
			continue
		}
		res = append(res, models.AccountBalance{Currency: a.Currency, Total: total})
	}
	return res, nil
}
