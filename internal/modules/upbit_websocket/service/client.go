package service

import (
	"context"
	"log"
	"time"

	"dip_bot/internal/modules/config"
	healthsvc "dip_bot/internal/modules/health/service"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

type Client struct {
	cfg      *config.Config
	state    *healthsvc.State
	wsDialer *websocket.Dialer
	wsURL    string
	market   string
}

func NewClient(cfg *config.Config, state *healthsvc.State) *Client {
	return &Client{
		cfg:      cfg,
		state:    state,
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		wsURL:    cfg.Upbit.WSURL,
		market:   cfg.Market,
	}
}

// Start стримит тикеры Upbit по одной паре с автопереподключением.
// Каждый тик обновляет health-стейт: последняя цена видна в /healthz и /status.
func (c *Client) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.streamOnce(ctx); err != nil {
			log.Printf("[WS] %s: %v", c.market, err)
		}
		c.state.SetWSConnected(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (c *Client) streamOnce(ctx context.Context) error {
	log.Printf("[WS] connect %s %s", c.wsURL, c.market)
	conn, _, err := c.wsDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// протокол Upbit: массив фреймов [ticket, subscription]
	sub := []map[string]any{
		{"ticket": uuid.NewString()},
		{"type": "ticker", "codes": []string{c.market}},
	}
	payload, err := sonic.Marshal(sub)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}
	c.state.SetWSConnected(true)

	// keepalive ping — Upbit рвёт молчащее соединение примерно через 120s
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		t := time.NewTicker(50 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopPing:
				return
			case <-t.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		// тикеры приходят бинарными фреймами с JSON внутри
		var frame struct {
			Type        string          `json:"type"`
			Code        string          `json:"code"`
			TradePrice  decimal.Decimal `json:"trade_price"`
			TimestampMs int64           `json:"timestamp"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Type != "ticker" || frame.Code != c.market {
			continue
		}
		if frame.TradePrice.Sign() <= 0 {
			continue
		}

		c.state.TouchTick(time.UnixMilli(frame.TimestampMs))
		c.state.SetLastPrice(frame.TradePrice)
	}
}
