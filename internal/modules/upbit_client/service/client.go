package service

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"dip_bot/internal/modules/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Client — REST-клиент Upbit. Все вызовы ограничены таймаутом http-клиента,
// зависший запрос — транзиентная ошибка для вызывающего тика.
type Client struct {
	cfg  *config.Config
	http *http.Client

	baseURL   string
	accessKey string
	secretKey string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: 10 * time.Second},
		baseURL:   cfg.Upbit.BaseURL,
		accessKey: cfg.Upbit.AccessKey,
		secretKey: cfg.Upbit.SecretKey,
	}
}

// authToken — JWT по схеме Upbit: access_key + nonce, для запросов с
// параметрами ещё query_hash (SHA512 от urlencoded-строки).
func (c *Client) authToken(query url.Values) (string, error) {
	claims := jwt.MapClaims{
		"access_key": c.accessKey,
		"nonce":      uuid.New().String(),
	}
	if len(query) > 0 {
		h := sha512.Sum512([]byte(query.Encode()))
		claims["query_hash"] = hex.EncodeToString(h[:])
		claims["query_hash_alg"] = "SHA512"
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(c.secretKey))
	if err != nil {
		return "", fmt.Errorf("upbit auth token: %w", err)
	}
	return signed, nil
}

func (c *Client) authorize(req *http.Request, query url.Values) error {
	token, err := c.authToken(query)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
