// Package gateway hands user transactions to an external transaction gateway,
// which composes, signs and broadcasts them.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client posts transaction requests to the gateway. Requests are sent once:
// a retry after a timeout could broadcast the same transaction twice.
type Client struct {
	l          *zap.Logger
	baseURL    string
	httpClient *http.Client
}

type txResponse struct {
	TxHash string `json:"txHash"`
}

type redeemRequest struct {
	Address          string `json:"address"`
	InjectiveAddress string `json:"injectiveAddress"`
}

// New creates client for the gateway at baseURL.
func New(l *zap.Logger, baseURL string) *Client {
	return &Client{
		l:       l,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Deposit moves funds from the bank account into a subaccount.
func (c *Client) Deposit(ctx context.Context, t domain.Transfer) (string, error) {
	return c.post(ctx, "/deposit", t)
}

// Withdraw moves funds from a subaccount back to the bank account.
func (c *Client) Withdraw(ctx context.Context, t domain.Transfer) (string, error) {
	return c.post(ctx, "/withdraw", t)
}

// Redeem claims the gas rebate of address.
func (c *Client) Redeem(ctx context.Context, address, injectiveAddress string) (string, error) {
	return c.post(ctx, "/gas-rebate/redeem", redeemRequest{Address: address, InjectiveAddress: injectiveAddress})
}

func (c *Client) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "gateway request %s failed", path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway %s returned status %d: %s", path, resp.StatusCode, string(respBody))
	}

	var out txResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal gateway response")
	}
	if out.TxHash == "" {
		return "", errors.Errorf("gateway %s returned no tx hash", path)
	}

	c.l.Info("transaction submitted", zap.String("path", path), zap.String("tx_hash", out.TxHash))

	return out.TxHash, nil
}
