// Package nano is a client of the Nano node JSON RPC. It reads balances, pockets
// receivable blocks into a wallet account and creates deposit accounts.
package nano

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/edgard/nanotipbot/internal/config"
)

// RPCError is an error reported by the node in the response body.
type RPCError struct {
	Action  string
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("nano rpc %s: %s", e.Action, e.Message)
}

// Client talks to a single node and wallet.
type Client struct {
	http         *resty.Client
	wallet       string
	receiveLimit int
	logger       *slog.Logger
}

// NewClient creates a node client from the nano config section.
func NewClient(cfg config.NanoConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limit := cfg.ReceiveLimit
	if limit <= 0 {
		limit = config.DefaultNanoReceiveLimit
	}
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.NodeURL).
			SetTimeout(cfg.RequestTimeout).
			SetHeader("Content-Type", "application/json"),
		wallet:       cfg.WalletID,
		receiveLimit: limit,
		logger:       logger.With("component", "nano_client"),
	}
}

// rpcStatus is the error field every node response may carry. The node answers most
// failures with status 200, so it is checked on successful responses too.
type rpcStatus struct {
	Error string `json:"error"`
}

func (s *rpcStatus) rpcError() string { return s.Error }

// rpcResponse is implemented by response structs embedding rpcStatus.
type rpcResponse interface {
	rpcError() string
}

// call posts one RPC action and lets resty decode the response into out.
func (c *Client) call(ctx context.Context, action string, params map[string]any, out rpcResponse) error {
	body := map[string]any{"action": action}
	for k, v := range params {
		body[k] = v
	}

	failure := &rpcStatus{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		SetError(failure).
		ForceContentType("application/json").
		Post("")
	if err != nil {
		return fmt.Errorf("nano rpc %s failed: %w", action, err)
	}
	if resp.IsError() {
		if failure.Error != "" {
			return &RPCError{Action: action, Message: failure.Error}
		}
		return fmt.Errorf("nano rpc %s returned status %d", action, resp.StatusCode())
	}
	if msg := out.rpcError(); msg != "" {
		return &RPCError{Action: action, Message: msg}
	}
	return nil
}

// BalanceRaw returns the confirmed balance of account in raw units.
func (c *Client) BalanceRaw(ctx context.Context, account string) (decimal.Decimal, error) {
	var out struct {
		rpcStatus
		Balance string `json:"balance"`
	}
	if err := c.call(ctx, "account_balance", map[string]any{"account": account}, &out); err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(out.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("node returned a malformed balance %q: %w", out.Balance, err)
	}
	return balance, nil
}

// Receivable lists the hashes of blocks sent to account that are not pocketed yet.
func (c *Client) Receivable(ctx context.Context, account string) ([]string, error) {
	var out struct {
		rpcStatus
		Blocks json.RawMessage `json:"blocks"`
	}
	params := map[string]any{"account": account, "count": strconv.Itoa(c.receiveLimit)}
	if err := c.call(ctx, "receivable", params, &out); err != nil {
		return nil, err
	}

	// An account without receivable blocks gets "blocks": "" instead of an empty list.
	raw := bytes.TrimSpace(out.Blocks)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, nil
	}
	var hashes []string
	if err := json.Unmarshal(raw, &hashes); err != nil {
		return nil, fmt.Errorf("failed to decode receivable blocks: %w", err)
	}
	return hashes, nil
}

// Receive pockets one receivable block into account.
func (c *Client) Receive(ctx context.Context, account, block string) (string, error) {
	var out struct {
		rpcStatus
		Block string `json:"block"`
	}
	params := map[string]any{"wallet": c.wallet, "account": account, "block": block}
	if err := c.call(ctx, "receive", params, &out); err != nil {
		return "", err
	}
	return out.Block, nil
}

// CollectPending pockets every receivable block of account so its balance reflects funds
// sent to it. It stops at the first failure.
func (c *Client) CollectPending(ctx context.Context, account string) error {
	hashes, err := c.Receivable(ctx, account)
	if err != nil {
		return err
	}
	for _, h := range hashes {
		if _, err := c.Receive(ctx, account, h); err != nil {
			return fmt.Errorf("failed to receive block %s: %w", h, err)
		}
	}
	if len(hashes) > 0 {
		c.logger.InfoContext(ctx, "Collected receivable blocks", "account", account, "blocks", len(hashes))
	}
	return nil
}

// CreateAccount creates a new account in the wallet and returns its address.
func (c *Client) CreateAccount(ctx context.Context) (string, error) {
	var out struct {
		rpcStatus
		Account string `json:"account"`
	}
	if err := c.call(ctx, "account_create", map[string]any{"wallet": c.wallet}, &out); err != nil {
		return "", err
	}
	if out.Account == "" {
		return "", fmt.Errorf("node returned no account for account_create")
	}
	c.logger.InfoContext(ctx, "Account created", "account", out.Account)
	return out.Account, nil
}
