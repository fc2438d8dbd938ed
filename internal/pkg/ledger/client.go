// Package ledger is the client facade over the exam records contract, spoken
// through the JSON-RPC gateway node. A Client runs in one of two modes:
// read-only (queries) or signer-bound (mutating transactions, signed by the
// node on behalf of the bound account and therefore rejectable by it).
package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/examsafe/examsafe/internal/pkg/apperrors"
)

// JSON-RPC error code used by signers to report a user-declined request
// (EIP-1193 userRejectedRequest).
const codeUserRejected = 4001

// revertAlreadyVerified is the contract's revert reason for a verification
// attempt on an already-verified record.
const revertAlreadyVerified = "Data already verified"

// Client talks to the exam records contract through a gateway node.
type Client struct {
	endpoint     string
	contract     string
	signer       string // empty in read-only mode
	httpClient   *http.Client
	pollInterval time.Duration
	txTimeout    time.Duration
	nextID       atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPollInterval sets the receipt polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithTxTimeout bounds how long Wait blocks on a pending transaction.
func WithTxTimeout(d time.Duration) Option {
	return func(c *Client) { c.txTimeout = d }
}

// NewReadOnlyClient creates a query-only client for the given contract.
func NewReadOnlyClient(endpoint, contract string, opts ...Option) *Client {
	c := &Client{
		endpoint:     endpoint,
		contract:     contract,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: 2 * time.Second,
		txTimeout:    2 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewSignerClient creates a client whose mutating calls are signed for account.
func NewSignerClient(endpoint, contract, account string, opts ...Option) *Client {
	c := NewReadOnlyClient(endpoint, contract, opts...)
	c.signer = account
	return c
}

// ForAccount returns a signer-bound copy of the client for the given account.
func (c *Client) ForAccount(account string) *Client {
	return &Client{
		endpoint:     c.endpoint,
		contract:     c.contract,
		signer:       account,
		httpClient:   c.httpClient,
		pollInterval: c.pollInterval,
		txTimeout:    c.txTimeout,
	}
}

// GetAllBusinessIds returns every record id known to the contract.
func (c *Client) GetAllBusinessIds(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.call(ctx, "exam_getAllBusinessIds", []interface{}{c.contract}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetBusinessData returns the public tuple of a single record.
func (c *Client) GetBusinessData(ctx context.Context, id string) (*BusinessData, error) {
	var data BusinessData
	if err := c.call(ctx, "exam_getBusinessData", []interface{}{c.contract, id}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEncryptedValue returns the ciphertext handle stored for a record.
func (c *Client) GetEncryptedValue(ctx context.Context, id string) (string, error) {
	var handle string
	if err := c.call(ctx, "exam_getEncryptedValue", []interface{}{c.contract, id}, &handle); err != nil {
		return "", err
	}
	return handle, nil
}

// IsAvailable probes whether the contract responds to queries.
func (c *Client) IsAvailable(ctx context.Context) (bool, error) {
	var available bool
	if err := c.call(ctx, "exam_isAvailable", []interface{}{c.contract}, &available); err != nil {
		return false, err
	}
	return available, nil
}

// CreateBusinessData submits a new record. Argument order after the sender
// account mirrors the contract ABI: id, name, ciphertext, proof, aux values,
// description.
func (c *Client) CreateBusinessData(ctx context.Context, id, name string, ciphertext, proof []byte, aux1, aux2 uint64, description string) (Tx, error) {
	return c.submit(ctx, "exam_createBusinessData", []interface{}{
		c.signer,
		c.contract,
		id,
		name,
		base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(proof),
		aux1,
		aux2,
		description,
	})
}

// VerifyDecryption forwards an oracle decryption proof to the contract's
// verification entry point.
func (c *Client) VerifyDecryption(ctx context.Context, id string, clearValuesEncoding, proof []byte) (Tx, error) {
	return c.submit(ctx, "exam_verifyDecryption", []interface{}{
		c.signer,
		c.contract,
		id,
		base64.StdEncoding.EncodeToString(clearValuesEncoding),
		base64.StdEncoding.EncodeToString(proof),
	})
}

func (c *Client) submit(ctx context.Context, method string, params []interface{}) (Tx, error) {
	if c.signer == "" {
		return nil, apperrors.ErrReadOnlyClient
	}
	var hash string
	if err := c.call(ctx, method, params, &hash); err != nil {
		return nil, err
	}
	return &pendingTx{hash: hash, client: c}, nil
}

// pendingTx implements Tx by polling the gateway node for a receipt.
type pendingTx struct {
	hash   string
	client *Client
}

func (t *pendingTx) Hash() string { return t.hash }

func (t *pendingTx) Wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.client.txTimeout)
	defer cancel()

	ticker := time.NewTicker(t.client.pollInterval)
	defer ticker.Stop()

	for {
		var receipt Receipt
		err := t.client.call(ctx, "exam_getTransactionReceipt", []interface{}{t.hash}, &receipt)
		if err != nil {
			return err
		}

		switch receipt.Status {
		case ReceiptSuccess:
			return nil
		case ReceiptReverted:
			return revertError(receipt.RevertReason)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: transaction %s not confirmed: %v",
				apperrors.ErrTransactionFailed, t.hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func revertError(reason string) error {
	if strings.Contains(reason, revertAlreadyVerified) {
		return fmt.Errorf("%w: %s", apperrors.ErrAlreadyVerified, reason)
	}
	return fmt.Errorf("%w: reverted: %s", apperrors.ErrTransactionFailed, reason)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// call performs a single JSON-RPC round trip and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrLedgerUnavailable, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", apperrors.ErrLedgerUnavailable, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", apperrors.ErrLedgerUnavailable, httpResp.StatusCode)
	}

	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: malformed response: %v", apperrors.ErrLedgerUnavailable, err)
	}

	if resp.Error != nil {
		return mapRPCError(resp.Error)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("%w: malformed result: %v", apperrors.ErrLedgerUnavailable, err)
		}
	}
	return nil
}

func mapRPCError(e *rpcError) error {
	switch {
	case e.Code == codeUserRejected:
		return fmt.Errorf("%w: %s", apperrors.ErrUserRejected, e.Message)
	case strings.Contains(e.Message, revertAlreadyVerified):
		return fmt.Errorf("%w: %s", apperrors.ErrAlreadyVerified, e.Message)
	default:
		return fmt.Errorf("%w: rpc error %d: %s", apperrors.ErrTransactionFailed, e.Code, e.Message)
	}
}
