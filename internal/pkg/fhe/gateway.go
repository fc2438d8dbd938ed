// Package fhe wraps the homomorphic encryption relayer: engine session setup,
// plaintext encryption with input proofs, and the decryption-oracle round trip
// that produces a correctness proof for on-chain verification.
package fhe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/examsafe/examsafe/internal/pkg/apperrors"
)

// EncryptedInput is a ciphertext plus the input proof binding it to a
// contract/owner pair.
type EncryptedInput struct {
	Ciphertext []byte
	Proof      []byte
	Handle     string
}

// DecryptionResult maps ciphertext handles to the clear values the oracle
// produced for them.
type DecryptionResult struct {
	ClearValues map[string]uint64
}

// ProofSubmitter submits an oracle correctness proof to the ledger and blocks
// until the submission settles. The encoding must be forwarded verbatim.
type ProofSubmitter func(ctx context.Context, clearValuesEncoding, proof []byte) error

// Gateway is the encryption engine surface the workflow depends on.
type Gateway interface {
	// Initialize establishes engine session keys. Idempotent once ready.
	Initialize(ctx context.Context) error

	// Encrypt encrypts value bound to the given contract and owner addresses.
	// Fails if the engine has not been initialized.
	Encrypt(ctx context.Context, contractAddr, ownerAddr string, value uint64) (*EncryptedInput, error)

	// VerifyDecryption asks the oracle to decrypt the given handles under
	// contract-scoped authorization, submits the resulting proof on-chain via
	// onProofReady, and resolves once both the oracle response and the
	// submission have settled.
	VerifyDecryption(ctx context.Context, handles []string, contractAddr string, onProofReady ProofSubmitter) (*DecryptionResult, error)
}

// RelayerGateway implements Gateway against the HTTP relayer service.
type RelayerGateway struct {
	endpoint   string
	httpClient *http.Client

	mu          sync.Mutex
	initialized bool
}

// RelayerOption configures a RelayerGateway.
type RelayerOption func(*RelayerGateway)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) RelayerOption {
	return func(g *RelayerGateway) { g.httpClient = hc }
}

// NewRelayerGateway creates a gateway speaking to the relayer at endpoint.
func NewRelayerGateway(endpoint string, opts ...RelayerOption) *RelayerGateway {
	g := &RelayerGateway{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type initResponse struct {
	Status string `json:"status"`
}

// Initialize establishes engine session keys with the relayer.
func (g *RelayerGateway) Initialize(ctx context.Context) error {
	g.mu.Lock()
	if g.initialized {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	var resp initResponse
	if err := g.post(ctx, "/v1/keys/init", struct{}{}, &resp); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInitializationFailed, err)
	}
	if resp.Status != "ready" {
		return fmt.Errorf("%w: relayer reported status %q", apperrors.ErrInitializationFailed, resp.Status)
	}

	g.mu.Lock()
	g.initialized = true
	g.mu.Unlock()
	return nil
}

// Ready reports whether session keys have been established.
func (g *RelayerGateway) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initialized
}

type encryptRequest struct {
	ContractAddress string `json:"contractAddress"`
	OwnerAddress    string `json:"ownerAddress"`
	Value           uint64 `json:"value"`
}

type encryptResponse struct {
	Ciphertext string `json:"ciphertext"`
	Proof      string `json:"proof"`
	Handle     string `json:"handle"`
}

// Encrypt encrypts value bound to (contractAddr, ownerAddr).
func (g *RelayerGateway) Encrypt(ctx context.Context, contractAddr, ownerAddr string, value uint64) (*EncryptedInput, error) {
	if !g.Ready() {
		return nil, apperrors.ErrEngineNotInitialized
	}

	req := encryptRequest{
		ContractAddress: contractAddr,
		OwnerAddress:    ownerAddr,
		Value:           value,
	}
	var resp encryptResponse
	if err := g.post(ctx, "/v1/encrypt", req, &resp); err != nil {
		return nil, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(resp.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("malformed ciphertext from relayer: %w", err)
	}
	proof, err := base64.StdEncoding.DecodeString(resp.Proof)
	if err != nil {
		return nil, fmt.Errorf("malformed proof from relayer: %w", err)
	}

	return &EncryptedInput{Ciphertext: ciphertext, Proof: proof, Handle: resp.Handle}, nil
}

type decryptRequest struct {
	Handles         []string `json:"handles"`
	ContractAddress string   `json:"contractAddress"`
}

type decryptResponse struct {
	ClearValues   map[string]uint64 `json:"clearValues"`
	EncodedValues string            `json:"encodedValues"`
	Proof         string            `json:"proof"`
}

// VerifyDecryption runs the oracle round trip and submits the proof on-chain
// through onProofReady before resolving.
func (g *RelayerGateway) VerifyDecryption(ctx context.Context, handles []string, contractAddr string, onProofReady ProofSubmitter) (*DecryptionResult, error) {
	if !g.Ready() {
		return nil, apperrors.ErrEngineNotInitialized
	}

	req := decryptRequest{Handles: handles, ContractAddress: contractAddr}
	var resp decryptResponse
	if err := g.post(ctx, "/v1/decrypt", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrOracleFailed, err)
	}

	encoded, err := base64.StdEncoding.DecodeString(resp.EncodedValues)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed clear values encoding", apperrors.ErrOracleFailed)
	}
	proof, err := base64.StdEncoding.DecodeString(resp.Proof)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed proof", apperrors.ErrOracleFailed)
	}

	// The proof is forwarded verbatim; the contract validates it before
	// releasing plaintext.
	if err := onProofReady(ctx, encoded, proof); err != nil {
		return nil, err
	}

	return &DecryptionResult{ClearValues: resp.ClearValues}, nil
}

func (g *RelayerGateway) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("relayer request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read relayer response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("relayer returned status %d: %s", httpResp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("malformed relayer response: %w", err)
		}
	}
	return nil
}
