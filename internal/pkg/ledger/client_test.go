package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examsafe/examsafe/internal/pkg/apperrors"
)

const (
	testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testAccount  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// rpcHandler routes JSON-RPC calls by method and records every request.
type rpcHandler struct {
	mu       sync.Mutex
	requests []rpcRequest
	handlers map[string]func(params []interface{}) (interface{}, *rpcError)
}

func newRPCHandler() *rpcHandler {
	return &rpcHandler{handlers: make(map[string]func(params []interface{}) (interface{}, *rpcError))}
}

func (h *rpcHandler) on(method string, fn func(params []interface{}) (interface{}, *rpcError)) {
	h.handlers[method] = fn
}

func (h *rpcHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.requests = append(h.requests, req)
	fn := h.handlers[req.Method]
	h.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if fn == nil {
		resp.Error = &rpcError{Code: -32601, Message: "method not found"}
	} else if result, rpcErr := fn(req.Params); rpcErr != nil {
		resp.Error = rpcErr
	} else {
		raw, err := json.Marshal(result)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.Result = raw
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *rpcHandler) requestsFor(method string) []rpcRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []rpcRequest
	for _, r := range h.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func TestClient_ReadMethods(t *testing.T) {
	h := newRPCHandler()
	h.on("exam_getAllBusinessIds", func(params []interface{}) (interface{}, *rpcError) {
		return []string{"exam-1", "exam-2"}, nil
	})
	h.on("exam_getBusinessData", func(params []interface{}) (interface{}, *rpcError) {
		return BusinessData{
			Name:       "Quiz1",
			Creator:    testAccount,
			Timestamp:  1000,
			IsVerified: true, DecryptedValue: 85,
		}, nil
	})
	h.on("exam_getEncryptedValue", func(params []interface{}) (interface{}, *rpcError) {
		return "0xhandle", nil
	})
	h.on("exam_isAvailable", func(params []interface{}) (interface{}, *rpcError) {
		return true, nil
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewReadOnlyClient(srv.URL, testContract)
	ctx := context.Background()

	ids, err := c.GetAllBusinessIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"exam-1", "exam-2"}, ids)

	data, err := c.GetBusinessData(ctx, "exam-1")
	require.NoError(t, err)
	assert.Equal(t, "Quiz1", data.Name)
	assert.True(t, data.IsVerified)
	assert.Equal(t, uint64(85), data.DecryptedValue)

	handle, err := c.GetEncryptedValue(ctx, "exam-1")
	require.NoError(t, err)
	assert.Equal(t, "0xhandle", handle)

	available, err := c.IsAvailable(ctx)
	require.NoError(t, err)
	assert.True(t, available)

	// Read calls address the contract first, then positional arguments.
	listReqs := h.requestsFor("exam_getAllBusinessIds")
	require.Len(t, listReqs, 1)
	assert.Equal(t, []interface{}{testContract}, listReqs[0].Params)

	dataReqs := h.requestsFor("exam_getBusinessData")
	require.Len(t, dataReqs, 1)
	assert.Equal(t, []interface{}{testContract, "exam-1"}, dataReqs[0].Params)
}

func TestCreateBusinessData_ParamsAndPolling(t *testing.T) {
	h := newRPCHandler()
	h.on("exam_createBusinessData", func(params []interface{}) (interface{}, *rpcError) {
		return "0xtxhash", nil
	})
	var polls int
	h.on("exam_getTransactionReceipt", func(params []interface{}) (interface{}, *rpcError) {
		polls++
		if polls < 3 {
			return Receipt{Status: ReceiptPending}, nil
		}
		return Receipt{Status: ReceiptSuccess}, nil
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewSignerClient(srv.URL, testContract, testAccount,
		WithPollInterval(time.Millisecond), WithTxTimeout(time.Second))

	tx, err := c.CreateBusinessData(context.Background(), "exam-1", "Quiz1",
		[]byte("cipher"), []byte("proof"), 0, 0, "Midterm")
	require.NoError(t, err)
	assert.Equal(t, "0xtxhash", tx.Hash())

	require.NoError(t, tx.Wait(context.Background()))
	assert.Equal(t, 3, polls)

	reqs := h.requestsFor("exam_createBusinessData")
	require.Len(t, reqs, 1)
	params := reqs[0].Params
	require.Len(t, params, 9)
	assert.Equal(t, testAccount, params[0])
	assert.Equal(t, testContract, params[1])
	assert.Equal(t, "exam-1", params[2])
	assert.Equal(t, "Quiz1", params[3])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("cipher")), params[4])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("proof")), params[5])
	assert.Equal(t, float64(0), params[6])
	assert.Equal(t, float64(0), params[7])
	assert.Equal(t, "Midterm", params[8])

	pollReqs := h.requestsFor("exam_getTransactionReceipt")
	require.NotEmpty(t, pollReqs)
	assert.Equal(t, []interface{}{"0xtxhash"}, pollReqs[0].Params)
}

func TestVerifyDecryption_Params(t *testing.T) {
	h := newRPCHandler()
	h.on("exam_verifyDecryption", func(params []interface{}) (interface{}, *rpcError) {
		return "0xtxhash", nil
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewSignerClient(srv.URL, testContract, testAccount)

	_, err := c.VerifyDecryption(context.Background(), "exam-1", []byte("clear"), []byte("proof"))
	require.NoError(t, err)

	reqs := h.requestsFor("exam_verifyDecryption")
	require.Len(t, reqs, 1)
	assert.Equal(t, []interface{}{
		testAccount,
		testContract,
		"exam-1",
		base64.StdEncoding.EncodeToString([]byte("clear")),
		base64.StdEncoding.EncodeToString([]byte("proof")),
	}, reqs[0].Params)
}

func TestSubmit_ReadOnlyClientRejected(t *testing.T) {
	c := NewReadOnlyClient("http://unused", testContract)

	_, err := c.CreateBusinessData(context.Background(), "exam-1", "Quiz1", nil, nil, 0, 0, "")
	assert.ErrorIs(t, err, apperrors.ErrReadOnlyClient)

	_, err = c.VerifyDecryption(context.Background(), "exam-1", nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrReadOnlyClient)
}

func TestSubmit_UserRejected(t *testing.T) {
	h := newRPCHandler()
	h.on("exam_createBusinessData", func(params []interface{}) (interface{}, *rpcError) {
		return nil, &rpcError{Code: 4001, Message: "User rejected the request."}
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewSignerClient(srv.URL, testContract, testAccount)

	_, err := c.CreateBusinessData(context.Background(), "exam-1", "Quiz1", nil, nil, 0, 0, "")
	assert.ErrorIs(t, err, apperrors.ErrUserRejected)
}

func TestSubmit_AlreadyVerifiedRevert(t *testing.T) {
	h := newRPCHandler()
	h.on("exam_verifyDecryption", func(params []interface{}) (interface{}, *rpcError) {
		return nil, &rpcError{Code: 3, Message: "execution reverted: Data already verified"}
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewSignerClient(srv.URL, testContract, testAccount)

	_, err := c.VerifyDecryption(context.Background(), "exam-1", nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVerified)
}

func TestWait_AlreadyVerifiedRevert(t *testing.T) {
	h := newRPCHandler()
	h.on("exam_verifyDecryption", func(params []interface{}) (interface{}, *rpcError) {
		return "0xtxhash", nil
	})
	h.on("exam_getTransactionReceipt", func(params []interface{}) (interface{}, *rpcError) {
		return Receipt{Status: ReceiptReverted, RevertReason: "Data already verified"}, nil
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewSignerClient(srv.URL, testContract, testAccount, WithPollInterval(time.Millisecond))

	tx, err := c.VerifyDecryption(context.Background(), "exam-1", nil, nil)
	require.NoError(t, err)

	err = tx.Wait(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVerified)
}

func TestWait_OtherRevertIsTransactionFailure(t *testing.T) {
	h := newRPCHandler()
	h.on("exam_createBusinessData", func(params []interface{}) (interface{}, *rpcError) {
		return "0xtxhash", nil
	})
	h.on("exam_getTransactionReceipt", func(params []interface{}) (interface{}, *rpcError) {
		return Receipt{Status: ReceiptReverted, RevertReason: "ID already exists"}, nil
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewSignerClient(srv.URL, testContract, testAccount, WithPollInterval(time.Millisecond))

	tx, err := c.CreateBusinessData(context.Background(), "exam-1", "Quiz1", nil, nil, 0, 0, "")
	require.NoError(t, err)

	err = tx.Wait(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTransactionFailed)
	assert.NotErrorIs(t, err, apperrors.ErrAlreadyVerified)
}

func TestWait_TimesOut(t *testing.T) {
	h := newRPCHandler()
	h.on("exam_createBusinessData", func(params []interface{}) (interface{}, *rpcError) {
		return "0xtxhash", nil
	})
	h.on("exam_getTransactionReceipt", func(params []interface{}) (interface{}, *rpcError) {
		return Receipt{Status: ReceiptPending}, nil
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewSignerClient(srv.URL, testContract, testAccount,
		WithPollInterval(time.Millisecond), WithTxTimeout(20*time.Millisecond))

	tx, err := c.CreateBusinessData(context.Background(), "exam-1", "Quiz1", nil, nil, 0, 0, "")
	require.NoError(t, err)

	err = tx.Wait(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTransactionFailed)
}

func TestCall_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(newRPCHandler())
	srv.Close() // refuse all connections

	c := NewReadOnlyClient(srv.URL, testContract)

	_, err := c.GetAllBusinessIds(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrLedgerUnavailable)
}

func TestForAccount_DoesNotMutateOriginal(t *testing.T) {
	c := NewReadOnlyClient("http://unused", testContract)
	bound := c.ForAccount(testAccount)

	_, err := c.CreateBusinessData(context.Background(), "exam-1", "Quiz1", nil, nil, 0, 0, "")
	assert.ErrorIs(t, err, apperrors.ErrReadOnlyClient)
	assert.NotNil(t, bound)
}
