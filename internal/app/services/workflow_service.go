package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examsafe/examsafe/internal/app/models"
	"github.com/examsafe/examsafe/internal/app/store"
	"github.com/examsafe/examsafe/internal/pkg/apperrors"
	"github.com/examsafe/examsafe/internal/pkg/auth"
	"github.com/examsafe/examsafe/internal/pkg/fhe"
	"github.com/examsafe/examsafe/internal/pkg/ledger"
)

// LedgerReader is the read-only ledger surface the workflow queries.
type LedgerReader interface {
	GetAllBusinessIds(ctx context.Context) ([]string, error)
	GetBusinessData(ctx context.Context, id string) (*ledger.BusinessData, error)
	GetEncryptedValue(ctx context.Context, id string) (string, error)
	IsAvailable(ctx context.Context) (bool, error)
}

// LedgerWriter is the signer-bound ledger surface for mutating transactions.
type LedgerWriter interface {
	CreateBusinessData(ctx context.Context, id, name string, ciphertext, proof []byte, aux1, aux2 uint64, description string) (ledger.Tx, error)
	VerifyDecryption(ctx context.Context, id string, clearValuesEncoding, proof []byte) (ledger.Tx, error)
}

// SignerFunc binds a ledger writer to the given account.
type SignerFunc func(account string) LedgerWriter

// InitState is the encryption engine initialization machine state.
type InitState int

const (
	InitUninitialized InitState = iota
	InitInitializing
	InitReady
)

// CreateRecordInput carries the caller-supplied fields of a new record.
// ScoreText is coerced to a non-negative integer; malformed input becomes 0.
// Name emptiness is enforced at the HTTP binding gate, not here.
type CreateRecordInput struct {
	Name        string
	Description string
	ScoreText   string
}

// DecryptionOutcome is the result of a decryption request.
type DecryptionOutcome struct {
	// Score is the plaintext state obtained: on-chain verified for records the
	// ledger already settled, locally decrypted (ephemeral) for fresh oracle
	// results, not decrypted when Raced is set.
	Score models.ScoreState
	// Raced reports that another party verified the record concurrently; the
	// caller should re-read the record rather than trust a stale value.
	Raced bool
}

// WorkflowService coordinates the encrypt → submit → confirm → verify-decrypt
// workflow across the encryption engine, the ledger and the decryption oracle.
// It owns the record store and the status center; all mutations of either
// happen inside its operation handlers.
type WorkflowService struct {
	reader   LedgerReader
	signer   SignerFunc
	gateway  fhe.Gateway
	store    *store.RecordStore
	status   *StatusCenter
	contract string
	logger   zerolog.Logger

	mu         sync.Mutex
	initState  InitState
	loading    bool
	creating   bool
	decrypting map[string]struct{}
}

// NewWorkflowService creates the workflow controller.
func NewWorkflowService(
	reader LedgerReader,
	signer SignerFunc,
	gateway fhe.Gateway,
	recordStore *store.RecordStore,
	status *StatusCenter,
	contract string,
	lgr zerolog.Logger,
) *WorkflowService {
	return &WorkflowService{
		reader:     reader,
		signer:     signer,
		gateway:    gateway,
		store:      recordStore,
		status:     status,
		contract:   contract,
		logger:     lgr,
		decrypting: make(map[string]struct{}),
	}
}

// InitializationState returns the current engine initialization state.
func (s *WorkflowService) InitializationState() InitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initState
}

// ensureInitialized drives the initialization machine. It is a no-op when the
// engine is already ready; a concurrent initialization rejects the caller
// instead of blocking it. A failed attempt returns the machine to
// Uninitialized so a later call may retry.
func (s *WorkflowService) ensureInitialized(ctx context.Context) error {
	s.mu.Lock()
	switch s.initState {
	case InitReady:
		s.mu.Unlock()
		return nil
	case InitInitializing:
		s.mu.Unlock()
		return apperrors.ErrEngineInitializing
	}
	s.initState = InitInitializing
	s.mu.Unlock()

	s.logger.Info().Msg("Initializing encryption engine")
	err := s.gateway.Initialize(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.initState = InitUninitialized
		s.status.Error("FHE initialization failed")
		return err
	}
	s.initState = InitReady
	return nil
}

// LoadRecords rebuilds the record store from the ledger. A per-record fetch
// failure is logged and skipped; partial results are acceptable. A failure at
// the id-listing stage leaves the previous store untouched.
func (s *WorkflowService) LoadRecords(ctx context.Context, sess *auth.Session) ([]*models.ExamRecord, error) {
	if !sess.Active() {
		return nil, apperrors.ErrNoSession
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: load already running", apperrors.ErrOperationInFlight)
	}
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if err := s.refresh(ctx); err != nil {
		s.status.Error("Failed to load data")
		return nil, err
	}
	return s.store.List(), nil
}

// refresh fetches the full record set and atomically replaces the store.
func (s *WorkflowService) refresh(ctx context.Context) error {
	ids, err := s.reader.GetAllBusinessIds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list record ids: %w", err)
	}

	records := make([]*models.ExamRecord, 0, len(ids))
	for _, id := range ids {
		data, err := s.reader.GetBusinessData(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("recordId", id).Msg("Skipping record, fetch failed")
			continue
		}
		records = append(records, &models.ExamRecord{
			ID:                   id,
			Name:                 data.Name,
			Description:          data.Description,
			Creator:              data.Creator,
			CreatedAt:            data.Timestamp,
			EncryptedScoreHandle: id,
			PublicValue1:         data.PublicValue1,
			PublicValue2:         data.PublicValue2,
			IsVerified:           data.IsVerified,
			DecryptedScore:       data.DecryptedValue,
		})
	}

	s.store.ReplaceAll(records)
	s.logger.Debug().Int("count", len(records)).Msg("Record store refreshed")
	return nil
}

// CreateRecord runs the create machine: Encrypting → Submitting → Confirming.
// On success the store is refreshed and the new record id returned.
func (s *WorkflowService) CreateRecord(ctx context.Context, sess *auth.Session, in CreateRecordInput) (string, error) {
	if !sess.Active() {
		s.status.Error("Please connect wallet")
		return "", apperrors.ErrNoSession
	}

	s.mu.Lock()
	if s.creating {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: create already running", apperrors.ErrOperationInFlight)
	}
	s.creating = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.creating = false
		s.mu.Unlock()
	}()

	if err := s.ensureInitialized(ctx); err != nil {
		return "", err
	}

	score := parseScore(in.ScoreText)
	id := newRecordID()

	s.status.Pending("Creating exam record...")
	s.logger.Info().Str("recordId", id).Str("stage", "encrypting").Msg("Creating exam record")

	encrypted, err := s.gateway.Encrypt(ctx, s.contract, sess.Address, score)
	if err != nil {
		return "", s.failCreate(err)
	}

	s.logger.Debug().Str("recordId", id).Str("stage", "submitting").Msg("Submitting record transaction")
	tx, err := s.signer(sess.Address).CreateBusinessData(
		ctx, id, in.Name, encrypted.Ciphertext, encrypted.Proof, 0, 0, in.Description)
	if err != nil {
		return "", s.failCreate(err)
	}

	s.status.Pending("Confirming transaction...")
	s.logger.Debug().Str("recordId", id).Str("txHash", tx.Hash()).Str("stage", "confirming").Msg("Awaiting inclusion")
	if err := tx.Wait(ctx); err != nil {
		return "", s.failCreate(err)
	}

	if err := s.refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Post-create refresh failed")
	}

	s.status.Success("Exam record created")
	return id, nil
}

func (s *WorkflowService) failCreate(err error) error {
	if errors.Is(err, apperrors.ErrUserRejected) {
		s.status.Error("Transaction rejected")
	} else {
		s.status.Error("Creation failed: " + err.Error())
	}
	return err
}

// RequestDecryption runs the decrypt/verify machine. Already-verified records
// short-circuit without an oracle round trip. A fresh oracle result is
// ephemeral: it is returned for display and never written into the store; the
// record flips to verified only once the proof transaction confirms and a
// refresh picks it up.
func (s *WorkflowService) RequestDecryption(ctx context.Context, sess *auth.Session, recordID string) (*DecryptionOutcome, error) {
	if !sess.Active() {
		s.status.Error("Connect wallet first")
		return nil, apperrors.ErrNoSession
	}

	s.mu.Lock()
	if _, busy := s.decrypting[recordID]; busy {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: decryption of %s already running", apperrors.ErrOperationInFlight, recordID)
	}
	s.decrypting[recordID] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.decrypting, recordID)
		s.mu.Unlock()
	}()

	s.logger.Info().Str("recordId", recordID).Str("stage", "checkingStatus").Msg("Requesting decryption")

	data, err := s.reader.GetBusinessData(ctx, recordID)
	if err != nil {
		return nil, s.failDecrypt(err)
	}
	if data.Creator == "" && data.Timestamp == 0 {
		err := fmt.Errorf("%w: %s", apperrors.ErrRecordNotFound, recordID)
		s.status.Error("Decryption failed: record not found")
		return nil, err
	}

	if data.IsVerified {
		// Idempotent path: no oracle round trip, no side effects beyond the
		// notification.
		s.status.Success("Score already verified")
		return &DecryptionOutcome{Score: models.OnChainVerified(data.DecryptedValue)}, nil
	}

	if err := s.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	handle, err := s.reader.GetEncryptedValue(ctx, recordID)
	if err != nil {
		return nil, s.failDecrypt(err)
	}

	s.status.Pending("Verifying decryption...")
	s.logger.Debug().Str("recordId", recordID).Str("stage", "requestingOracle").Msg("Starting oracle round trip")

	writer := s.signer(sess.Address)
	result, err := s.gateway.VerifyDecryption(ctx, []string{handle}, s.contract,
		func(ctx context.Context, clearValuesEncoding, proof []byte) error {
			s.logger.Debug().Str("recordId", recordID).Str("stage", "submittingProof").Msg("Submitting decryption proof")
			tx, err := writer.VerifyDecryption(ctx, recordID, clearValuesEncoding, proof)
			if err != nil {
				return err
			}
			s.logger.Debug().Str("recordId", recordID).Str("txHash", tx.Hash()).Str("stage", "confirming").Msg("Awaiting proof inclusion")
			return tx.Wait(ctx)
		})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyVerified) {
			// Benign race: another party verified concurrently. Refresh and
			// report success; the caller should re-read the record.
			if rerr := s.refresh(ctx); rerr != nil {
				s.logger.Warn().Err(rerr).Msg("Post-race refresh failed")
			}
			s.status.Success("Score already verified")
			return &DecryptionOutcome{Score: models.NotDecrypted(), Raced: true}, nil
		}
		return nil, s.failDecrypt(err)
	}

	clearValue, ok := result.ClearValues[handle]
	if !ok {
		err := fmt.Errorf("%w: oracle result missing handle %s", apperrors.ErrOracleFailed, handle)
		return nil, s.failDecrypt(err)
	}

	if err := s.refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Post-decrypt refresh failed")
	}

	s.status.Success("Score decrypted")
	return &DecryptionOutcome{Score: models.LocallyDecrypted(clearValue)}, nil
}

func (s *WorkflowService) failDecrypt(err error) error {
	s.status.Error("Decryption failed: " + err.Error())
	return err
}

// CheckAvailability probes the ledger contract.
func (s *WorkflowService) CheckAvailability(ctx context.Context) (bool, error) {
	available, err := s.reader.IsAvailable(ctx)
	if err != nil {
		s.status.Error("Availability check failed")
		return false, err
	}
	if !available {
		s.status.Error("Availability check failed")
		return false, nil
	}
	s.status.Success("System available")
	return true, nil
}

// Records returns the current record snapshot.
func (s *WorkflowService) Records() []*models.ExamRecord {
	return s.store.List()
}

// Stats recomputes aggregate statistics from the current snapshot.
func (s *WorkflowService) Stats() models.Stats {
	return ComputeStats(s.store.List())
}

// TopScores returns the current leaderboard, highest verified scores first.
func (s *WorkflowService) TopScores(n int) []*models.ExamRecord {
	return Leaderboard(s.store.List(), n)
}

// Status returns the currently displayable notification.
func (s *WorkflowService) Status() models.TransactionStatus {
	return s.status.Current()
}

// parseScore coerces the caller-supplied score text to a non-negative integer.
// Malformed or empty input becomes 0; range checks stay with the contract.
func parseScore(text string) uint64 {
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// newRecordID generates a collision-resistant record id. The random token
// replaces the wall-clock scheme that collided under rapid same-session
// submissions.
func newRecordID() string {
	return "exam-" + uuid.New().String()
}
