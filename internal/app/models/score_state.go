package models

// ScoreStateKind discriminates the decryption state of a score.
type ScoreStateKind string

const (
	// ScoreNotDecrypted means no plaintext is known for the score.
	ScoreNotDecrypted ScoreStateKind = "NOT_DECRYPTED"
	// ScoreLocallyDecrypted means the oracle returned a plaintext that has not
	// been confirmed on-chain. Display-only; must never be persisted.
	ScoreLocallyDecrypted ScoreStateKind = "LOCALLY_DECRYPTED"
	// ScoreOnChainVerified means the ledger holds the proof-checked plaintext.
	ScoreOnChainVerified ScoreStateKind = "ON_CHAIN_VERIFIED"
)

// ScoreState is a tagged union over the three decryption states of a score.
// Keeping the ephemeral and the authoritative value in one type prevents the
// two from being confused by callers.
type ScoreState struct {
	Kind  ScoreStateKind `json:"kind"`
	Value uint64         `json:"value"`
}

// NotDecrypted returns the empty score state.
func NotDecrypted() ScoreState {
	return ScoreState{Kind: ScoreNotDecrypted}
}

// LocallyDecrypted wraps an ephemeral, oracle-supplied plaintext.
func LocallyDecrypted(value uint64) ScoreState {
	return ScoreState{Kind: ScoreLocallyDecrypted, Value: value}
}

// OnChainVerified wraps a ledger-confirmed plaintext.
func OnChainVerified(value uint64) ScoreState {
	return ScoreState{Kind: ScoreOnChainVerified, Value: value}
}

// Known reports whether any plaintext value is present.
func (s ScoreState) Known() bool {
	return s.Kind != ScoreNotDecrypted
}

// Authoritative reports whether the value is backed by an on-chain proof.
func (s ScoreState) Authoritative() bool {
	return s.Kind == ScoreOnChainVerified
}
