package models

// ExamRecord represents a confidential exam score entry as stored on the ledger.
// The score itself lives on the ledger only as a ciphertext; DecryptedScore is
// authoritative exclusively when IsVerified is true.
type ExamRecord struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	Creator              string `json:"creator"`
	CreatedAt            int64  `json:"createdAt"`
	EncryptedScoreHandle string `json:"encryptedScoreHandle"`
	PublicValue1         uint64 `json:"publicValue1"`
	PublicValue2         uint64 `json:"publicValue2"`
	IsVerified           bool   `json:"isVerified"`
	DecryptedScore       uint64 `json:"decryptedScore"`
}

// ScoreState returns the record's score as a tagged state. A record never
// carries a LocallyDecrypted state; that variant exists only for ephemeral
// oracle results that have not been confirmed on-chain yet.
func (r *ExamRecord) ScoreState() ScoreState {
	if r.IsVerified {
		return OnChainVerified(r.DecryptedScore)
	}
	return NotDecrypted()
}

// Stats holds aggregate values derived from the current record set.
// It is recomputed from the store on every change, never stored independently.
type Stats struct {
	TotalExams    int     `json:"totalExams"`
	VerifiedExams int     `json:"verifiedExams"`
	AvgScore      float64 `json:"avgScore"`
	HighScore     uint64  `json:"highScore"`
}
