package services

import (
	"sort"

	"github.com/examsafe/examsafe/internal/app/models"
)

// ComputeStats derives aggregate statistics from a record snapshot. Mean and
// maximum cover verified records only; both are zero when nothing is verified.
func ComputeStats(records []*models.ExamRecord) models.Stats {
	stats := models.Stats{TotalExams: len(records)}

	var sum uint64
	for _, r := range records {
		if !r.IsVerified {
			continue
		}
		stats.VerifiedExams++
		sum += r.DecryptedScore
		if r.DecryptedScore > stats.HighScore {
			stats.HighScore = r.DecryptedScore
		}
	}

	if stats.VerifiedExams > 0 {
		stats.AvgScore = float64(sum) / float64(stats.VerifiedExams)
	}
	return stats
}

// Leaderboard returns the top n verified records ordered by decrypted score,
// highest first. Ties keep submission order.
func Leaderboard(records []*models.ExamRecord, n int) []*models.ExamRecord {
	verified := make([]*models.ExamRecord, 0, len(records))
	for _, r := range records {
		if r.IsVerified {
			verified = append(verified, r)
		}
	}

	sort.SliceStable(verified, func(i, j int) bool {
		return verified[i].DecryptedScore > verified[j].DecryptedScore
	})

	if n >= 0 && len(verified) > n {
		verified = verified[:n]
	}
	return verified
}
