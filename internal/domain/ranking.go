package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Ranking is the ordered view of an envelope's claims.
type Ranking struct {
	EnvelopeID string
	Asset      string
	Status     EnvelopeStatus
	Total      decimal.Decimal
	Claimed    decimal.Decimal
	ShareCount int
	Claims     []*Claim
	// LuckyKing is set only once the envelope is finished.
	LuckyKing *Claim
}

// RankClaims returns a sorted copy: amount descending, then claim time, then user ID.
func RankClaims(claims []*Claim) []*Claim {
	ranked := make([]*Claim, len(claims))
	copy(ranked, claims)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if !a.ClaimedAt.Equal(b.ClaimedAt) {
			return a.ClaimedAt.Before(b.ClaimedAt)
		}
		return a.UserID < b.UserID
	})

	return ranked
}

// NewRanking builds the ranking of an envelope from its persisted claims.
func NewRanking(env *Envelope, claims []*Claim) *Ranking {
	ranked := RankClaims(claims)

	claimed := decimal.Zero
	for _, c := range ranked {
		claimed = claimed.Add(c.Amount)
	}

	r := &Ranking{
		EnvelopeID: env.ID,
		Asset:      env.Asset,
		Status:     env.Status,
		Total:      env.TotalAmount,
		Claimed:    claimed,
		ShareCount: env.ShareCount,
		Claims:     ranked,
	}
	if env.Status == EnvelopeStatusFinished && len(ranked) > 0 {
		r.LuckyKing = ranked[0]
	}

	return r
}

// IsLuckyKing reports whether userID holds the top claim of a finished envelope.
func (r *Ranking) IsLuckyKing(userID int64) bool {
	return r.LuckyKing != nil && r.LuckyKing.UserID == userID
}
