package match

import (
	"sort"

	"github.com/coolmes833/swapskills/internal/docstore"
)

// Classification is how a target looks from the caller's side.
type Classification string

const (
	Unseen           Classification = "unseen"
	AwaitingResponse Classification = "awaiting-response"
	Matched          Classification = "matched"
	IncomingRequest  Classification = "incoming-request"
)

// Classify derives the caller's view of a target from the caller's own
// record and the counterpart's record naming the caller (either may be nil).
//
// A counterpart record that is already matched while the caller has none is
// a half-applied promotion or revocation; it classifies as Unseen so a new
// like takes the healing path.
func Classify(own, counterpart *InterestRecord) Classification {
	if own != nil {
		if own.Status == StatusMatched {
			return Matched
		}
		return AwaitingResponse
	}
	if counterpart != nil && counterpart.Status == StatusPending {
		return IncomingRequest
	}
	return Unseen
}

// View is the caller's request/match lists derived from one snapshot of
// their likes collection. Both lists are newest first.
type View struct {
	Pending []InterestRecord
	Matched []InterestRecord
	// Skipped counts documents that could not be decoded.
	Skipped int
	Err     error
}

// DeriveView rebuilds the whole View from a snapshot. It holds no state, so
// duplicate or coalesced snapshots yield the same result.
func DeriveView(ownerID string, docs []docstore.Document) View {
	var v View
	for _, d := range docs {
		rec, err := recordFromDoc(ownerID, d)
		if err != nil {
			v.Skipped++
			continue
		}
		switch rec.Status {
		case StatusPending:
			v.Pending = append(v.Pending, rec)
		case StatusMatched:
			v.Matched = append(v.Matched, rec)
		}
	}
	newestFirst(v.Pending)
	newestFirst(v.Matched)
	return v
}

func newestFirst(recs []InterestRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Timestamp.Equal(recs[j].Timestamp) {
			return recs[i].Timestamp.After(recs[j].Timestamp)
		}
		return recs[i].TargetID < recs[j].TargetID
	})
}
