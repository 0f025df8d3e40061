package match

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/coolmes833/swapskills/internal/docstore"
)

// Status of one InterestRecord. It only ever moves pending -> matched.
type Status string

const (
	StatusPending Status = "pending"
	StatusMatched Status = "matched"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusMatched
}

// InterestRecord is one user's declared interest in another, stored at
// likes/{OwnerID}/users/{TargetID}.
type InterestRecord struct {
	OwnerID   string
	TargetID  string
	Status    Status
	Timestamp time.Time
}

const (
	fieldOwner     = "ownerId"
	fieldTarget    = "targetId"
	fieldStatus    = "status"
	fieldTimestamp = "timestamp"
)

// LikesCollection is the collection holding every record owned by ownerID.
func LikesCollection(ownerID string) string {
	return docstore.Path("likes", ownerID, "users")
}

// RevokedCollection holds revocation tombstones when revoked users are kept
// out of discovery.
func RevokedCollection(ownerID string) string {
	return docstore.Path("revoked", ownerID, "users")
}

// PairKey identifies an unordered pair of users: the two ids sorted and
// joined with "_". Chat threads and repair entries are keyed by it.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// ThreadID is the chat thread of a matched pair.
func ThreadID(a, b string) string { return PairKey(a, b) }

func (r InterestRecord) fields() docstore.Fields {
	return docstore.Fields{
		fieldOwner:     r.OwnerID,
		fieldTarget:    r.TargetID,
		fieldStatus:    string(r.Status),
		fieldTimestamp: r.Timestamp.UnixMilli(),
	}
}

// recordFromDoc decodes a document of LikesCollection(ownerID). The path is
// authoritative for owner and target; the stored copies are informational.
func recordFromDoc(ownerID string, d docstore.Document) (InterestRecord, error) {
	rec := InterestRecord{
		OwnerID:   ownerID,
		TargetID:  d.ID,
		Status:    Status(d.Fields.String(fieldStatus)),
		Timestamp: d.Fields.Time(fieldTimestamp),
	}
	if !rec.Status.Valid() {
		return InterestRecord{}, fmt.Errorf("record %s/%s: unknown status %q", d.Collection, d.ID, rec.Status)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = d.UpdatedAt
	}
	return rec, nil
}
