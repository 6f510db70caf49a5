package ledger

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/mohammed-seid/hfc-south-plant/internal/blobstore"
)

var (
	// ErrStoreUnavailable indicates the ledger object could not be read or
	// written for transport or auth reasons. The caller surfaces it to the
	// user; the operation is not retried here and local state is unchanged.
	ErrStoreUnavailable = errors.New("ledger: store unavailable")

	// ErrConflict indicates a concurrent writer advanced the ledger version
	// between our read and our write. Recovery is a fresh reload by the user;
	// automatic replay could double-append if the other writer already
	// persisted the same corrections.
	ErrConflict = errors.New("ledger: version conflict, reload and retry")

	// ErrIncompleteGroup indicates a per-group commit was requested while the
	// group still has incomplete drafts.
	ErrIncompleteGroup = errors.New("ledger: group has incomplete drafts")
)

// classifyStoreErr maps blob store failures onto the ledger error taxonomy.
// Not-found is never an error at this layer; callers treat an absent ledger
// as empty.
func classifyStoreErr(err error, action string) error {
	switch {
	case errors.Is(err, blobstore.ErrVersionConflict):
		return eris.Wrapf(ErrConflict, "%s: %v", action, err)
	default:
		return eris.Wrapf(ErrStoreUnavailable, "%s: %v", action, err)
	}
}
