package ledger

import (
	"context"
	"errors"

	"github.com/mohammed-seid/hfc-south-plant/internal/blobstore"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

// Reader loads the committed state of the correction ledger.
type Reader struct {
	store blobstore.Client
	key   string
}

// NewReader returns a reader over the ledger object at key.
func NewReader(store blobstore.Client, key string) *Reader {
	return &Reader{store: store, key: key}
}

// Load fetches and decodes every committed correction together with the
// ledger's current version. An absent ledger is a valid initial state: empty
// records, VersionAbsent, no error. Transport failures surface as
// ErrStoreUnavailable and are never flattened into an empty result, which
// would re-surface already-fixed errors.
func (r *Reader) Load(ctx context.Context) ([]model.CorrectionRecord, blobstore.Version, error) {
	obj, err := r.store.Get(ctx, r.key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, blobstore.VersionAbsent, nil
	}
	if err != nil {
		return nil, blobstore.VersionAbsent, classifyStoreErr(err, "read ledger")
	}

	records, err := decodeRecords(obj.Content)
	if err != nil {
		return nil, blobstore.VersionAbsent, err
	}
	return records, obj.Version, nil
}

// LoadResolvedKeys returns the set of error keys already corrected by the
// given enumerator, derived from the stored record fields with the same
// identity function as DeriveKey.
func (r *Reader) LoadResolvedKeys(ctx context.Context, enumerator string) (model.KeySet, blobstore.Version, error) {
	records, version, err := r.Load(ctx)
	if err != nil {
		return nil, blobstore.VersionAbsent, err
	}

	resolved := make(model.KeySet)
	for _, rec := range records {
		if rec.CorrectedBy != enumerator {
			continue
		}
		resolved.Add(rec.Key())
	}
	return resolved, version, nil
}
