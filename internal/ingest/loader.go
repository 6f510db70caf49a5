package ingest

import (
	"bytes"
	"context"
	"encoding/csv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mohammed-seid/hfc-south-plant/internal/blobstore"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

// Cache is the optional read-through cache for feed bytes. A cache failure is
// treated as a miss, never as a load failure.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, content []byte) error
}

// FeedSet holds both decoded error feeds.
type FeedSet struct {
	Constraints []model.ErrorRecord
	Logic       []model.ErrorRecord
}

// All returns both feeds as one slice, constraints first.
func (f *FeedSet) All() []model.ErrorRecord {
	out := make([]model.ErrorRecord, 0, len(f.Constraints)+len(f.Logic))
	out = append(out, f.Constraints...)
	out = append(out, f.Logic...)
	return out
}

// ForEnumerator returns the records attributed to the given enumerator,
// preserving feed order.
func (f *FeedSet) ForEnumerator(enumerator string) []model.ErrorRecord {
	var out []model.ErrorRecord
	for _, r := range f.All() {
		if r.Enumerator == enumerator {
			out = append(out, r)
		}
	}
	return out
}

// Loader fetches and decodes the two error feeds.
type Loader struct {
	store          blobstore.Client
	cache          Cache // nil disables caching
	constraintsKey string
	logicKey       string
}

// NewLoader returns a loader reading the named feed objects from store,
// optionally through cache.
func NewLoader(store blobstore.Client, cache Cache, constraintsKey, logicKey string) *Loader {
	return &Loader{store: store, cache: cache, constraintsKey: constraintsKey, logicKey: logicKey}
}

// Load fetches both feeds concurrently and decodes them. Feed objects are
// required: a missing feed is an error, unlike the ledger.
func (l *Loader) Load(ctx context.Context) (*FeedSet, error) {
	feeds := &FeedSet{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := l.loadFeed(gctx, l.constraintsKey, model.CategoryConstraint)
		if err != nil {
			return err
		}
		feeds.Constraints = records
		return nil
	})
	g.Go(func() error {
		records, err := l.loadFeed(gctx, l.logicKey, model.CategoryLogic)
		if err != nil {
			return err
		}
		feeds.Logic = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("feeds loaded",
		zap.Int("constraint_errors", len(feeds.Constraints)),
		zap.Int("logic_errors", len(feeds.Logic)),
	)
	return feeds, nil
}

func (l *Loader) loadFeed(ctx context.Context, key string, category model.ErrorCategory) ([]model.ErrorRecord, error) {
	content, err := l.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	records, err := decodeFeed(content, category)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: decode feed %s", key)
	}
	return records, nil
}

func (l *Loader) fetch(ctx context.Context, key string) ([]byte, error) {
	if l.cache != nil {
		content, ok, err := l.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("feed cache read failed, falling through to store",
				zap.String("key", key), zap.Error(err))
		} else if ok {
			return content, nil
		}
	}

	obj, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: fetch feed %s", key)
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, obj.Content); err != nil {
			zap.L().Warn("feed cache write failed",
				zap.String("key", key), zap.Error(err))
		}
	}
	return obj.Content, nil
}

// decodeFeed parses one feed CSV into typed records. Rows with an empty
// subject ID are dropped: without identity they cannot be deduplicated, so
// they never reach the ledger.
func decodeFeed(content []byte, category model.ErrorCategory) ([]model.ErrorRecord, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	subjectIdx, err := resolveSubjectColumn(header)
	if err != nil {
		return nil, err
	}

	variableIdx := columnIndex(header, "variable")
	valueIdx := columnIndex(header, "value")
	if variableIdx < 0 || valueIdx < 0 {
		return nil, eris.New("feed missing variable or value column")
	}

	cols := feedColumns{
		subject:    subjectIdx,
		variable:   variableIdx,
		value:      valueIdx,
		constraint: columnIndex(header, "constraint"),
		reference:  columnIndex(header, "Troster Value"),
		enumerator: columnIndex(header, "username"),
		supervisor: columnIndex(header, "supervisor"),
		woreda:     columnIndex(header, "woreda"),
		kebele:     columnIndex(header, "kebele"),
		farmerName: columnIndex(header, "farmer_name"),
		phone:      columnIndex(header, "phone_no"),
		subDate:    columnIndex(header, "subdate"),
	}

	var records []model.ErrorRecord
	for _, row := range rows[1:] {
		r := cols.record(row, category)
		if r.SubjectID == "" {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

type feedColumns struct {
	subject    int
	variable   int
	value      int
	constraint int
	reference  int
	enumerator int
	supervisor int
	woreda     int
	kebele     int
	farmerName int
	phone      int
	subDate    int
}

func (c feedColumns) record(row []string, category model.ErrorCategory) model.ErrorRecord {
	return model.ErrorRecord{
		Category:       category,
		SubjectID:      cell(row, c.subject),
		Variable:       cell(row, c.variable),
		ReportedValue:  cell(row, c.value),
		ConstraintRule: cell(row, c.constraint),
		ReferenceValue: cell(row, c.reference),
		Enumerator:     cell(row, c.enumerator),
		Supervisor:     cell(row, c.supervisor),
		Woreda:         cell(row, c.woreda),
		Kebele:         cell(row, c.kebele),
		FarmerName:     cell(row, c.farmerName),
		Phone:          cell(row, c.phone),
		SubmissionDate: cell(row, c.subDate),
	}
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
