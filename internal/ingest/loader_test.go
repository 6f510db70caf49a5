package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-seid/hfc-south-plant/internal/blobstore"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

const (
	testConstraintsKey = "constraints_south.csv"
	testLogicKey       = "logic_south.csv"

	constraintsCSV = "unique_id,variable,value,constraint,username,supervisor,woreda,kebele,farmer_name,phone_no,subdate\n" +
		"F001,maize_kg,750,max 500,mesay,yonas,Sodo,Kebele1,Abebe,0911000001,01-Feb-26\n" +
		"F002,seedlings,12,between 20 and 100,degefu,yonas,Sodo,Kebele2,Kebede,0911000002,01-Feb-26\n" +
		",orphan_var,5,max 10,mesay,yonas,Sodo,Kebele1,NoID,0911000003,01-Feb-26\n"

	logicCSV = "unique_id,variable,value,Troster Value,username\n" +
		"F001,plot_count,3,5,mesay\n"
)

func seededLoader(cache Cache) *Loader {
	store := blobstore.NewMemory()
	store.Seed(testConstraintsKey, []byte(constraintsCSV))
	store.Seed(testLogicKey, []byte(logicCSV))
	return NewLoader(store, cache, testConstraintsKey, testLogicKey)
}

func TestLoaderLoad(t *testing.T) {
	t.Parallel()

	t.Run("decodes both feeds with categories", func(t *testing.T) {
		t.Parallel()
		feeds, err := seededLoader(nil).Load(context.Background())
		require.NoError(t, err)

		require.Len(t, feeds.Constraints, 2)
		require.Len(t, feeds.Logic, 1)

		c := feeds.Constraints[0]
		assert.Equal(t, model.CategoryConstraint, c.Category)
		assert.Equal(t, "F001", c.SubjectID)
		assert.Equal(t, "maize_kg", c.Variable)
		assert.Equal(t, "750", c.ReportedValue)
		assert.Equal(t, "max 500", c.ConstraintRule)
		assert.Equal(t, "mesay", c.Enumerator)
		assert.Equal(t, "Abebe", c.FarmerName)

		l := feeds.Logic[0]
		assert.Equal(t, model.CategoryLogic, l.Category)
		assert.Equal(t, "5", l.ReferenceValue)
	})

	t.Run("drops rows without a subject id", func(t *testing.T) {
		t.Parallel()
		feeds, err := seededLoader(nil).Load(context.Background())
		require.NoError(t, err)
		for _, r := range feeds.All() {
			assert.NotEmpty(t, r.SubjectID)
		}
	})

	t.Run("missing feed is an error", func(t *testing.T) {
		t.Parallel()
		store := blobstore.NewMemory()
		store.Seed(testConstraintsKey, []byte(constraintsCSV))
		l := NewLoader(store, nil, testConstraintsKey, testLogicKey)

		_, err := l.Load(context.Background())
		require.Error(t, err)
	})

	t.Run("feed without an id-like column fails", func(t *testing.T) {
		t.Parallel()
		store := blobstore.NewMemory()
		store.Seed(testConstraintsKey, []byte("name,variable,value\nAbebe,maize_kg,5\n"))
		store.Seed(testLogicKey, []byte(logicCSV))
		l := NewLoader(store, nil, testConstraintsKey, testLogicKey)

		_, err := l.Load(context.Background())
		assert.ErrorIs(t, err, ErrNoSubjectColumn)
	})
}

func TestFeedSetForEnumerator(t *testing.T) {
	t.Parallel()

	feeds, err := seededLoader(nil).Load(context.Background())
	require.NoError(t, err)

	mine := feeds.ForEnumerator("mesay")
	require.Len(t, mine, 2)
	assert.Equal(t, model.CategoryConstraint, mine[0].Category)
	assert.Equal(t, model.CategoryLogic, mine[1].Category)

	assert.Empty(t, feeds.ForEnumerator("nobody"))
}

// fakeCache counts calls; the loader hits it from concurrent feed loads.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	content, ok := f.entries[key]
	return content, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = content
	return nil
}

func (f *fakeCache) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func TestLoaderCache(t *testing.T) {
	t.Parallel()

	t.Run("miss populates, hit skips the store", func(t *testing.T) {
		t.Parallel()
		cache := newFakeCache()
		store := blobstore.NewMemory()
		store.Seed(testConstraintsKey, []byte(constraintsCSV))
		store.Seed(testLogicKey, []byte(logicCSV))
		l := NewLoader(store, cache, testConstraintsKey, testLogicKey)

		_, err := l.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, cache.setCount())

		// Second load is served from cache even if the store disappears.
		store.GetErr = errors.New("store offline")
		feeds, err := l.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, feeds.Constraints, 2)
		assert.Equal(t, 2, cache.setCount())
	})

	t.Run("cache errors fall through to the store", func(t *testing.T) {
		t.Parallel()
		cache := newFakeCache()
		cache.getErr = errors.New("disk full")
		cache.setErr = errors.New("disk full")
		l := seededLoader(cache)

		feeds, err := l.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, feeds.Constraints, 2)
	})
}

func TestResolveSubjectColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  []string
		want    int
		wantErr bool
	}{
		{"unique_id exact", []string{"variable", "unique_id", "value"}, 1, false},
		{"case insensitive alias", []string{"Unique_ID", "variable"}, 0, false},
		{"alias order beats position", []string{"farmer_id", "unique_id"}, 1, false},
		{"contains-id fallback", []string{"variable", "household_identifier"}, 1, false},
		{"no candidate", []string{"variable", "value", "name"}, 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			idx, err := resolveSubjectColumn(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoSubjectColumn)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, idx)
		})
	}
}
