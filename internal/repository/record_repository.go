package repository

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one schemaless JSON object. The "id" field is its key.
type Record map[string]any

// ID returns the record's id as a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// ListParams selects a page of records. Filters match fields exactly by
// their string form.
type ListParams struct {
	Offset  int
	Limit   int
	Filters map[string]string
}

// RecordRepository stores named collections of records.
type RecordRepository interface {
	List(ctx context.Context, collection string, params ListParams) ([]Record, int, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	Create(ctx context.Context, collection string, rec Record) (Record, error)
	Update(ctx context.Context, collection, id string, patch Record) (Record, error)
	Delete(ctx context.Context, collection, id string) error
}

type recordCollection struct {
	order []string
	items map[string]Record
}

type recordRepository struct {
	mu          sync.RWMutex
	collections map[string]*recordCollection
	now         func() time.Time
}

// NewRecordRepository returns an in-memory repository with the named,
// initially empty collections.
func NewRecordRepository(names ...string) RecordRepository {
	r := &recordRepository{collections: make(map[string]*recordCollection, len(names)), now: time.Now}
	for _, name := range names {
		r.collections[name] = &recordCollection{items: make(map[string]Record)}
	}
	return r
}

func (r *recordRepository) List(_ context.Context, collection string, params ListParams) ([]Record, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, err := r.collection(collection)
	if err != nil {
		return nil, 0, err
	}

	var matched []Record
	for _, id := range c.order {
		rec := c.items[id]
		if matches(rec, params.Filters) {
			matched = append(matched, rec)
		}
	}

	total := len(matched)
	start := min(max(params.Offset, 0), total)
	end := total
	if params.Limit > 0 {
		end = min(start+params.Limit, total)
	}

	out := make([]Record, 0, end-start)
	for _, rec := range matched[start:end] {
		out = append(out, maps.Clone(rec))
	}
	return out, total, nil
}

func (r *recordRepository) Get(_ context.Context, collection, id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, err := r.collection(collection)
	if err != nil {
		return nil, err
	}
	rec, ok := c.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(rec), nil
}

func (r *recordRepository) Create(_ context.Context, collection string, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.collection(collection)
	if err != nil {
		return nil, err
	}

	rec = maps.Clone(rec)
	if rec == nil {
		rec = Record{}
	}
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}
	if _, exists := c.items[id]; exists {
		return nil, ErrConflict
	}
	stamp := r.now().UTC().Format(time.RFC3339)
	if _, ok := rec["created_at"]; !ok {
		rec["created_at"] = stamp
	}
	rec["updated_at"] = stamp

	c.items[id] = rec
	c.order = append(c.order, id)
	return maps.Clone(rec), nil
}

func (r *recordRepository) Update(_ context.Context, collection, id string, patch Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.collection(collection)
	if err != nil {
		return nil, err
	}
	rec, ok := c.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range patch {
		if k == "id" || k == "created_at" {
			continue
		}
		rec[k] = v
	}
	rec["updated_at"] = r.now().UTC().Format(time.RFC3339)
	return maps.Clone(rec), nil
}

func (r *recordRepository) Delete(_ context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.collection(collection)
	if err != nil {
		return err
	}
	if _, ok := c.items[id]; !ok {
		return ErrNotFound
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *recordRepository) collection(name string) (*recordCollection, error) {
	c, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, nil
}

func matches(rec Record, filters map[string]string) bool {
	for field, want := range filters {
		v, ok := rec[field]
		if !ok || v == nil || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}
