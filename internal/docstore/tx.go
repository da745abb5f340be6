package docstore

import (
	"context"
	"fmt"
)

type pendingWrite struct {
	path string
	data []byte
}

// txState is the bookkeeping shared by backend transactions: what was read
// (and at which version) and the buffered writes in first-write order.
type txState struct {
	fetch func(ctx context.Context, path string) (*Snapshot, error)

	reads  map[string]*Snapshot
	writes []pendingWrite
	index  map[string]int
}

func newTxState(fetch func(ctx context.Context, path string) (*Snapshot, error)) *txState {
	return &txState{
		fetch: fetch,
		reads: map[string]*Snapshot{},
		index: map[string]int{},
	}
}

func (t *txState) Get(ctx context.Context, path string) (*Snapshot, error) {
	if err := ValidateDocPath(path); err != nil {
		return nil, err
	}
	if len(t.writes) > 0 {
		return nil, ErrReadAfterWrite
	}
	return t.read(ctx, path)
}

func (t *txState) read(ctx context.Context, path string) (*Snapshot, error) {
	if s, ok := t.reads[path]; ok {
		return s, nil
	}
	s, err := t.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	t.reads[path] = s
	return s, nil
}

func (t *txState) Set(path string, data any) error {
	if err := ValidateDocPath(path); err != nil {
		return err
	}
	b, err := encodeObject(data)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	t.put(path, b)
	return nil
}

func (t *txState) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := ValidateDocPath(path); err != nil {
		return err
	}

	var base map[string]any
	if i, ok := t.index[path]; ok {
		m, err := decodeObject(t.writes[i].data)
		if err != nil {
			return err
		}
		base = m
	} else {
		s, err := t.read(ctx, path)
		if err != nil {
			return err
		}
		if !s.Exists {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		base = s.Data
	}

	b, err := merge(base, fields)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	t.put(path, b)
	return nil
}

func (t *txState) put(path string, b []byte) {
	if i, ok := t.index[path]; ok {
		t.writes[i].data = b
		return
	}
	t.index[path] = len(t.writes)
	t.writes = append(t.writes, pendingWrite{path: path, data: b})
}

// updateIn runs a single-document Update as its own transaction.
func updateIn(ctx context.Context, s Store, path string, fields map[string]any) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Update(ctx, path, fields)
	})
}
