package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type memDoc struct {
	source map[string]any
	seqNo  int64
}

// Memory is an in-process Store with the same observable behavior as Elastic:
// per-document versioning for conditional updates, an atomic counter upsert
// and a tokenized case-insensitive match query. It backs the tests and local
// runs without an Elasticsearch cluster.
type Memory struct {
	mu      sync.RWMutex
	indices map[string]map[string]*memDoc
	seq     int64
}

func NewMemory() *Memory {
	return &Memory{indices: make(map[string]map[string]*memDoc)}
}

func (m *Memory) IndexExists(_ context.Context, index string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.indices[index]
	return ok, nil
}

func (m *Memory) CreateIndex(_ context.Context, index string, _ json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.indices[index]; ok {
		return fmt.Errorf("index %s already exists", index)
	}
	m.indices[index] = make(map[string]*memDoc)

	return nil
}

// docs returns the named index, creating it on demand the way Elasticsearch
// auto-creates indices on first write. Callers must hold the write lock.
func (m *Memory) docs(index string) map[string]*memDoc {
	ds, ok := m.indices[index]
	if !ok {
		ds = make(map[string]*memDoc)
		m.indices[index] = ds
	}
	return ds
}

func (m *Memory) GetDocument(_ context.Context, index, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.indices[index][id]
	if !ok {
		return Document{}, ErrNotFound
	}

	return toDocument(id, d)
}

func (m *Memory) SearchMatch(_ context.Context, index, field string, value any) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for id, d := range m.indices[index] {
		if !matches(d.source[field], value) {
			continue
		}
		doc, err := toDocument(id, d)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	sortDocs(docs)

	return docs, nil
}

func (m *Memory) SearchAll(_ context.Context, index string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for id, d := range m.indices[index] {
		doc, err := toDocument(id, d)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
		if len(docs) == searchSize {
			break
		}
	}
	sortDocs(docs)

	return docs, nil
}

func (m *Memory) IndexDocument(_ context.Context, index, id string, body any) error {
	src, err := toMap(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.docs(index)[id] = &memDoc{source: src, seqNo: m.seq}

	return nil
}

func (m *Memory) UpdateDocument(_ context.Context, index, id string, partial any, v *Version) error {
	patch, err := toMap(partial)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.indices[index][id]
	if !ok {
		return ErrNotFound
	}
	if v != nil && v.SeqNo != d.seqNo {
		return ErrConflict
	}

	for k, val := range patch {
		d.source[k] = val
	}
	m.seq++
	d.seqNo = m.seq

	return nil
}

func (m *Memory) IncrementCounter(_ context.Context, index, id, field string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds := m.docs(index)

	d, ok := ds[id]
	if !ok {
		m.seq++
		ds[id] = &memDoc{
			source: map[string]any{field: json.Number("1")},
			seqNo:  m.seq,
		}
		return 1, nil
	}

	cur, err := toInt64(d.source[field])
	if err != nil {
		return 0, fmt.Errorf("counter field %s: %w", field, err)
	}

	cur++
	d.source[field] = json.Number(fmt.Sprint(cur))
	m.seq++
	d.seqNo = m.seq

	return cur, nil
}

func (m *Memory) DeleteDocument(_ context.Context, index, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.indices[index][id]; !ok {
		return ErrNotFound
	}
	delete(m.indices[index], id)

	return nil
}

func toMap(body any) (map[string]any, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var src map[string]any
	if err := dec.Decode(&src); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	return src, nil
}

func toDocument(id string, d *memDoc) (Document, error) {
	src, err := json.Marshal(d.source)
	if err != nil {
		return Document{}, fmt.Errorf("encode source: %w", err)
	}

	return Document{
		ID:      id,
		Source:  src,
		Version: Version{SeqNo: d.seqNo, PrimaryTerm: 1},
	}, nil
}

func toInt64(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("not a number: %v", v)
	}
	return n.Int64()
}

// matches emulates a match query: text fields hit when any analyzed token of
// the query equals a token of the field, other types compare by value.
func matches(field, value any) bool {
	fs, fieldIsString := field.(string)
	vs, valueIsString := value.(string)

	if fieldIsString && valueIsString {
		fieldTokens := strings.Fields(strings.ToLower(fs))
		for _, qt := range strings.Fields(strings.ToLower(vs)) {
			for _, ft := range fieldTokens {
				if qt == ft {
					return true
				}
			}
		}
		return false
	}

	return field != nil && fmt.Sprint(field) == fmt.Sprint(value)
}

func sortDocs(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}
