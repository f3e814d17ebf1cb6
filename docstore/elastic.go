package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// searchSize caps match_all/match results. The catalog is assumed small and
// pagination is not supported.
const searchSize = 1000

// Elastic is the Store implementation backed by an Elasticsearch cluster.
// Writes are refreshed so that subsequent searches observe them.
type Elastic struct {
	es *elasticsearch.Client
}

func NewElastic(addr, username, password string) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &Elastic{es: es}, nil
}

func (e *Elastic) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, e.es)
	if err != nil {
		return false, fmt.Errorf("head index: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, apiError(res)
	}
}

func (e *Elastic) CreateIndex(ctx context.Context, index string, mapping json.RawMessage) error {
	res, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader(mapping),
	}.Do(ctx, e.es)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apiError(res)
	}

	return nil
}

func (e *Elastic) GetDocument(ctx context.Context, index, id string) (Document, error) {
	res, err := esapi.GetRequest{Index: index, DocumentID: id}.Do(ctx, e.es)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return Document{}, ErrNotFound
	}
	if res.IsError() {
		return Document{}, apiError(res)
	}

	var body struct {
		ID          string          `json:"_id"`
		SeqNo       int64           `json:"_seq_no"`
		PrimaryTerm int64           `json:"_primary_term"`
		Source      json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Document{}, fmt.Errorf("decode get response: %w", err)
	}

	return Document{
		ID:      body.ID,
		Source:  body.Source,
		Version: Version{SeqNo: body.SeqNo, PrimaryTerm: body.PrimaryTerm},
	}, nil
}

func (e *Elastic) SearchMatch(ctx context.Context, index, field string, value any) ([]Document, error) {
	return e.search(ctx, index, map[string]any{
		"query":               map[string]any{"match": map[string]any{field: value}},
		"seq_no_primary_term": true,
		"size":                searchSize,
	})
}

func (e *Elastic) SearchAll(ctx context.Context, index string) ([]Document, error) {
	return e.search(ctx, index, map[string]any{
		"query":               map[string]any{"match_all": map[string]any{}},
		"seq_no_primary_term": true,
		"size":                searchSize,
	})
}

func (e *Elastic) search(ctx context.Context, index string, query map[string]any) ([]Document, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, e.es)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apiError(res)
	}

	var sr struct {
		Hits struct {
			Hits []struct {
				ID          string          `json:"_id"`
				SeqNo       int64           `json:"_seq_no"`
				PrimaryTerm int64           `json:"_primary_term"`
				Source      json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]Document, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		docs = append(docs, Document{
			ID:      h.ID,
			Source:  h.Source,
			Version: Version{SeqNo: h.SeqNo, PrimaryTerm: h.PrimaryTerm},
		})
	}

	return docs, nil
}

func (e *Elastic) IndexDocument(ctx context.Context, index, id string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(b),
		Refresh:    "true",
	}.Do(ctx, e.es)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apiError(res)
	}

	return nil
}

func (e *Elastic) UpdateDocument(ctx context.Context, index, id string, partial any, v *Version) error {
	b, err := json.Marshal(map[string]any{"doc": partial})
	if err != nil {
		return fmt.Errorf("encode partial document: %w", err)
	}

	req := esapi.UpdateRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(b),
		Refresh:    "true",
	}
	if v != nil {
		req.IfSeqNo = esapi.IntPtr(int(v.SeqNo))
		req.IfPrimaryTerm = esapi.IntPtr(int(v.PrimaryTerm))
	}

	res, err := req.Do(ctx, e.es)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	if res.IsError() {
		return apiError(res)
	}

	return nil
}

func (e *Elastic) IncrementCounter(ctx context.Context, index, id, field string) (int64, error) {
	b, err := json.Marshal(map[string]any{
		"script": map[string]any{
			"source": fmt.Sprintf("ctx._source.%s += 1", field),
			"lang":   "painless",
		},
		"upsert": map[string]any{field: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("encode increment script: %w", err)
	}

	res, err := esapi.UpdateRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(b),
		Refresh:    "true",
		Source:     []string{"true"},
	}.Do(ctx, e.es)
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, apiError(res)
	}

	var ur struct {
		Get struct {
			Source map[string]json.Number `json:"_source"`
		} `json:"get"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ur); err != nil {
		return 0, fmt.Errorf("decode increment response: %w", err)
	}

	n, err := ur.Get.Source[field].Int64()
	if err != nil {
		return 0, fmt.Errorf("parse counter value: %w", err)
	}

	return n, nil
}

func (e *Elastic) DeleteDocument(ctx context.Context, index, id string) error {
	res, err := esapi.DeleteRequest{
		Index:      index,
		DocumentID: id,
		Refresh:    "true",
	}.Do(ctx, e.es)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		return apiError(res)
	}

	return nil
}

func apiError(res *esapi.Response) error {
	body, err := io.ReadAll(io.LimitReader(res.Body, 512))
	if err != nil || len(body) == 0 {
		return fmt.Errorf("elasticsearch: %s", res.Status())
	}

	return fmt.Errorf("elasticsearch: %s: %s", res.Status(), bytes.TrimSpace(body))
}
