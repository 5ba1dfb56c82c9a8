package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

// Client implements the vector index over Qdrant's HTTP API. Upserts and
// deletes are issued with wait=true so a completed mutation is visible to
// every subsequent search; readers never observe a half-deleted document.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	// seq orders entries by insertion so equal-score search hits rank
	// deterministically, earliest first. Values stay below 2^53 so they
	// survive the JSON number round trip exactly.
	seq atomic.Int64

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	c.seq.Store(time.Now().UnixMicro())
	return c
}

func (c *Client) IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		payload := map[string]any{
			"text":         chunk.Text,
			"source_title": chunk.SourceTitle,
			"source_url":   chunk.SourceURL,
			"chunk_index":  chunk.Index,
			"seq":          c.seq.Add(1),
		}
		if chunk.OwnerID != 0 {
			payload["owner_id"] = chunk.OwnerID
		}
		if chunk.DocumentID != 0 {
			payload["document_id"] = chunk.DocumentID
		}
		points = append(points, point{
			ID:      uuid.NewString(),
			Vector:  vectors[i],
			Payload: payload,
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
	return c.call(ctx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert")
}

func (c *Client) Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		k = 4
	}

	request := map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": true,
	}

	var response struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	err := c.call(ctx, http.MethodPost, path, request, &response, "search")
	if err != nil {
		var statusErr *httpStatusError
		// A cleared or never-created collection is an empty corpus, not a
		// failure.
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	type scored struct {
		chunk domain.RetrievedChunk
		seq   int64
	}
	hits := make([]scored, 0, len(response.Result))
	for _, r := range response.Result {
		hits = append(hits, scored{
			chunk: domain.RetrievedChunk{
				Chunk: domain.Chunk{
					Text:        payloadString(r.Payload, "text"),
					SourceTitle: payloadString(r.Payload, "source_title"),
					SourceURL:   payloadString(r.Payload, "source_url"),
					OwnerID:     payloadInt(r.Payload, "owner_id"),
					DocumentID:  payloadInt(r.Payload, "document_id"),
					Index:       int(payloadInt(r.Payload, "chunk_index")),
				},
				Score: r.Score,
			},
			seq: payloadInt(r.Payload, "seq"),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].chunk.Score != hits[j].chunk.Score {
			return hits[i].chunk.Score > hits[j].chunk.Score
		}
		return hits[i].seq < hits[j].seq
	})

	out := make([]domain.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.chunk)
	}
	return out, nil
}

// Delete removes every entry matching ALL of the filter's equality
// conditions. Each condition is its own must clause; the conjunction is
// explicit, never a merged filter fragment. Returns false, without error,
// when nothing matched.
func (c *Client) Delete(ctx context.Context, filter domain.MetadataFilter) (bool, error) {
	if len(filter.Conditions) == 0 {
		return false, fmt.Errorf("delete requires at least one filter condition")
	}

	must := make([]map[string]any, 0, len(filter.Conditions))
	for _, cond := range filter.Conditions {
		must = append(must, map[string]any{
			"key":   cond.Field,
			"match": map[string]any{"value": cond.Value},
		})
	}
	wireFilter := map[string]any{"must": must}

	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	countPath := fmt.Sprintf("/collections/%s/points/count", c.collection)
	err := c.call(ctx, http.MethodPost, countPath, map[string]any{"filter": wireFilter, "exact": true}, &countResp, "count")
	if err != nil {
		var statusErr *httpStatusError
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	if countResp.Result.Count == 0 {
		return false, nil
	}

	deletePath := fmt.Sprintf("/collections/%s/points/delete?wait=true", c.collection)
	if err := c.call(ctx, http.MethodPost, deletePath, map[string]any{"filter": wireFilter}, nil, "delete"); err != nil {
		return false, err
	}
	return true, nil
}

// Clear drops the whole collection. The next IndexChunks recreates it empty;
// searches in between see an empty corpus.
func (c *Client) Clear(ctx context.Context) (bool, error) {
	path := fmt.Sprintf("/collections/%s", c.collection)
	err := c.call(ctx, http.MethodDelete, path, nil, nil, "drop collection")
	if err != nil {
		var statusErr *httpStatusError
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}

	c.ensureMu.Lock()
	c.ensuredCollection = false
	c.ensuredVectorSize = 0
	c.ensureMu.Unlock()
	return true, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	request := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	path := fmt.Sprintf("/collections/%s", c.collection)
	err := c.call(ctx, http.MethodPut, path, request, nil, "ensure collection")
	if err != nil {
		var statusErr *httpStatusError
		// 409: the collection already exists.
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			c.markEnsured(vectorSize)
			return nil
		}
		return err
	}
	c.markEnsured(vectorSize)
	return nil
}

func (c *Client) markEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return nil
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadInt(payload map[string]any, key string) int64 {
	switch v := payload[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}
