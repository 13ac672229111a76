package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
	getsafe "github.com/w-h-a/assistant/util/get_safe"
)

const scrollPage = 256

type qdrantStorer struct {
	options storer.Options
	client  *http.Client
}

func (s *qdrantStorer) Options() storer.Options {
	return s.options
}

func (s *qdrantStorer) Collections(ctx context.Context) ([]string, error) {
	var rsp qdrantEnvelope[qdrantCollections]

	if err := s.do(ctx, http.MethodGet, "/collections", nil, &rsp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rsp.Result.Collections))
	for _, c := range rsp.Result.Collections {
		names = append(names, c.Name)
	}

	return names, nil
}

func (s *qdrantStorer) CreateCollection(ctx context.Context) error {
	if s.options.VectorSize <= 0 {
		return errors.New("qdrant storer requires a vector size to create a collection")
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     s.options.VectorSize,
			"distance": "Cosine",
		},
	}

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(ctx, http.MethodPut, s.collectionPath(""), req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") {
		return fmt.Errorf("qdrant create collection: %s", rsp.Status.Error)
	}

	return nil
}

func (s *qdrantStorer) Upsert(ctx context.Context, rec storer.Record) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	metadata := map[string]any{}
	for k, v := range rec.Metadata {
		metadata[k] = v
	}

	point := map[string]any{
		"id":     pointId(rec.Id),
		"vector": rec.Embedding,
		"payload": map[string]any{
			"record_id":  rec.Id,
			"content":    rec.Content,
			"metadata":   metadata,
			"created_at": createdAt.Format(time.RFC3339Nano),
		},
	}

	req := map[string]any{
		"points": []map[string]any{point},
	}

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") && len(rsp.Status.Error) > 0 {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func (s *qdrantStorer) Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_vector":  true,
		"with_payload": true,
	}

	if len(filter) > 0 {
		must := make([]map[string]any, 0, len(filter))
		for k, v := range filter {
			if !storer.ValidFilterKey(k) {
				return nil, fmt.Errorf("invalid filter key %q", k)
			}
			must = append(must, map[string]any{
				"key":   "metadata." + k,
				"match": map[string]any{"value": v},
			})
		}
		req["filter"] = map[string]any{"must": must}
	}

	var rsp qdrantEnvelope[[]qdrantPointResult]

	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &rsp); err != nil {
		return nil, err
	}

	results := make([]storer.Record, 0, len(rsp.Result))

	for _, point := range rsp.Result {
		rec := toRecord(point)
		// cosine score is similarity
		rec.Distance = float32(1 - point.Score)
		results = append(results, rec)
	}

	return results, nil
}

func (s *qdrantStorer) Ids(ctx context.Context) ([]string, error) {
	var points []qdrantPointResult
	var offset any

	for {
		req := map[string]any{
			"limit":        scrollPage,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}

		var rsp qdrantEnvelope[qdrantScroll]

		if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/scroll"), req, &rsp); err != nil {
			return nil, err
		}

		points = append(points, rsp.Result.Points...)

		if rsp.Result.NextPageOffset == nil {
			break
		}

		offset = rsp.Result.NextPageOffset
	}

	records := make([]storer.Record, 0, len(points))
	for _, p := range points {
		records = append(records, toRecord(p))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Id)
	}

	return ids, nil
}

func (s *qdrantStorer) collectionPath(suffix string) string {
	return fmt.Sprintf("/collections/%s%s", url.PathEscape(s.options.Collection), suffix)
}

func (s *qdrantStorer) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.options.Location + path
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	if len(s.options.ApiKey) > 0 {
		request.Header.Set("api-key", s.options.ApiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func toRecord(point qdrantPointResult) storer.Record {
	payload := point.Payload

	return storer.Record{
		Id:        getsafe.String(payload, "record_id"),
		Content:   getsafe.String(payload, "content"),
		Metadata:  getsafe.Strings(payload, "metadata"),
		Embedding: point.Vector,
		CreatedAt: getsafe.Time(payload, "created_at"),
	}
}

// pointId maps a record id onto the uuid space qdrant accepts.
func pointId(recordId string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(recordId)).String()
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	if len(options.Location) == 0 || len(options.Collection) == 0 {
		panic("missing location or collection for qdrant storer")
	}

	options.Location = strings.TrimRight(options.Location, "/")

	client := &http.Client{
		Timeout: 15 * time.Second,
	}

	return &qdrantStorer{
		options: options,
		client:  client,
	}
}
