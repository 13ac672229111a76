package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
	getsafe "github.com/w-h-a/assistant/util/get_safe"
)

const (
	indexSuffix = "_embedding"
	metaPrefix  = "meta_"
)

type neo4jStorer struct {
	options storer.Options
	driver  neo4j.DriverWithContext
}

func (s *neo4jStorer) Options() storer.Options {
	return s.options
}

func (s *neo4jStorer) Collections(ctx context.Context) ([]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `SHOW VECTOR INDEXES YIELD name RETURN name`, nil)
	if err != nil {
		return nil, err
	}

	var names []string
	for result.Next(ctx) {
		name, _ := result.Record().Get("name")
		if str, ok := name.(string); ok && strings.HasSuffix(str, indexSuffix) {
			names = append(names, strings.TrimSuffix(str, indexSuffix))
		}
	}

	if err := result.Err(); err != nil {
		return nil, err
	}

	sort.Strings(names)

	return names, nil
}

func (s *neo4jStorer) CreateCollection(ctx context.Context) error {
	if s.options.VectorSize <= 0 {
		return fmt.Errorf("neo4j storer requires a vector size to create a collection")
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	vectorQuery := fmt.Sprintf(
		"CREATE VECTOR INDEX %s "+
			"FOR (m:%s) ON (m.embedding) "+
			"OPTIONS {indexConfig: {"+
			" `vector.dimensions`: %d,"+
			" `vector.similarity_function`: 'cosine'"+
			"}}",
		indexName(s.options.Collection), s.options.Collection, s.options.VectorSize,
	)

	if _, err := session.Run(ctx, vectorQuery, nil); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	constraintQuery := fmt.Sprintf(
		"CREATE CONSTRAINT %s_id_unique IF NOT EXISTS FOR (m:%s) REQUIRE m.id IS UNIQUE",
		s.options.Collection, s.options.Collection,
	)

	if _, err := session.Run(ctx, constraintQuery, nil); err != nil {
		return fmt.Errorf("failed to create unique constraint: %w", err)
	}

	return nil
}

func (s *neo4jStorer) Upsert(ctx context.Context, rec storer.Record) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	jsonMeta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	props := map[string]any{}
	for k, v := range rec.Metadata {
		if storer.ValidFilterKey(k) {
			props[metaPrefix+k] = v
		}
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		createNode := fmt.Sprintf(`
			MERGE (m:%s {id: $id})
			SET m.content = $content,
				m.metadata = $metadata,
				m.created_at = $createdAt,
				m.embedding = $embedding,
				m += $props
		`, s.options.Collection)

		params := map[string]any{
			"id":        rec.Id,
			"content":   rec.Content,
			"metadata":  string(jsonMeta),
			"createdAt": createdAt.Format(time.RFC3339Nano),
			"embedding": rec.Embedding,
			"props":     props,
		}

		return tx.Run(ctx, createNode, params)
	})

	return err
}

func (s *neo4jStorer) Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	where, params, err := filterClause(filter)
	if err != nil {
		return nil, err
	}

	k := limit
	if len(filter) > 0 {
		k = limit * 4
	}

	params["index"] = indexName(s.options.Collection)
	params["k"] = k
	params["vec"] = vector
	params["finalLimit"] = limit

	query := fmt.Sprintf(`
		CALL db.index.vector.queryNodes($index, $k, $vec)
		YIELD node, score
		%s
		RETURN node, score
		ORDER BY score DESC
		LIMIT $finalLimit
	`, where)

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	var records []storer.Record
	for result.Next(ctx) {
		records = append(records, toRecord(result.Record()))
	}

	if err := result.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *neo4jStorer) Ids(ctx context.Context) ([]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := fmt.Sprintf(`MATCH (m:%s) RETURN m.id AS id ORDER BY m.created_at, m.id`, s.options.Collection)

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	var ids []string
	for result.Next(ctx) {
		id, _ := result.Record().Get("id")
		if str, ok := id.(string); ok {
			ids = append(ids, str)
		}
	}

	if err := result.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func toRecord(r *neo4j.Record) storer.Record {
	nodeVal, _ := r.Get("node")

	node := neo4j.Node{}
	if n, ok := nodeVal.(neo4j.Node); ok {
		node = n
	}

	props := node.Props

	meta := map[string]string{}
	if str, ok := props["metadata"].(string); ok {
		json.Unmarshal([]byte(str), &meta)
	}

	var score float64
	if v, ok := r.Get("score"); ok {
		score, _ = v.(float64)
	}

	return storer.Record{
		Id:        getsafe.String(props, "id"),
		Content:   getsafe.String(props, "content"),
		Metadata:  meta,
		Embedding: embeddingFrom(props["embedding"]),
		Distance:  scoreToDistance(score),
		CreatedAt: getsafe.Time(props, "created_at"),
	}
}

func embeddingFrom(v any) []float32 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(raw))
	for _, x := range raw {
		if f, ok := x.(float64); ok {
			out = append(out, float32(f))
		}
	}
	return out
}

// scoreToDistance converts the index's normalized cosine score, (1+cos)/2,
// into 1 - cos.
func scoreToDistance(score float64) float32 {
	return float32(2 - 2*score)
}

func indexName(collection string) string {
	return collection + indexSuffix
}

func filterClause(filter map[string]string) (string, map[string]any, error) {
	params := map[string]any{}
	if len(filter) == 0 {
		return "", params, nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		if !storer.ValidFilterKey(k) {
			return "", nil, fmt.Errorf("invalid filter key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	for i, k := range keys {
		param := fmt.Sprintf("f%d", i)
		conds = append(conds, fmt.Sprintf("node.%s%s = $%s", metaPrefix, k, param))
		params[param] = filter[k]
	}

	return "WHERE " + strings.Join(conds, " AND "), params, nil
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	if !storer.ValidFilterKey(options.Collection) {
		panic("neo4j storer collection must be a valid label")
	}

	s := &neo4jStorer{
		options: options,
	}

	auth := neo4j.NoAuth()
	if creds, ok := basicAuthFrom(options.Context); ok {
		auth = neo4j.BasicAuth(creds.username, creds.password, "")
	}

	driver, err := neo4j.NewDriverWithContext(s.options.Location, auth)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		panic(err)
	}

	s.driver = driver

	return s
}
