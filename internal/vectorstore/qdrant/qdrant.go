package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"ragchat/internal/domain"
)

// Storage keeps chunk vectors in a Qdrant collection over gRPC.
// The collection is dropped and recreated on the first Add so that each
// process indexes exactly the current knowledge file.
type Storage struct {
	collections qdrant.CollectionsClient
	points      qdrant.PointsClient
	conn        *grpc.ClientConn
	collection  string
	apiKey      string
	count       int
	ready       bool
}

// Config contains connection details for Qdrant's gRPC port.
type Config struct {
	Host       string
	Port       int
	Collection string
	APIKey     string
}

// NewStorage connects to Qdrant. The connection is established lazily.
func NewStorage(cfg Config) (*Storage, error) {
	conn, err := grpc.NewClient(
		fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	s := newStorage(qdrant.NewCollectionsClient(conn), qdrant.NewPointsClient(conn), cfg)
	s.conn = conn
	return s, nil
}

func newStorage(collections qdrant.CollectionsClient, points qdrant.PointsClient, cfg Config) *Storage {
	return &Storage{
		collections: collections,
		points:      points,
		collection:  cfg.Collection,
		apiKey:      cfg.APIKey,
	}
}

func (s *Storage) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	dimension := 0
	for i, ch := range chunks {
		if isZero(vectors[i]) {
			// no direction, so cosine similarity is undefined
			log.Printf("qdrant: skipping chunk %s with zero embedding", ch.ChunkID)
			continue
		}
		dimension = len(vectors[i])
		points = append(points, &qdrant.PointStruct{
			Id: &qdrant.PointId{
				PointIdOptions: &qdrant.PointId_Uuid{Uuid: pointID(ch.ChunkID)},
			},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{Data: vectors[i]},
				},
			},
			Payload: map[string]*qdrant.Value{
				"document_id": qdrant.NewValueString(ch.DocumentID),
				"chunk_id":    qdrant.NewValueString(ch.ChunkID),
				"index":       qdrant.NewValueInt(int64(ch.Index)),
				"text":        qdrant.NewValueString(ch.Text),
			},
		})
	}
	if len(points) == 0 {
		return nil
	}

	ctx = s.withAuth(ctx)
	if !s.ready {
		if err := s.recreate(ctx, dimension); err != nil {
			return err
		}
		s.ready = true
	}

	wait := true
	if _, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	s.count += len(points)
	return nil
}

func (s *Storage) Query(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	if s.count == 0 {
		return nil, nil
	}
	resp, err := s.points.Search(s.withAuth(ctx), &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		payload := p.GetPayload()
		results = append(results, domain.SearchResult{
			Chunk: domain.Chunk{
				DocumentID: payload["document_id"].GetStringValue(),
				ChunkID:    payload["chunk_id"].GetStringValue(),
				Index:      int(payload["index"].GetIntegerValue()),
				Text:       payload["text"].GetStringValue(),
			},
			Score: float64(p.GetScore()),
		})
	}
	return results, nil
}

func (s *Storage) Len() int { return s.count }

func (s *Storage) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Storage) recreate(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	list, err := s.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			log.Printf("qdrant: dropping stale collection %q", s.collection)
			if _, err := s.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: s.collection}); err != nil {
				return fmt.Errorf("failed to drop collection %s: %w", s.collection, err)
			}
			break
		}
	}
	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	log.Printf("qdrant: created collection %q (size %d)", s.collection, dimension)
	return nil
}

func (s *Storage) withAuth(ctx context.Context) context.Context {
	if s.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
}

// pointID maps a chunk id onto the stable UUID Qdrant requires.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("ragchat:"+chunkID)).String()
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
