package qdrant

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"ragchat/internal/domain"
)

type fakeCollections struct {
	qdrant.CollectionsClient
	existing []string
	deleted  []string
	created  []*qdrant.CreateCollection
}

func (f *fakeCollections) List(ctx context.Context, in *qdrant.ListCollectionsRequest, opts ...grpc.CallOption) (*qdrant.ListCollectionsResponse, error) {
	resp := &qdrant.ListCollectionsResponse{}
	for _, name := range f.existing {
		resp.Collections = append(resp.Collections, &qdrant.CollectionDescription{Name: name})
	}
	return resp, nil
}

func (f *fakeCollections) Delete(ctx context.Context, in *qdrant.DeleteCollection, opts ...grpc.CallOption) (*qdrant.CollectionOperationResponse, error) {
	f.deleted = append(f.deleted, in.CollectionName)
	return &qdrant.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollections) Create(ctx context.Context, in *qdrant.CreateCollection, opts ...grpc.CallOption) (*qdrant.CollectionOperationResponse, error) {
	f.created = append(f.created, in)
	return &qdrant.CollectionOperationResponse{Result: true}, nil
}

type fakePoints struct {
	qdrant.PointsClient
	upserts  []*qdrant.UpsertPoints
	searches []*qdrant.SearchPoints
	apiKeys  []string
	result   []*qdrant.ScoredPoint
}

func (f *fakePoints) Upsert(ctx context.Context, in *qdrant.UpsertPoints, opts ...grpc.CallOption) (*qdrant.PointsOperationResponse, error) {
	f.upserts = append(f.upserts, in)
	md, _ := metadata.FromOutgoingContext(ctx)
	f.apiKeys = append(f.apiKeys, md.Get("api-key")...)
	return &qdrant.PointsOperationResponse{}, nil
}

func (f *fakePoints) Search(ctx context.Context, in *qdrant.SearchPoints, opts ...grpc.CallOption) (*qdrant.SearchResponse, error) {
	f.searches = append(f.searches, in)
	return &qdrant.SearchResponse{Result: f.result}, nil
}

func TestStorage_AddRecreatesCollectionOnce(t *testing.T) {
	cols := &fakeCollections{existing: []string{"other", "knowledge"}}
	pts := &fakePoints{}
	s := newStorage(cols, pts, Config{Collection: "knowledge", APIKey: "secret"})
	ctx := context.Background()

	chunks := []domain.Chunk{{DocumentID: "d", ChunkID: "d:0", Text: "hello", Index: 0}}
	require.NoError(t, s.Add(ctx, chunks, [][]float32{{0.1, 0.2, 0.3}}))
	require.NoError(t, s.Add(ctx, chunks, [][]float32{{0.1, 0.2, 0.3}}))

	assert.Equal(t, []string{"knowledge"}, cols.deleted)
	require.Len(t, cols.created, 1)
	params := cols.created[0].GetVectorsConfig().GetParams()
	assert.Equal(t, uint64(3), params.GetSize())
	assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())

	require.Len(t, pts.upserts, 2)
	p := pts.upserts[0].Points[0]
	assert.Equal(t, pointID("d:0"), p.GetId().GetUuid())
	assert.Equal(t, "hello", p.GetPayload()["text"].GetStringValue())
	assert.Equal(t, []string{"secret", "secret"}, pts.apiKeys)
	assert.Equal(t, 2, s.Len())
}

func TestStorage_QueryMapsPayload(t *testing.T) {
	pts := &fakePoints{result: []*qdrant.ScoredPoint{{
		Score: 0.9,
		Payload: map[string]*qdrant.Value{
			"document_id": qdrant.NewValueString("d"),
			"chunk_id":    qdrant.NewValueString("d:4"),
			"index":       qdrant.NewValueInt(4),
			"text":        qdrant.NewValueString("Paris is the capital of France."),
		},
	}}}
	s := newStorage(&fakeCollections{}, pts, Config{Collection: "knowledge"})
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []domain.Chunk{{ChunkID: "d:4"}}, [][]float32{{1}}))

	res, err := s.Query(ctx, []float32{1}, 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, domain.Chunk{DocumentID: "d", ChunkID: "d:4", Index: 4, Text: "Paris is the capital of France."}, res[0].Chunk)
	assert.InDelta(t, 0.9, res[0].Score, 1e-6)
	assert.Equal(t, uint64(3), pts.searches[0].GetLimit())
}

func TestStorage_QueryBeforeAdd(t *testing.T) {
	pts := &fakePoints{}
	s := newStorage(&fakeCollections{}, pts, Config{Collection: "knowledge"})

	res, err := s.Query(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Empty(t, pts.searches)
}

func TestPointID_Stable(t *testing.T) {
	assert.Equal(t, pointID("a:1"), pointID("a:1"))
	assert.NotEqual(t, pointID("a:1"), pointID("a:2"))
}

func TestStorage_AddSkipsZeroVectors(t *testing.T) {
	cols := &fakeCollections{}
	pts := &fakePoints{}
	s := newStorage(cols, pts, Config{Collection: "knowledge"})
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ChunkID: "d:0", Text: "the and of"},
		{ChunkID: "d:1", Text: "Paris is the capital of France."},
	}
	require.NoError(t, s.Add(ctx, chunks, [][]float32{{0, 0}, {0.6, 0.8}}))

	require.Len(t, pts.upserts, 1)
	require.Len(t, pts.upserts[0].Points, 1)
	assert.Equal(t, pointID("d:1"), pts.upserts[0].Points[0].GetId().GetUuid())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, uint64(2), cols.created[0].GetVectorsConfig().GetParams().GetSize())
}

func TestStorage_AddOnlyZeroVectorsTouchesNothing(t *testing.T) {
	cols := &fakeCollections{}
	pts := &fakePoints{}
	s := newStorage(cols, pts, Config{Collection: "knowledge"})

	require.NoError(t, s.Add(context.Background(), []domain.Chunk{{ChunkID: "d:0"}}, [][]float32{{0, 0}}))
	assert.Empty(t, cols.created)
	assert.Empty(t, pts.upserts)
	assert.Zero(t, s.Len())
}
