package knowledge

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tencent/WeKnora/internal/models/embedding"
	"github.com/Tencent/WeKnora/internal/textproc"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

type stubParser struct{}

func (stubParser) Parse(r io.Reader, filename string, size int64) (string, error) {
	b, _ := io.ReadAll(r)
	return string(b), nil
}

type stubEmbedder struct{ calls int }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func (s *stubEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func (s *stubEmbedder) GetModelName() string { return "stub" }
func (s *stubEmbedder) GetDimensions() int   { return 3 }
func (s *stubEmbedder) GetModelID() string   { return "stub" }
func (s *stubEmbedder) BatchEmbedWithPool(ctx context.Context, model embedding.Embedder, texts []string) ([][]float32, error) {
	return model.BatchEmbed(ctx, texts)
}

type stubVectorStore struct {
	inserted []types.VectorSegment
	deleted  []string
}

func (s *stubVectorStore) Insert(ctx context.Context, segment types.VectorSegment) error {
	s.inserted = append(s.inserted, segment)
	return nil
}

func (s *stubVectorStore) InsertBatch(ctx context.Context, segments []types.VectorSegment) error {
	s.inserted = append(s.inserted, segments...)
	return nil
}

func (s *stubVectorStore) Search(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]interfaces.VectorMatch, error) {
	return nil, nil
}

func (s *stubVectorStore) DeleteByDocumentID(ctx context.Context, docID string) error {
	s.deleted = append(s.deleted, docID)
	return nil
}

func (s *stubVectorStore) Count(ctx context.Context) (int64, error) { return int64(len(s.inserted)), nil }

type stubRepo struct {
	byHash map[string]*types.KnowledgeDocument
	byID   map[string]*types.KnowledgeDocument
}

func newStubRepo() *stubRepo {
	return &stubRepo{byHash: map[string]*types.KnowledgeDocument{}, byID: map[string]*types.KnowledgeDocument{}}
}

func (r *stubRepo) Create(ctx context.Context, doc *types.KnowledgeDocument) error {
	r.byHash[doc.ContentHash] = doc
	r.byID[doc.ID] = doc
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, id string, tenantID uint64) (*types.KnowledgeDocument, error) {
	doc, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return doc, nil
}

func (r *stubRepo) GetByContentHash(ctx context.Context, contentHash string, tenantID uint64) (*types.KnowledgeDocument, error) {
	return r.byHash[contentHash], nil
}

func (r *stubRepo) List(ctx context.Context, tenantID uint64) ([]*types.KnowledgeDocument, error) {
	var out []*types.KnowledgeDocument
	for _, d := range r.byID {
		out = append(out, d)
	}
	return out, nil
}

func (r *stubRepo) Delete(ctx context.Context, id string, tenantID uint64) error {
	delete(r.byID, id)
	return nil
}

func newTestService(repo interfaces.KnowledgeDocumentRepository, embedder *stubEmbedder, store *stubVectorStore) *Service {
	chunker, err := textproc.New(1000, 100, 1000)
	if err != nil {
		panic(err)
	}
	return New(Config{
		Repo:        repo,
		Parser:      stubParser{},
		Chunker:     chunker,
		Embedder:    embedder,
		VectorStore: store,
	})
}

func TestIngest_NewDocumentIsChunkedAndIndexed(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{}
	store := &stubVectorStore{}
	svc := newTestService(repo, embedder, store)

	doc, err := svc.Ingest(context.Background(), 1, "合同法释义", "law.txt", 20, types.DocumentTypeLaw,
		bytes.NewBufferString("第一条 违约责任由违约方承担"))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "合同法释义", doc.Title)
	assert.NotEmpty(t, doc.ContentHash)
	assert.Equal(t, 1, embedder.calls)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, types.IndexSourceDocument, types.IndexSourceType(store.inserted[0].Metadata["sourceType"].(string)))
	assert.Equal(t, doc.ID, store.inserted[0].DocID)
}

func TestIngest_DuplicateContentIsDeduped(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{}
	store := &stubVectorStore{}
	svc := newTestService(repo, embedder, store)

	first, err := svc.Ingest(context.Background(), 1, "", "a.txt", 10, types.DocumentTypeLaw,
		bytes.NewBufferString("重复内容文本"))
	require.NoError(t, err)

	second, err := svc.Ingest(context.Background(), 1, "", "b.txt", 10, types.DocumentTypeLaw,
		bytes.NewBufferString("重复内容文本"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, embedder.calls, "the duplicate upload must not re-embed")
}

func TestIngest_EmptyExtractedTextIsRejected(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{}
	store := &stubVectorStore{}
	svc := newTestService(repo, embedder, store)

	_, err := svc.Ingest(context.Background(), 1, "", "blank.txt", 0, types.DocumentTypeLaw, bytes.NewBufferString("   "))
	assert.Error(t, err)
}

func TestDelete_RemovesRegistryRowAndVectors(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{}
	store := &stubVectorStore{}
	svc := newTestService(repo, embedder, store)

	doc, err := svc.Ingest(context.Background(), 1, "", "a.txt", 10, types.DocumentTypeLaw,
		bytes.NewBufferString("待删除的文档内容"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), doc.ID, 1))
	assert.Contains(t, store.deleted, doc.ID)

	got, err := svc.Get(context.Background(), doc.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}
