package searchindex

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"mailflow-backend/pkg/fuzzy"

	"github.com/google/uuid"
)

// EmbeddingDim is the fixed embedding vector length of the index schema.
const EmbeddingDim = 1536

// DefaultLimit caps result sets when the caller does not ask for a size.
const DefaultLimit = 10

// MinSimilarity is the cosine-similarity floor for hybrid search.
const MinSimilarity = 0.80

// Document is one indexed email. The index is derived state: it is always
// rebuildable from the relational store and never authoritative.
type Document struct {
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	RawBody   string    `json:"rawBody"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	SentAt    string    `json:"sentAt"`
	ThreadID  string    `json:"threadId"`
	Embedding []float32 `json:"embeddings,omitempty"`
}

// Hit is one search result.
type Hit struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Document Document `json:"document"`
}

type persistedDoc struct {
	ID       string   `json:"id"`
	Document Document `json:"document"`
}

type persistedIndex struct {
	Version int            `json:"version"`
	Docs    []persistedDoc `json:"docs"`
}

// Index is an in-memory per-account search index over email documents,
// supporting lexical term search with typo tolerance and hybrid
// lexical+vector search. It round-trips through Serialize/Restore; callers
// persist the blob after every mutation.
type Index struct {
	mu   sync.RWMutex
	ids  []string
	docs map[string]Document
}

// New creates an empty index.
func New() *Index {
	return &Index{docs: make(map[string]Document)}
}

// Restore rebuilds an index from a serialized blob.
func Restore(blob []byte) (*Index, error) {
	var p persistedIndex
	if err := json.Unmarshal(blob, &p); err != nil {
		return nil, fmt.Errorf("failed to restore search index: %w", err)
	}

	idx := New()
	for _, d := range p.Docs {
		idx.ids = append(idx.ids, d.ID)
		idx.docs[d.ID] = d.Document
	}
	return idx, nil
}

// Serialize renders the whole index as a blob suitable for Restore.
func (idx *Index) Serialize() ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	p := persistedIndex{Version: 1, Docs: make([]persistedDoc, 0, len(idx.ids))}
	for _, id := range idx.ids {
		p.Docs = append(p.Docs, persistedDoc{ID: id, Document: idx.docs[id]})
	}
	return json.Marshal(p)
}

// Insert adds a document and returns its generated id. Embeddings, when
// present, must match the schema dimension.
func (idx *Index) Insert(doc Document) (string, error) {
	if len(doc.Embedding) != 0 && len(doc.Embedding) != EmbeddingDim {
		return "", fmt.Errorf("embedding has %d dimensions, schema requires %d", len(doc.Embedding), EmbeddingDim)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	id := uuid.New().String()
	idx.ids = append(idx.ids, id)
	idx.docs[id] = doc
	return id, nil
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Search performs a lexical term search across subject, body, rawBody, from,
// to and threadId. limit <= 0 uses the default cap.
func (idx *Index) Search(term string, limit int) []Hit {
	if limit <= 0 {
		limit = DefaultLimit
	}

	queryTokens := fuzzy.Tokenize(term)
	if len(queryTokens) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []Hit
	for _, id := range idx.ids {
		doc := idx.docs[id]
		if score := lexicalScore(queryTokens, doc); score > 0 {
			hits = append(hits, Hit{ID: id, Score: score, Document: doc})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// VectorSearch is a hybrid search: lexical term matching combined with
// cosine similarity against the query embedding. Vector hits below the
// similarity floor contribute nothing, so a document must either match
// lexically or be at least MinSimilarity-close to appear.
func (idx *Index) VectorSearch(term string, embedding []float32, limit int) []Hit {
	if limit <= 0 {
		limit = DefaultLimit
	}

	queryTokens := fuzzy.Tokenize(term)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []Hit
	for _, id := range idx.ids {
		doc := idx.docs[id]

		lexical := lexicalScore(queryTokens, doc)
		similarity := 0.0
		if len(doc.Embedding) == len(embedding) && len(embedding) > 0 {
			similarity = cosineSimilarity(embedding, doc.Embedding)
		}
		if similarity < MinSimilarity {
			similarity = 0
		}
		if lexical == 0 && similarity == 0 {
			continue
		}

		// Equal-weight blend; lexical scores are already normalized per
		// query token, cosine is in [0,1] for unit-ish embeddings.
		score := 0.5*lexical + 0.5*similarity
		hits = append(hits, Hit{ID: id, Score: score, Document: doc})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// lexicalScore averages the best field-token score per query token. A query
// token that matches nothing zeroes nothing; only fully unmatched queries
// score zero overall.
func lexicalScore(queryTokens []string, doc Document) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	fields := make([]string, 0, 6+len(doc.To))
	fields = append(fields, doc.Subject, doc.Body, doc.RawBody, doc.From, doc.SentAt, doc.ThreadID)
	fields = append(fields, doc.To...)

	total := 0.0
	for _, q := range queryTokens {
		best := 0.0
		for _, field := range fields {
			for _, token := range fuzzy.Tokenize(field) {
				if s := fuzzy.TokenScore(q, token); s > best {
					best = s
				}
			}
		}
		total += best
	}
	return total / float64(len(queryTokens))
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
