package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/agent"
	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

const (
	TierThread = "thread"
	TierSpace  = "space"
	TierUser   = "user"
	TierGlobal = "global"

	// Conversation-specific material should dominate ranking even when a
	// space-level document is a closer raw match.
	threadTierBoost = 1.5

	excerptMaxLen = 480
)

// Embedder turns text into fixed-dimension vectors. Implemented by the AI
// client, optionally behind the redis cache.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// RankedExcerpt is one retrieval hit: raw similarity, boosted relevance and
// the tier that produced it.
type RankedExcerpt struct {
	DocumentID uuid.UUID `json:"document_id"`
	Name       string    `json:"name"`
	Excerpt    string    `json:"excerpt"`
	Similarity float64   `json:"similarity"`
	Relevance  float64   `json:"relevance"`
	Tier       string    `json:"tier"`
}

// RetrievalService is the tiered semantic search over documents. Results are
// recomputed per call; there is no pagination cursor.
type RetrievalService interface {
	Search(ctx context.Context, query string, limit int, scope agent.Scope) ([]RankedExcerpt, error)
}

type retrievalService struct {
	db        *gorm.DB
	log       *logger.Logger
	documents repos.DocumentRepo
	embedder  Embedder
}

func NewRetrievalService(db *gorm.DB, baseLog *logger.Logger, documentRepo repos.DocumentRepo, embedder Embedder) RetrievalService {
	return &retrievalService{
		db:        db,
		log:       baseLog.With("service", "RetrievalService"),
		documents: documentRepo,
		embedder:  embedder,
	}
}

type tieredDoc struct {
	doc  *types.Document
	tier string
}

func (s *retrievalService) Search(ctx context.Context, query string, limit int, scope agent.Scope) ([]RankedExcerpt, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", apperrors.ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, apperrors.ErrInvalidQuery)
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedder returned no vector")
	}
	queryVec := vectors[0]

	candidates, err := s.gatherCandidates(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []RankedExcerpt{}, nil
	}

	scored := make([]RankedExcerpt, 0, len(candidates))
	createdAt := make(map[uuid.UUID]int64, len(candidates))
	for _, c := range candidates {
		emb, err := decodeEmbedding(c.doc.Embedding)
		if err != nil {
			s.log.Warn("skipping document with bad embedding", "document_id", c.doc.ID, "error", err)
			continue
		}
		sim := cosine(queryVec, emb)
		boost := 1.0
		if c.tier == TierThread {
			boost = threadTierBoost
		}
		scored = append(scored, RankedExcerpt{
			DocumentID: c.doc.ID,
			Name:       c.doc.Name,
			Excerpt:    excerpt(c.doc.Text),
			Similarity: sim,
			Relevance:  sim * boost,
			Tier:       c.tier,
		})
		createdAt[c.doc.ID] = c.doc.CreatedAt.UnixNano()
	}

	// Ties broken by insertion recency, newest first.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Relevance != scored[j].Relevance {
			return scored[i].Relevance > scored[j].Relevance
		}
		return createdAt[scored[i].DocumentID] > createdAt[scored[j].DocumentID]
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// gatherCandidates unions the three scope tiers, fetched in parallel. A
// document matching more than one tier keeps the highest-priority one
// (thread > space > user). A zero scope means unconstrained global search.
func (s *retrievalService) gatherCandidates(ctx context.Context, scope agent.Scope) ([]tieredDoc, error) {
	if scope.IsZero() {
		docs, err := s.documents.GetAll(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("global candidates: %w", err)
		}
		out := make([]tieredDoc, 0, len(docs))
		for _, d := range docs {
			out = append(out, tieredDoc{doc: d, tier: TierGlobal})
		}
		return out, nil
	}

	var threadDocs, spaceDocs, userDocs []*types.Document
	g, gctx := errgroup.WithContext(ctx)
	if scope.ThreadID != uuid.Nil {
		g.Go(func() error {
			var err error
			threadDocs, err = s.documents.GetByThreadID(gctx, nil, scope.ThreadID)
			return err
		})
	}
	if scope.SpaceID != uuid.Nil {
		g.Go(func() error {
			var err error
			spaceDocs, err = s.documents.GetSpaceLevel(gctx, nil, scope.SpaceID)
			return err
		})
	}
	if scope.UserID != uuid.Nil {
		g.Go(func() error {
			var err error
			userDocs, err = s.documents.GetUserOutsideSpace(gctx, nil, scope.UserID, scope.SpaceID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tier candidates: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	out := make([]tieredDoc, 0, len(threadDocs)+len(spaceDocs)+len(userDocs))
	appendTier := func(docs []*types.Document, tier string) {
		for _, d := range docs {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			out = append(out, tieredDoc{doc: d, tier: tier})
		}
	}
	appendTier(threadDocs, TierThread)
	appendTier(spaceDocs, TierSpace)
	appendTier(userDocs, TierUser)
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func decodeEmbedding(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var emb []float32
	if err := json.Unmarshal(raw, &emb); err != nil {
		return nil, err
	}
	return emb, nil
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= excerptMaxLen {
		return text
	}
	return text[:excerptMaxLen]
}
