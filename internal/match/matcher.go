// Package match fuzzy-ranks import records against the shared catalog and
// classifies each as an exact match, a ranked set of possibilities, or new.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/humidorhq/humidor-tracker/internal/entity"
	"github.com/humidorhq/humidor-tracker/internal/repository"
)

const (
	// similarityThreshold gates which catalog rows enter ranking at all.
	similarityThreshold = 0.3
	// exactThreshold promotes a score to an exact match and short-circuits
	// further ranking for that record.
	exactThreshold = 0.8
	// candidateCap bounds how many ranked rows one record keeps.
	candidateCap = 10
	// possibleCap bounds how many candidates a "possible" record surfaces.
	possibleCap = 3

	lengthTolerance = 0.25 // inches
	ringTolerance   = 2.0  // ring gauge points
)

// Matcher is read-only over the catalog.
type Matcher struct {
	catalog repository.CatalogRepository
	logger  *slog.Logger
}

func NewMatcher(catalog repository.CatalogRepository, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{catalog: catalog, logger: logger}
}

type scoredHit struct {
	hit   entity.SimilarityHit
	score float64
}

// FindMatches ranks every record concurrently, then resolves all referenced
// catalog ids in one batched fetch before classifying.
func (m *Matcher) FindMatches(ctx context.Context, records []entity.ImportRecord) (*entity.MatchResult, error) {
	start := time.Now()
	ranked := make([][]scoredHit, len(records))

	g, gctx := errgroup.WithContext(ctx)
	for i, rec := range records {
		g.Go(func() error {
			hits, err := m.rank(gctx, rec)
			if err != nil {
				return fmt.Errorf("rank record %d: %w", i, err)
			}
			ranked[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// one memoized detail fetch for every id any record referenced
	idSet := make(map[uuid.UUID]struct{})
	for _, hits := range ranked {
		for _, h := range hits {
			idSet[h.hit.EntryID] = struct{}{}
		}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	entries, err := m.catalog.GetEntriesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch matched entries: %w", err)
	}

	result := &entity.MatchResult{}
	for i, rec := range records {
		rm := m.classify(i, rec, ranked[i], entries)
		switch rm.Kind {
		case entity.MatchExact:
			result.Exact = append(result.Exact, rm)
		case entity.MatchPossible:
			result.Possible = append(result.Possible, rm)
		default:
			result.New = append(result.New, rm)
		}
	}

	m.logger.Info("match.find.ok",
		"records", len(records),
		"exact", len(result.Exact),
		"possible", len(result.Possible),
		"new", len(result.New),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// rank queries the catalog for one record and applies the tiered score:
// 1.0 on exact key equality, 0.8 when every key token appears in the
// candidate, otherwise the raw trigram similarity — combined by max, so a
// genuinely higher trigram score beats the token tier.
func (m *Matcher) rank(ctx context.Context, rec entity.ImportRecord) ([]scoredHit, error) {
	key := searchKey(rec)
	if key == "" {
		return nil, nil
	}

	hits, err := m.catalog.SearchBySimilarity(ctx, key, similarityThreshold, candidateCap)
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(key)
	scored := make([]scoredHit, 0, len(hits))
	for _, h := range hits {
		candidate := strings.ToLower(strings.TrimSpace(h.BrandName + " " + h.Name))
		score := h.Similarity
		if candidate == key {
			score = 1.0
		} else if allTokensPresent(tokens, candidate) && score < 0.8 {
			score = 0.8
		}
		scored = append(scored, scoredHit{hit: h, score: score})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].score != scored[b].score {
			return scored[a].score > scored[b].score
		}
		return scored[a].hit.EntryID.String() < scored[b].hit.EntryID.String()
	})
	if len(scored) > candidateCap {
		scored = scored[:candidateCap]
	}
	return scored, nil
}

func (m *Matcher) classify(index int, rec entity.ImportRecord, hits []scoredHit, entries map[uuid.UUID]*entity.CatalogEntry) entity.RecordMatch {
	// drop hits whose detail row disappeared between ranking and fetch
	usable := hits[:0:0]
	for _, h := range hits {
		if _, ok := entries[h.hit.EntryID]; ok {
			usable = append(usable, h)
		}
	}

	rm := entity.RecordMatch{Index: index, Record: rec}
	if len(usable) == 0 {
		rm.Kind = entity.MatchNew
		return rm
	}

	if usable[0].score >= exactThreshold {
		rm.Kind = entity.MatchExact
		rm.Entry = entries[usable[0].hit.EntryID]
		return rm
	}

	rm.Kind = entity.MatchPossible
	top := usable
	if len(top) > possibleCap {
		top = top[:possibleCap]
	}
	for _, h := range top {
		entry := entries[h.hit.EntryID]
		rm.Candidates = append(rm.Candidates, entity.MatchCandidate{
			Entry:     entry,
			Score:     h.score,
			Rationale: rationale(rec, entry),
		})
	}
	return rm
}

// rationale annotates why a candidate is plausible: brand/name agreement,
// size within tolerance, attribute equality.
func rationale(rec entity.ImportRecord, entry *entity.CatalogEntry) []string {
	var reasons []string

	switch {
	case strings.EqualFold(strings.TrimSpace(rec.Brand), strings.TrimSpace(entry.BrandName)):
		reasons = append(reasons, "brand exact")
	case trigramSimilarity(rec.Brand, entry.BrandName) > 0.4:
		reasons = append(reasons, "brand similar")
	}

	switch {
	case strings.EqualFold(strings.TrimSpace(rec.Name), strings.TrimSpace(entry.Name)):
		reasons = append(reasons, "name exact")
	case trigramSimilarity(rec.Name, entry.Name) > 0.4:
		reasons = append(reasons, "name similar")
	}

	if rec.Length != nil && entry.Length != nil && rec.RingGauge != nil && entry.RingGauge != nil {
		if abs(*rec.Length-*entry.Length) <= lengthTolerance && abs(*rec.RingGauge-*entry.RingGauge) <= ringTolerance {
			reasons = append(reasons, "similar size")
		}
	}
	if rec.Wrapper != "" && strings.EqualFold(rec.Wrapper, entry.Wrapper) {
		reasons = append(reasons, "same wrapper")
	}
	if rec.Strength != "" && strings.EqualFold(rec.Strength, entry.Strength) {
		reasons = append(reasons, "same strength")
	}
	if rec.Country != "" && strings.EqualFold(rec.Country, entry.Country) {
		reasons = append(reasons, "same country")
	}
	return reasons
}

func searchKey(rec entity.ImportRecord) string {
	return strings.ToLower(strings.TrimSpace(rec.Brand + " " + rec.Name))
}

func allTokensPresent(tokens []string, candidate string) bool {
	for _, tok := range tokens {
		if !strings.Contains(candidate, tok) {
			return false
		}
	}
	return len(tokens) > 0
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
