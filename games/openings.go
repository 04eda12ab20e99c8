package games

import (
	"context"
	"math/rand"

	"github.com/notnil/chess"

	"github.com/Dosada05/swiss-rounds/models"
)

// OpeningEntry is one predefined starting position in a variant's
// opening-table catalog.
type OpeningEntry struct {
	Name string `json:"name"`
	FEN  string `json:"fen"`
}

// CatalogProvider is the capability lookup from variant to its opening-table
// catalog. An empty result means the variant has no opening tables. Providers
// backed by remote storage honor the context.
type CatalogProvider interface {
	Catalog(ctx context.Context, variant models.Variant) []OpeningEntry
}

// StaticCatalog is an in-memory CatalogProvider.
type StaticCatalog map[models.Variant][]OpeningEntry

func (c StaticCatalog) Catalog(_ context.Context, variant models.Variant) []OpeningEntry {
	return c[variant]
}

// DefaultCatalog returns the built-in opening tables.
func DefaultCatalog() StaticCatalog {
	return StaticCatalog{
		models.VariantStandard: {
			{Name: "Sicilian Defence", FEN: "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"},
			{Name: "French Defence", FEN: "rnbqkbnr/pppp1ppp/4p3/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"},
			{Name: "Caro-Kann Defence", FEN: "rnbqkbnr/pp1ppppp/2p5/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"},
			{Name: "Queen's Gambit", FEN: "rnbqkbnr/ppp1pppp/8/3p4/2PP4/8/PP2PPPP/RNBQKBNR b KQkq - 0 2"},
			{Name: "King's Indian Defence", FEN: "rnbqkb1r/pppppp1p/5np1/8/2PP4/8/PP2PPPP/RNBQKBNR w KQkq - 0 3"},
		},
		models.VariantCrazyhouse: {
			{Name: "Italian Setup", FEN: "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3"},
			{Name: "Scotch Setup", FEN: "r1bqkbnr/pppp1ppp/2n5/4p3/3PP3/5N2/PPP2PPP/RNBQKB1R b KQkq - 0 3"},
		},
	}
}

// Rand is the injectable randomness source for opening selection, so round
// advances stay deterministic under test. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// GlobalRand returns a concurrency-safe Rand backed by math/rand's global
// source, for production wiring.
func GlobalRand() Rand { return globalRand{} }

// SelectOpening resolves the starting position for a round: a uniform draw
// from the variant's catalog when opening tables are enabled and the catalog
// is non-empty, otherwise the tournament's fixed position (nil meaning
// default start). Called once per round; all pairings of the round share the
// result.
func SelectOpening(ctx context.Context, settings models.TournamentSettings, catalogs CatalogProvider, rng Rand) *string {
	if settings.OpeningTables && catalogs != nil {
		if entries := catalogs.Catalog(ctx, settings.Variant); len(entries) > 0 {
			fen := entries[rng.Intn(len(entries))].FEN
			return &fen
		}
	}
	return settings.Position
}

// ValidFEN reports whether a catalog or configured position parses as a
// legal FEN.
func ValidFEN(fen string) bool {
	_, err := chess.FEN(fen)
	return err == nil
}
