package storage

import (
	"testing"
	"time"

	"github.com/Dosada05/swiss-rounds/games"
	"github.com/Dosada05/swiss-rounds/models"
)

func TestCachedEntriesExpire(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	entries := []games.OpeningEntry{{Name: "Sicilian Defence", FEN: "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"}}

	c := &cloudflareR2Catalog{
		now: func() time.Time { return now },
		cache: map[models.Variant]cachedCatalog{
			models.VariantStandard: {entries: entries, fetchedAt: now},
		},
	}

	if got, ok := c.cachedEntries(models.VariantStandard); !ok || len(got) != 1 {
		t.Fatalf("fresh cache miss: ok = %v, entries = %d", ok, len(got))
	}

	now = now.Add(catalogTTL - time.Second)
	if _, ok := c.cachedEntries(models.VariantStandard); !ok {
		t.Error("entry within the TTL must be served")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.cachedEntries(models.VariantStandard); ok {
		t.Error("entry past the TTL must be refetched")
	}

	if _, ok := c.cachedEntries(models.VariantCrazyhouse); ok {
		t.Error("unknown variant must be a miss")
	}
}
