package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Dosada05/swiss-rounds/games"
	"github.com/Dosada05/swiss-rounds/models"
)

type CloudflareR2CatalogConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	KeyPrefix       string
}

// catalogTTL bounds how long a fetched opening table is served before the
// bucket is consulted again, so a republished table is eventually picked up.
const catalogTTL = 10 * time.Minute

type cachedCatalog struct {
	entries   []games.OpeningEntry
	fetchedAt time.Time
}

// cloudflareR2Catalog serves opening tables published as JSON objects in an
// R2 bucket, one object per variant under <prefix>/<variant>.json. Variants
// without an object fall back to the built-in catalog, so a missing or
// misconfigured bucket never blocks a round.
type cloudflareR2Catalog struct {
	s3Client   *s3.Client
	bucketName string
	keyPrefix  string
	fallback   games.CatalogProvider
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.RWMutex
	cache map[models.Variant]cachedCatalog
}

func NewCloudflareR2Catalog(cfg CloudflareR2CatalogConfig, fallback games.CatalogProvider, logger *slog.Logger) (games.CatalogProvider, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, errors.New("invalid Cloudflare R2 configuration: all fields are required")
	}

	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		r2Endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
		return aws.Endpoint{
			URL:           r2Endpoint,
			SigningRegion: "auto",
		}, nil
	})

	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "openings"
	}

	return &cloudflareR2Catalog{
		s3Client:   s3.NewFromConfig(sdkCfg),
		bucketName: cfg.BucketName,
		keyPrefix:  keyPrefix,
		fallback:   fallback,
		logger:     logger,
		now:        time.Now,
		cache:      make(map[models.Variant]cachedCatalog),
	}, nil
}

func (c *cloudflareR2Catalog) Catalog(ctx context.Context, variant models.Variant) []games.OpeningEntry {
	if entries, ok := c.cachedEntries(variant); ok {
		return entries
	}

	entries, err := c.fetch(ctx, variant)
	if err != nil {
		c.logger.Warn("falling back to built-in opening catalog",
			slog.String("variant", string(variant)), slog.Any("error", err))
		return c.fallback.Catalog(ctx, variant)
	}

	c.mu.Lock()
	c.cache[variant] = cachedCatalog{entries: entries, fetchedAt: c.now()}
	c.mu.Unlock()
	return entries
}

// cachedEntries returns the variant's table while it is younger than
// catalogTTL.
func (c *cloudflareR2Catalog) cachedEntries(variant models.Variant) ([]games.OpeningEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.cache[variant]
	if !ok || c.now().Sub(cached.fetchedAt) >= catalogTTL {
		return nil, false
	}
	return cached.entries, true
}

func (c *cloudflareR2Catalog) fetch(ctx context.Context, variant models.Variant) ([]games.OpeningEntry, error) {
	key := fmt.Sprintf("%s/%s.json", c.keyPrefix, variant)
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opening table from R2 (key: %s): %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read opening table body (key: %s): %w", key, err)
	}

	var entries []games.OpeningEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode opening table (key: %s): %w", key, err)
	}

	valid := entries[:0]
	for _, e := range entries {
		if games.ValidFEN(e.FEN) {
			valid = append(valid, e)
		} else {
			c.logger.Warn("skipping opening with invalid FEN",
				slog.String("variant", string(variant)), slog.String("name", e.Name))
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("opening table is empty after validation (key: %s)", key)
	}
	return valid, nil
}
