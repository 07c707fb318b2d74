package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"tichmi/internal/cache"
	"tichmi/internal/domain"
	"tichmi/internal/logger"
	"time"

	"go.uber.org/zap"
)

// GenerationCacheService caches generated card sets keyed by topic and
// document digest, so that repeating a generation request does not spend a
// second model call. A nil cache disables it entirely; cache failures only
// degrade to a fresh generation.
type GenerationCacheService interface {
	GetCards(ctx context.Context, topic string, doc *domain.DocumentPayload) ([]domain.Card, error)
	PutCards(ctx context.Context, topic string, doc *domain.DocumentPayload, cards []domain.Card) error
}

type generationCacheServiceImpl struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewGenerationCacheService creates a new GenerationCacheService. cache may
// be nil, in which case every lookup is a miss and every put a no-op.
func NewGenerationCacheService(c domain.Cache, ttl time.Duration) GenerationCacheService {
	return &generationCacheServiceImpl{cache: c, ttl: ttl}
}

// GetCards returns the cached card set for this topic/document pair, or
// (nil, nil) on a miss.
func (s *generationCacheServiceImpl) GetCards(ctx context.Context, topic string, doc *domain.DocumentPayload) ([]domain.Card, error) {
	if s.cache == nil {
		return nil, nil
	}

	key := s.key(topic, doc)
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if err == domain.ErrCacheMiss {
			return nil, nil
		}
		logger.Get().Warn("GenerationCacheService: cache lookup failed",
			zap.Error(err), zap.String("key", key))
		return nil, err
	}

	var cards []domain.Card
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		logger.Get().Warn("GenerationCacheService: discarding unreadable cache entry",
			zap.Error(err), zap.String("key", key))
		return nil, nil
	}
	return cards, nil
}

// PutCards stores a freshly generated card set.
func (s *generationCacheServiceImpl) PutCards(ctx context.Context, topic string, doc *domain.DocumentPayload, cards []domain.Card) error {
	if s.cache == nil {
		return nil
	}

	raw, err := json.Marshal(cards)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.key(topic, doc), string(raw), s.ttl)
}

// key digests topic plus document payload so that the same topic with a
// different reference document never collides.
func (s *generationCacheServiceImpl) key(topic string, doc *domain.DocumentPayload) string {
	h := sha256.New()
	h.Write([]byte(topic))
	if doc != nil {
		h.Write([]byte(doc.MIMEType))
		h.Write([]byte(doc.Payload))
	}
	digest := hex.EncodeToString(h.Sum(nil))
	return cache.GenerateCacheKey("quizgen", "cards", digest)
}
