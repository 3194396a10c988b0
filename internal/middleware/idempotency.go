package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader   = "Idempotency-Key"
	idempotentReplayHeader = "Idempotent-Replayed"
	idempotencyPrefix      = "idempotency:v2:"
	inProgressMarker       = "__in_progress__"
	idempotencyStoreWait   = 2 * time.Second
)

type storedResponse struct {
	Fingerprint string            `json:"fingerprint"`
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers"`
}

// idempotencyStore keeps reservations and finished responses in Redis.
type idempotencyStore struct {
	cache *redis.Client
	ttl   time.Duration
}

func (s idempotencyStore) load(key string) (storedResponse, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyStoreWait)
	defer cancel()
	raw, err := s.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return storedResponse{}, false, nil
	}
	if err != nil {
		return storedResponse{}, false, err
	}
	if raw == inProgressMarker {
		return storedResponse{}, true, errInProgress
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return storedResponse{}, true, err
	}
	return stored, true, nil
}

// reserve claims key; false means another request holds it.
func (s idempotencyStore) reserve(key string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyStoreWait)
	defer cancel()
	return s.cache.SetNX(ctx, key, inProgressMarker, s.ttl).Result()
}

func (s idempotencyStore) save(key string, resp storedResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyStoreWait)
	defer cancel()
	return s.cache.Set(ctx, key, payload, s.ttl).Err()
}

func (s idempotencyStore) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyStoreWait)
	defer cancel()
	s.cache.Del(ctx, key)
}

var errInProgress = errors.New("duplicate request currently processing")

// Idempotency makes money-moving requests safe to retry. Responses are stored
// in Redis under the caller, the route and the Idempotency-Key header together
// with a fingerprint of the request body; reusing a key with a different body
// is rejected. Server errors are not stored so the client can retry them.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	store := idempotencyStore{cache: cache, ttl: ttl}
	return func(c *fiber.Ctx) error {
		switch strings.ToUpper(c.Method()) {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		userID, _ := c.Locals("user_id").(string)
		cacheKey := idempotencyPrefix + userID + ":" + c.Path() + ":" + key
		sum := sha256.Sum256(c.Body())
		fingerprint := hex.EncodeToString(sum[:])
		log := logger.With(slog.String("key", key), slog.String("path", c.Path()))

		stored, found, err := store.load(cacheKey)
		switch {
		case errors.Is(err, errInProgress):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil && found:
			log.Warn("failed to decode stored idempotent response", slog.Any("error", err))
			return fiber.NewError(fiber.StatusConflict, "duplicate request")
		case err != nil:
			log.Error("idempotency lookup failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		case found:
			if stored.Fingerprint != fingerprint {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Idempotency-Key was used with a different request")
			}
			for header, value := range stored.Headers {
				if strings.EqualFold(header, fiber.HeaderContentLength) {
					continue
				}
				c.Set(header, value)
			}
			c.Set(idempotentReplayHeader, "true")
			return c.Status(stored.Status).SendString(stored.Body)
		}

		ok, err := store.reserve(cacheKey)
		if err != nil {
			log.Error("idempotency reservation failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}
		if !ok {
			return fiber.NewError(fiber.StatusConflict, errInProgress.Error())
		}

		if err := c.Next(); err != nil {
			store.release(cacheKey)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			store.release(cacheKey)
			return nil
		}

		resp := storedResponse{
			Fingerprint: fingerprint,
			Status:      status,
			Body:        string(c.Response().Body()),
			Headers:     map[string]string{},
		}
		c.Response().Header.VisitAll(func(k, v []byte) {
			resp.Headers[string(k)] = string(v)
		})
		if err := store.save(cacheKey, resp); err != nil {
			log.Error("failed to persist idempotent response", slog.Any("error", err))
			store.release(cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}
		return nil
	}
}
