package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Key templates and TTLs. Catalog entries are invalidated on admin mutation;
// status entries simply expire.
const (
	keyCatalog     = "catalog:%s"
	keyOrderStatus = "order_status:%s"

	catalogTTL = 5 * time.Minute
	statusTTL  = 5 * time.Minute
)

// Cache is a read-through cache over Redis. Every method is nil-safe and
// treats any Redis error as a miss: the database remains the source of truth
// and cache trouble must never surface to a request.
type Cache struct {
	rdb *redis.Client
}

// New connects to Redis at addr. An empty addr disables caching.
func New(addr string) *Cache {
	if addr == "" {
		log.Warn("No Redis address configured, caching disabled")
		return &Cache{}
	}
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// GetCatalog returns the cached JSON payload for a kind's active listing
func (c *Cache) GetCatalog(ctx context.Context, kind models.IngredientKind) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, fmt.Sprintf(keyCatalog, kind)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Debug("Catalog cache read failed")
		}
		return nil, false
	}
	return payload, true
}

// SetCatalog stores a kind's active listing
func (c *Cache) SetCatalog(ctx context.Context, kind models.IngredientKind, payload []byte) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Set(ctx, fmt.Sprintf(keyCatalog, kind), payload, catalogTTL).Err(); err != nil {
		log.WithError(err).Debug("Catalog cache write failed")
	}
}

// InvalidateCatalog drops a kind's listing after an admin mutation
func (c *Cache) InvalidateCatalog(ctx context.Context, kind models.IngredientKind) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Del(ctx, fmt.Sprintf(keyCatalog, kind)).Err(); err != nil {
		log.WithError(err).Debug("Catalog cache invalidation failed")
	}
}

// SetOrderStatus records the latest status for cheap tracking lookups
func (c *Cache) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, orderID), string(status), statusTTL).Err(); err != nil {
		log.WithError(err).Debug("Order status cache write failed")
	}
}

// GetOrderStatus returns the cached status for an order, if present
func (c *Cache) GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, bool) {
	if !c.enabled() {
		return "", false
	}
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Debug("Order status cache read failed")
		}
		return "", false
	}
	return models.OrderStatus(raw), true
}

// Close releases the Redis connection
func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Close()
}
