package prediction

import (
	"context"
	"strconv"
	"strings"

	"github.com/kilianp07/bikeprice/core/encoder"
	"github.com/kilianp07/bikeprice/core/factory"
)

// Cache stores predicted prices by feature vector key.
type Cache interface {
	// Get returns the cached price and whether one was found.
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, price float64) error
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (float64, bool, error) { return 0, false, nil }
func (NopCache) Set(context.Context, string, float64) error         { return nil }

// CacheKey renders v as a stable key. Equal vectors give equal keys.
func CacheKey(v encoder.FeatureVector) string {
	var b strings.Builder
	b.WriteString("v1:")
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return b.String()
}

var cacheRegistry = factory.NewRegistry[Cache]("cache")

func init() {
	_ = RegisterCache("none", func(map[string]any) (Cache, error) { return NopCache{}, nil })
}

// RegisterCache adds a cache factory identified by name.
func RegisterCache(name string, f factory.Factory[Cache]) error {
	return cacheRegistry.Register(name, f)
}

// NewCache builds the cache described by cfg. An empty type selects NopCache.
func NewCache(cfg factory.ModuleConfig) (Cache, error) {
	if cfg.Type == "" {
		return NopCache{}, nil
	}
	return cacheRegistry.Create(cfg)
}

// CloseCache closes c if it holds a connection.
func CloseCache(c Cache) error {
	if cl, ok := c.(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}
