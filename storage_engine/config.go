package storageengine

import (
	"ValuePool/types"
	"ValuePool/values"

	"go.uber.org/zap"
)

const (
	DefaultCacheSize           = 1000
	DefaultPagePoolSize        = 4096
	DefaultFilterFalsePositive = 0.01
)

// Config tunes a pool. Zero numeric fields and nil interfaces fall back to DefaultConfig.
type Config struct {
	CacheSize    int // entries per lookup cache
	PagePoolSize int // buffer pool frames for index pages

	// FilterCapacity sizes the negative lookup filter of the writer, 0 disables it.
	FilterCapacity      uint
	FilterFalsePositive float64

	// SyncWrites forces data files at every prepare. Unlike the other fields it is taken as given.
	SyncWrites bool

	Logger    *zap.SugaredLogger
	Allocator types.NodeAllocator // used by Put and FindOrCreateNode
	Factory   types.ValueFactory
}

func DefaultConfig() Config {
	return Config{
		CacheSize:           DefaultCacheSize,
		PagePoolSize:        DefaultPagePoolSize,
		FilterFalsePositive: DefaultFilterFalsePositive,
		SyncWrites:          true,
	}
}

func (c Config) withDefaults() Config {
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.PagePoolSize <= 0 {
		c.PagePoolSize = DefaultPagePoolSize
	}
	if c.FilterFalsePositive <= 0 || c.FilterFalsePositive >= 1 {
		c.FilterFalsePositive = DefaultFilterFalsePositive
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	if c.Factory == nil {
		c.Factory = values.NewRegistry()
	}
	return c
}
