package attrs

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ProgramCache stores compiled script programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type lruProgramCache struct {
	cache *lru.Cache[string, any]
}

// NewLRUProgramCache returns a ProgramCache holding at most size programs.
func NewLRUProgramCache(size int) (ProgramCache, error) {
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("attrs: program cache: %w", err)
	}
	return &lruProgramCache{cache: cache}, nil
}

func (c *lruProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *lruProgramCache) Set(key string, value any) {
	c.cache.Add(key, value)
}
