package lang

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// MaxCachedPrograms bounds the number of block bodies [ParseCached] keeps.
// Reaching it empties the cache.
const MaxCachedPrograms = 1024

// programCache stores parsed blocks keyed by the xxh3 hash of their source.
// Documents are often re-run unchanged (watch mode, the REPL), so the
// rewrite stage is done once per distinct block body.
var (
	programCache sync.Map
	cachedCount  atomic.Int64
)

// entry tracks the parse state of one block body.
type entry struct {
	once sync.Once
	prog *Program
	err  error
}

func sourceKey(src string) string {
	return strconv.FormatUint(xxh3.HashString(src), 36)
}

// ParseCached is like [Parse] but returns the shared result for a block body
// that was parsed before. The returned Program must not be modified.
func ParseCached(src string) (*Program, error) {
	key := sourceKey(src)

	value, ok := programCache.Load(key)
	if !ok {
		if cachedCount.Load() >= MaxCachedPrograms {
			ClearCache()
		}

		var loaded bool

		value, loaded = programCache.LoadOrStore(key, new(entry))
		if !loaded {
			cachedCount.Add(1)
		}
	}

	e, ok := value.(*entry)
	if !ok {
		return Parse(src)
	}

	e.once.Do(func() { e.prog, e.err = Parse(src) })

	return e.prog, e.err
}

// CachedPrograms reports the number of block bodies in the cache.
func CachedPrograms() int { return int(cachedCount.Load()) }

// ClearCache removes every cached program.
func ClearCache() {
	programCache.Clear()
	cachedCount.Store(0)
}
