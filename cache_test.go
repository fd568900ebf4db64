package ecache

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/jiaxwu/ecache/cache"
	"github.com/jiaxwu/ecache/policy"
	"github.com/jiaxwu/ecache/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// 记录所有被淘汰的键
type evictions struct {
	mu   sync.Mutex
	keys []string
}

func (e *evictions) record(key string, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, key)
}

func (e *evictions) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.keys...)
}

func sortedKeys[V any](c *Cache[string, V]) []string {
	keys := c.Keys()
	sort.Strings(keys)
	return keys
}

func lastKey(t *testing.T, p *policy.LIFOPolicy[string]) string {
	t.Helper()
	key, ok := p.Last()
	require.True(t, ok)
	return key
}

func TestCache_LIFOScenario(t *testing.T) {
	var ev evictions
	p := policy.NewLIFO[string]()
	c, err := NewWithPolicy[string, string](DefaultCapacity, p, ev.record)
	require.NoError(t, err)

	for _, k := range []string{"A", "B", "C", "D"} {
		c.Put(k, k)
	}
	assert.Equal(t, 4, c.Len())
	assert.Empty(t, ev.list())

	c.Put("E", "E")
	assert.Equal(t, []string{"D"}, ev.list())
	assert.Equal(t, []string{"A", "B", "C", "E"}, sortedKeys(c))
	_, ok := c.Get("D")
	assert.False(t, ok)

	// 覆盖写不触发淘汰
	c.Put("E", "E2")
	assert.Equal(t, []string{"D"}, ev.list())
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, "E", lastKey(t, p))

	c.Put("F", "F")
	assert.Equal(t, []string{"D", "E"}, ev.list())
	assert.Equal(t, []string{"A", "B", "C", "F"}, sortedKeys(c))
	assert.Equal(t, "F", lastKey(t, p))
	assert.EqualValues(t, 2, c.Stats().Evictions)
}

func TestCache_CapacityOne(t *testing.T) {
	var ev evictions
	c, err := New[string, string](1, ev.record)
	require.NoError(t, err)

	c.Put("a", "1")
	c.Put("b", "2")
	assert.Equal(t, []string{"a"}, ev.list())
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -4} {
		c, err := New[string, string](capacity, nil)
		assert.ErrorIs(t, err, ErrInvalidCapacity)
		assert.ErrorIs(t, err, store.ErrInvalidCapacity)
		assert.Nil(t, c)
	}
}

func TestNewDefault(t *testing.T) {
	c := NewDefault[string, int](nil)
	assert.Equal(t, DefaultCapacity, c.Capacity())
	assert.Equal(t, policy.LIFO, c.Policy())
}

func TestCache_SizeNeverExceedsCapacity(t *testing.T) {
	for _, name := range policy.Names() {
		t.Run(name, func(t *testing.T) {
			p, err := policy.New[string](name)
			require.NoError(t, err)
			var ev evictions
			c, err := NewWithPolicy[string, string](3, p, ev.record)
			require.NoError(t, err)
			for i := 0; i < 50; i++ {
				key := strconv.Itoa(i % 7)
				c.Put(key, key)
				c.Get(strconv.Itoa(i % 5))
				require.LessOrEqual(t, c.Len(), 3)
			}
			for _, key := range ev.list() {
				assert.NotEmpty(t, key)
			}
		})
	}
}

func TestCache_NilArgumentsAreIgnored(t *testing.T) {
	var ev evictions
	p := policy.NewLIFO[string]()
	c, err := NewWithPolicy[string, []byte](2, p, func(key string, _ []byte) { ev.record(key, "") })
	require.NoError(t, err)

	c.Put("a", []byte("1"))
	c.Put("b", []byte("2"))

	c.Put("", []byte("3"))
	c.Put("c", nil)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"a", "b"}, sortedKeys(c))
	assert.Equal(t, "b", lastKey(t, p))
	assert.Empty(t, ev.list())

	// 空切片不是nil，正常写入
	c.Put("a", []byte{})
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, "a", lastKey(t, p))
}

func TestCache_NilValueInInterface(t *testing.T) {
	c, err := New[string, any](2, nil)
	require.NoError(t, err)

	var ptr *int
	c.Put("a", nil)
	c.Put("b", ptr)
	c.Put("c", map[string]int(nil))
	assert.Equal(t, 0, c.Len())

	c.Put("d", 0)
	c.Put("e", "")
	assert.Equal(t, 2, c.Len())
}

func TestCache_GetIsIdempotent(t *testing.T) {
	c, err := New[string, string](2, nil)
	require.NoError(t, err)
	c.Put("k", "v")

	v1, ok1 := c.Get("k")
	v2, ok2 := c.Get("k")
	assert.Equal(t, v1, v2)
	assert.Equal(t, ok1, ok2)

	_, ok := c.Get("unknown")
	assert.False(t, ok)
	stats := c.Stats()
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

func TestCache_Remove(t *testing.T) {
	var ev evictions
	p := policy.NewLIFO[string]()
	c, err := NewWithPolicy[string, string](2, p, ev.record)
	require.NoError(t, err)

	c.Put("a", "1")
	c.Put("b", "2")
	assert.True(t, c.Remove("b"))
	assert.False(t, c.Remove("b"))
	assert.False(t, c.Contains("b"))
	_, ok := p.Last()
	assert.False(t, ok)

	// 主动删除不算淘汰
	c.Put("c", "3")
	assert.Empty(t, ev.list())
	c.Put("d", "4")
	assert.Equal(t, []string{"c"}, ev.list())
	assert.Equal(t, []string{"a", "d"}, sortedKeys(c))
}

func TestCache_SiblingPolicies(t *testing.T) {
	testCases := []struct {
		policy string
		victim string
	}{
		// a,b,c写入后读a，再写入d
		{policy: policy.LIFO, victim: "c"},
		{policy: policy.FIFO, victim: "a"},
		{policy: policy.LRU, victim: "b"},
		{policy: policy.MRU, victim: "a"},
		{policy: policy.LFU, victim: "b"},
	}
	for _, tc := range testCases {
		t.Run(tc.policy, func(t *testing.T) {
			p, err := policy.New[string](tc.policy)
			require.NoError(t, err)
			var ev evictions
			c, err := NewWithPolicy[string, string](3, p, ev.record)
			require.NoError(t, err)

			c.Put("a", "1")
			c.Put("b", "2")
			c.Put("c", "3")
			c.Get("a")
			c.Put("d", "4")

			assert.Equal(t, []string{tc.victim}, ev.list())
			assert.Equal(t, 3, c.Len())
			assert.True(t, c.Contains("d"))
		})
	}
}

func TestCache_DiscardLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, err := New[string, string](1, nil)
	require.NoError(t, err)
	c.SetLogger(zap.New(core))

	c.Put("a", "1")
	c.Put("b", "2")

	entries := logs.FilterMessage("DISCARD").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ContextMap()["key"])
	assert.Equal(t, policy.LIFO, entries[0].ContextMap()["policy"])
}

func TestCache_ImplementsCapability(t *testing.T) {
	s, err := store.New[string, string](2)
	require.NoError(t, err)
	c, err := New[string, string](2, nil)
	require.NoError(t, err)

	for _, impl := range []cache.Cache[string, string]{s, c} {
		assert.Equal(t, 2, impl.Capacity())
		assert.Equal(t, 0, impl.Len())
		_, ok := impl.Get("missing")
		assert.False(t, ok)
		assert.False(t, impl.Remove("missing"))
	}
}

func TestCache_Concurrent(t *testing.T) {
	for _, name := range []string{policy.LIFO, policy.LRU} {
		t.Run(name, func(t *testing.T) {
			p, err := policy.New[string](name)
			require.NoError(t, err)
			var ev evictions
			c, err := NewWithPolicy[string, string](8, p, ev.record)
			require.NoError(t, err)

			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 200; i++ {
						key := fmt.Sprintf("%d-%d", w, i%20)
						c.Put(key, key)
						c.Get(key)
						if c.Len() > c.Capacity() {
							t.Errorf("len %d exceeds capacity %d", c.Len(), c.Capacity())
						}
						if i%7 == 0 {
							c.Remove(key)
						}
					}
				}(w)
			}
			wg.Wait()
			assert.LessOrEqual(t, c.Len(), 8)
			assert.EqualValues(t, len(ev.list()), c.Stats().Evictions)
		})
	}
}

func TestCache_PeekDoesNotTouch(t *testing.T) {
	var ev evictions
	c, err := NewWithPolicy[string, string](2, policy.NewLRU[string](), ev.record)
	require.NoError(t, err)

	c.Put("a", "1")
	c.Put("b", "2")
	v, ok := c.Peek("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	c.Put("c", "3")

	assert.Equal(t, []string{"a"}, ev.list())
	assert.Zero(t, c.Stats().Hits)
}
