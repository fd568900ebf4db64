package ecache

import (
	"reflect"
	"sync"

	"github.com/jiaxwu/ecache/cache"
	"github.com/jiaxwu/ecache/policy"
	"github.com/jiaxwu/ecache/store"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultCapacity 默认容量
const DefaultCapacity = 4

// ErrInvalidCapacity 容量必须大于0
var ErrInvalidCapacity = store.ErrInvalidCapacity

// EvictedFunc 在键被淘汰时同步调用，每次淘汰调用一次
type EvictedFunc[K comparable, V any] func(key K, value V)

// Stats 缓存统计
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Len       int
	Capacity  int
}

// Cache 并发安全的有界缓存，超过容量时由淘汰策略选出一个键删除
type Cache[K comparable, V any] struct {
	mu     sync.RWMutex
	store  *store.Store[K, V]
	policy policy.Policy[K]
	// Get是否需要更新策略状态，需要的话要加写锁
	trackReads bool
	// 可选，在键被淘汰的时候执行
	onEvicted EvictedFunc[K, V]
	logger    *zap.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

var _ cache.Cache[string, string] = (*Cache[string, string])(nil)

// New 创建一个后进先出的缓存
func New[K comparable, V any](capacity int, onEvicted EvictedFunc[K, V]) (*Cache[K, V], error) {
	return NewWithPolicy[K, V](capacity, policy.NewLIFO[K](), onEvicted)
}

// NewDefault 创建一个默认容量的后进先出缓存
func NewDefault[K comparable, V any](onEvicted EvictedFunc[K, V]) *Cache[K, V] {
	c, _ := New[K, V](DefaultCapacity, onEvicted)
	return c
}

// NewWithPolicy 使用指定淘汰策略创建缓存
func NewWithPolicy[K comparable, V any](capacity int, p policy.Policy[K], onEvicted EvictedFunc[K, V]) (*Cache[K, V], error) {
	s, err := store.New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = policy.NewLIFO[K]()
	}
	return &Cache[K, V]{
		store:      s,
		policy:     p,
		trackReads: policy.TracksReads(p),
		onEvicted:  onEvicted,
		logger:     zap.NewNop(),
	}, nil
}

// SetLogger 设置日志，默认不输出
func (c *Cache[K, V]) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger.Named("cache").With(zap.String("policy", c.policy.Name()))
}

// Put 写入键值对，键为零值或值为nil时什么都不做
// 覆盖已有的键不会触发淘汰
func (c *Cache[K, V]) Put(key K, value V) {
	var zero K
	if key == zero || isNil(value) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	existed := c.store.Contains(key)
	if err := c.store.Put(key, value); err != nil {
		return
	}
	if c.store.Len() > c.store.Capacity() {
		victim, ok := c.policy.Victim()
		if !ok || victim == key || !c.store.Contains(victim) {
			// 策略给不出可淘汰的键，拒绝新键以保证容量
			c.store.Remove(key)
			c.logger.Warn("no eviction victim, new key rejected", zap.Any("key", key))
			return
		}
		c.evictLocked(victim)
	}
	c.policy.Add(key, existed)
}

// 淘汰一个键并通知
func (c *Cache[K, V]) evictLocked(victim K) {
	value, _ := c.store.Get(victim)
	c.store.Remove(victim)
	c.policy.Remove(victim)
	c.evictions.Inc()
	c.logger.Info("DISCARD", zap.Any("key", victim))
	if c.onEvicted != nil {
		c.onEvicted(victim, value)
	}
}

// Get 获取键对应的值，不存在时返回零值和false
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var (
		value V
		ok    bool
	)
	if c.trackReads {
		c.mu.Lock()
		value, ok = c.store.Get(key)
		if ok {
			c.policy.Access(key)
		}
		c.mu.Unlock()
	} else {
		c.mu.RLock()
		value, ok = c.store.Get(key)
		c.mu.RUnlock()
	}
	if ok {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
	return value, ok
}

// Peek 获取值，不更新淘汰策略和统计
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Get(key)
}

// Remove 删除键，不存在时什么都不做
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.store.Remove(key) {
		return false
	}
	c.policy.Remove(key)
	return true
}

func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Contains(key)
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Len()
}

func (c *Cache[K, V]) Capacity() int {
	return c.store.Capacity()
}

// Keys 返回所有键，顺序不确定
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Keys()
}

// Policy 淘汰策略名
func (c *Cache[K, V]) Policy() string {
	return c.policy.Name()
}

func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.Len(),
		Capacity:  c.Capacity(),
	}
}

// 判断值是否为nil，包括装在接口里的nil指针、map、切片等
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
