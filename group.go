package ecache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jiaxwu/ecache/policy"
	"github.com/jiaxwu/ecache/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrKeyRequired 和存储层共用一个错误
	ErrKeyRequired = store.ErrInvalidKey
	// ErrNotFound 缓存未命中且没有Getter可以加载
	ErrNotFound    = errors.New("key not found")
	ErrGroupExists = errors.New("group already exists")
)

// Getter 用于加载数据
type Getter interface {
	Get(key string) (ByteView, error)
}

type GetterFunc func(key string) (ByteView, error)

func (f GetterFunc) Get(key string) (ByteView, error) {
	return f(key)
}

// Group 一个缓存命名空间
type Group struct {
	name string
	// 可选，为nil时Group只是一个普通缓存
	getter    Getter
	mainCache *Cache[string, ByteView]
	// 避免对同一个key多次加载
	loadGroup *singleflight.Group
	logger    *zap.Logger
}

// NewGroup 创建一个后进先出淘汰的Group
func NewGroup(name string, capacity int, getter Getter) (*Group, error) {
	return NewGroupWithPolicy(name, capacity, policy.NewLIFO[string](), getter)
}

// NewGroupWithPolicy 使用指定淘汰策略创建Group
func NewGroupWithPolicy(name string, capacity int, p policy.Policy[string], getter Getter) (*Group, error) {
	if name == "" {
		return nil, errors.New("group name is required")
	}
	g := &Group{
		name:      name,
		getter:    getter,
		loadGroup: &singleflight.Group{},
		logger:    zap.NewNop(),
	}
	mainCache, err := NewWithPolicy[string, ByteView](capacity, p, g.evicted)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", name, err)
	}
	g.mainCache = mainCache
	return g, nil
}

func (g *Group) Name() string {
	return g.name
}

// SetLogger 设置日志，同时作用于底层缓存
func (g *Group) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g.logger = logger.With(zap.String("group", g.name))
	g.mainCache.SetLogger(g.logger)
}

// Get 从缓存获取key对应的value，未命中时通过Getter加载
func (g *Group) Get(key string) (ByteView, error) {
	if key == "" {
		return ByteView{}, ErrKeyRequired
	}
	if v, ok := g.mainCache.Get(key); ok {
		g.logger.Debug("main cache hit", zap.String("key", key))
		return v, nil
	}
	return g.load(key)
}

// Put 写入缓存
func (g *Group) Put(key string, value ByteView) error {
	if key == "" {
		return ErrKeyRequired
	}
	g.mainCache.Put(key, value)
	return nil
}

// Remove 从缓存删除key
func (g *Group) Remove(key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	g.mainCache.Remove(key)
	return nil
}

func (g *Group) Stats() Stats {
	return g.mainCache.Stats()
}

// Policy 淘汰策略名
func (g *Group) Policy() string {
	return g.mainCache.Policy()
}

// 加载缓存
func (g *Group) load(key string) (ByteView, error) {
	view, err, _ := g.loadGroup.Do(key, func() (any, error) {
		// 等待期间可能已经被其他调用加载
		if v, ok := g.mainCache.Peek(key); ok {
			return v, nil
		}
		return g.loadLocally(key)
	})
	if err != nil {
		return ByteView{}, err
	}
	return view.(ByteView), nil
}

// 通过Getter加载缓存值
func (g *Group) loadLocally(key string) (ByteView, error) {
	if g.getter == nil {
		return ByteView{}, ErrNotFound
	}
	value, err := g.getter.Get(key)
	if err != nil {
		g.logger.Warn("failed to load key", zap.String("key", key), zap.Error(err))
		return ByteView{}, err
	}
	g.mainCache.Put(key, value)
	return value, nil
}

func (g *Group) evicted(key string, value ByteView) {
	g.logger.Debug("key evicted", zap.String("key", key), zap.Int("bytes", value.Len()))
}

// Groups 一组按名字管理的Group，由调用方创建并显式传递
type Groups struct {
	mu     sync.RWMutex
	groups map[string]*Group
	logger *zap.Logger
}

func NewGroups(logger *zap.Logger) *Groups {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Groups{
		groups: make(map[string]*Group),
		logger: logger,
	}
}

// NewGroup 按策略名创建Group并注册
func (gs *Groups) NewGroup(name string, capacity int, policyName string, getter Getter) (*Group, error) {
	p, err := policy.New[string](policyName)
	if err != nil {
		return nil, err
	}
	g, err := NewGroupWithPolicy(name, capacity, p, getter)
	if err != nil {
		return nil, err
	}
	if err := gs.Add(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Add 注册一个Group，同名Group已存在时返回ErrGroupExists
func (gs *Groups) Add(g *Group) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if _, ok := gs.groups[g.name]; ok {
		return fmt.Errorf("%w: %s", ErrGroupExists, g.name)
	}
	g.SetLogger(gs.logger)
	gs.groups[g.name] = g
	return nil
}

// Get 获取Group，不存在时返回nil
func (gs *Groups) Get(name string) *Group {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.groups[name]
}

// Names 返回所有Group名，按字典序
func (gs *Groups) Names() []string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	names := make([]string, 0, len(gs.groups))
	for name := range gs.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
