package policy

import (
	"errors"
	"fmt"
	"strings"
)

// 淘汰策略名
const (
	LIFO = "lifo"
	FIFO = "fifo"
	LRU  = "lru"
	MRU  = "mru"
	LFU  = "lfu"
)

var ErrUnknownPolicy = errors.New("unknown eviction policy")

// Policy 淘汰策略，只记录键的状态，不持有值
// 所有方法都由缓存在持锁时调用，实现不需要并发安全
type Policy[K comparable] interface {
	// Name 策略名
	Name() string
	// Add 写入成功后调用，existed表示是否为覆盖写
	Add(key K, existed bool)
	// Access 命中后调用
	Access(key K)
	// Remove 键离开存储后调用，包括主动删除和被淘汰
	Remove(key K)
	// Victim 存储超过容量时调用，此时新写入的键还没有Add
	Victim() (key K, ok bool)
}

// ReadTracker 由关心读操作的策略实现，缓存据此决定Get是否需要写锁
type ReadTracker interface {
	TracksReads() bool
}

// TracksReads 判断策略是否需要在Get时更新状态
func TracksReads[K comparable](p Policy[K]) bool {
	if rt, ok := p.(ReadTracker); ok {
		return rt.TracksReads()
	}
	return false
}

// New 根据名字创建策略
func New[K comparable](name string) (Policy[K], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case LIFO:
		return NewLIFO[K](), nil
	case FIFO:
		return NewFIFO[K](), nil
	case LRU:
		return NewLRU[K](), nil
	case MRU:
		return NewMRU[K](), nil
	case LFU:
		return NewLFU[K](), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Names 返回所有支持的策略名
func Names() []string {
	return []string{LIFO, FIFO, LRU, MRU, LFU}
}
