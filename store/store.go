package store

import "errors"

var (
	// ErrInvalidCapacity 容量必须大于0
	ErrInvalidCapacity = errors.New("capacity must be greater than 0")
	// ErrInvalidKey 零值键被保留为“无键”，不能存储
	ErrInvalidKey = errors.New("key is required")
)

// Store 有界存储，只负责保存键值对和容量，不做任何淘汰
// 非并发安全，由上层加锁
type Store[K comparable, V any] struct {
	capacity int
	data     map[K]V
}

// New 创建一个Store
func New[K comparable, V any](capacity int) (*Store[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Store[K, V]{
		capacity: capacity,
		data:     make(map[K]V),
	}, nil
}

// Put 插入或覆盖，不检查容量
func (s *Store[K, V]) Put(key K, val V) error {
	var zero K
	if key == zero {
		return ErrInvalidKey
	}
	s.data[key] = val
	return nil
}

// Get 获取键对应的值，不存在时返回零值和false
func (s *Store[K, V]) Get(key K) (V, bool) {
	val, ok := s.data[key]
	return val, ok
}

// Remove 删除键，不存在时什么都不做
func (s *Store[K, V]) Remove(key K) bool {
	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	return true
}

func (s *Store[K, V]) Contains(key K) bool {
	_, ok := s.data[key]
	return ok
}

func (s *Store[K, V]) Len() int {
	return len(s.data)
}

func (s *Store[K, V]) Capacity() int {
	return s.capacity
}

// Full 是否已经达到容量
func (s *Store[K, V]) Full() bool {
	return len(s.data) >= s.capacity
}

// Keys 返回所有键，顺序不确定
func (s *Store[K, V]) Keys() []K {
	keys := make([]K, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys
}
