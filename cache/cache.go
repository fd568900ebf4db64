package cache

// Cache 有界缓存的读取和删除能力，底层存储和带淘汰策略的缓存都实现它
// 写入不在接口里：存储对零值键返回错误，而淘汰缓存静默忽略
type Cache[K comparable, V any] interface {
	// Get 获取元素，不存在时返回零值和false
	Get(key K) (val V, exist bool)
	// Remove 删除元素，返回是否真的删除了
	Remove(key K) bool
	// Contains 是否包含元素
	Contains(key K) bool
	// Len 缓存元素个数
	Len() int
	// Capacity 最大元素个数
	Capacity() int
}
