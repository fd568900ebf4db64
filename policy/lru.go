package policy

import "container/list"

// 缓存算法对比：
// LIFO：后进先出。只记住上一次写入的键，满了就淘汰它，适合新数据价值低的场景。
// FIFO：先进先出。按写入顺序淘汰，不关心访问。
// LRU：最近最少使用。如果数据最近很少被使用，那么就会被淘汰。它的实现很简单，使用map+双向链表。
// MRU：最近最多使用。和LRU相反，淘汰刚刚用过的键，适合循环扫描的访问模式。
// LFU：最不经常使用。根据访问次数淘汰，可能会存在某个一段时间很热的key在另外一段时间不那么热，却由于积累的访问次数过大而无法被淘汰。

// 按使用时间排序的链表，队头最久未使用，队尾最近使用
type recency[K comparable] struct {
	ll    *list.List
	elems map[K]*list.Element
}

func newRecency[K comparable]() recency[K] {
	return recency[K]{
		ll:    list.New(),
		elems: make(map[K]*list.Element),
	}
}

// 使用一次，移动到队尾
func (r *recency[K]) touch(key K) {
	if element, ok := r.elems[key]; ok {
		r.ll.MoveToBack(element)
		return
	}
	r.elems[key] = r.ll.PushBack(key)
}

func (r *recency[K]) remove(key K) {
	if element, ok := r.elems[key]; ok {
		r.ll.Remove(element)
		delete(r.elems, key)
	}
}

func (r *recency[K]) key(element *list.Element) (K, bool) {
	if element == nil {
		var zero K
		return zero, false
	}
	return element.Value.(K), true
}

// LRUPolicy 淘汰最久未使用的键
type LRUPolicy[K comparable] struct {
	recency[K]
}

func NewLRU[K comparable]() *LRUPolicy[K] {
	return &LRUPolicy[K]{recency: newRecency[K]()}
}

func (p *LRUPolicy[K]) Name() string {
	return LRU
}

func (p *LRUPolicy[K]) Add(key K, _ bool) {
	p.touch(key)
}

func (p *LRUPolicy[K]) Access(key K) {
	p.touch(key)
}

func (p *LRUPolicy[K]) Remove(key K) {
	p.remove(key)
}

func (p *LRUPolicy[K]) Victim() (K, bool) {
	return p.key(p.ll.Front())
}

func (p *LRUPolicy[K]) TracksReads() bool {
	return true
}

// MRUPolicy 淘汰最近使用的键
type MRUPolicy[K comparable] struct {
	recency[K]
}

func NewMRU[K comparable]() *MRUPolicy[K] {
	return &MRUPolicy[K]{recency: newRecency[K]()}
}

func (p *MRUPolicy[K]) Name() string {
	return MRU
}

func (p *MRUPolicy[K]) Add(key K, _ bool) {
	p.touch(key)
}

func (p *MRUPolicy[K]) Access(key K) {
	p.touch(key)
}

func (p *MRUPolicy[K]) Remove(key K) {
	p.remove(key)
}

// Victim 新键还没有Add，所以队尾是它之前最近使用的键
func (p *MRUPolicy[K]) Victim() (K, bool) {
	return p.key(p.ll.Back())
}

func (p *MRUPolicy[K]) TracksReads() bool {
	return true
}
