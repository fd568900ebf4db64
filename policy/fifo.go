package policy

import "container/list"

// FIFOPolicy 先进先出，覆盖写不改变顺序
type FIFOPolicy[K comparable] struct {
	ll    *list.List
	elems map[K]*list.Element
}

func NewFIFO[K comparable]() *FIFOPolicy[K] {
	return &FIFOPolicy[K]{
		ll:    list.New(),
		elems: make(map[K]*list.Element),
	}
}

func (p *FIFOPolicy[K]) Name() string {
	return FIFO
}

func (p *FIFOPolicy[K]) Add(key K, _ bool) {
	if _, ok := p.elems[key]; ok {
		return
	}
	p.elems[key] = p.ll.PushBack(key)
}

func (p *FIFOPolicy[K]) Access(K) {}

func (p *FIFOPolicy[K]) Remove(key K) {
	if element, ok := p.elems[key]; ok {
		p.ll.Remove(element)
		delete(p.elems, key)
	}
}

func (p *FIFOPolicy[K]) Victim() (K, bool) {
	front := p.ll.Front()
	if front == nil {
		var zero K
		return zero, false
	}
	return front.Value.(K), true
}
