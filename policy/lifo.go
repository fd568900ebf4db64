package policy

// LIFOPolicy 后进先出，只记住最近一次写入的键
// 只有一个槽位而不是栈：被淘汰的永远是上一次写入的键
type LIFOPolicy[K comparable] struct {
	last  K
	valid bool
}

func NewLIFO[K comparable]() *LIFOPolicy[K] {
	return &LIFOPolicy[K]{}
}

func (p *LIFOPolicy[K]) Name() string {
	return LIFO
}

// Add 覆盖写也算写入，同样成为最近写入的键
func (p *LIFOPolicy[K]) Add(key K, _ bool) {
	p.last = key
	p.valid = true
}

func (p *LIFOPolicy[K]) Access(K) {}

func (p *LIFOPolicy[K]) Remove(key K) {
	if p.valid && p.last == key {
		var zero K
		p.last = zero
		p.valid = false
	}
}

func (p *LIFOPolicy[K]) Victim() (K, bool) {
	return p.last, p.valid
}

// Last 最近一次写入的键
func (p *LIFOPolicy[K]) Last() (K, bool) {
	return p.last, p.valid
}
