package policy

// LFUPolicy 淘汰使用次数最少的键，次数相同时淘汰最久未使用的
// 淘汰时线性扫描，容量一般很小
type LFUPolicy[K comparable] struct {
	recency[K]
	counts map[K]int
}

func NewLFU[K comparable]() *LFUPolicy[K] {
	return &LFUPolicy[K]{
		recency: newRecency[K](),
		counts:  make(map[K]int),
	}
}

func (p *LFUPolicy[K]) Name() string {
	return LFU
}

func (p *LFUPolicy[K]) Add(key K, _ bool) {
	p.use(key)
}

func (p *LFUPolicy[K]) Access(key K) {
	p.use(key)
}

func (p *LFUPolicy[K]) use(key K) {
	p.counts[key]++
	p.touch(key)
}

func (p *LFUPolicy[K]) Remove(key K) {
	p.remove(key)
	delete(p.counts, key)
}

func (p *LFUPolicy[K]) Victim() (K, bool) {
	var (
		victim K
		least  int
		found  bool
	)
	// 从最久未使用开始，只有严格更小才替换，保证同次数时淘汰最旧的
	for element := p.ll.Front(); element != nil; element = element.Next() {
		key := element.Value.(K)
		if count := p.counts[key]; !found || count < least {
			victim, least, found = key, count, true
		}
	}
	return victim, found
}

func (p *LFUPolicy[K]) TracksReads() bool {
	return true
}
