package ecache

// ByteView 一个不可变的字节数组视图，Group中缓存的值
type ByteView struct {
	b []byte
}

// NewByteView 拷贝一份b，调用方之后修改b不影响缓存
func NewByteView(b []byte) ByteView {
	return ByteView{b: cloneBytes(b)}
}

func (v ByteView) Len() int {
	return len(v.b)
}

func (v ByteView) ByteSlice() []byte {
	return cloneBytes(v.b)
}

func (v ByteView) String() string {
	return string(v.b)
}

func cloneBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
