package protocol

// MaxValueDepth limits nesting of arrays and maps in one message. Values are
// acyclic, so the limit only guards the decoder's stack against hostile input.
const MaxValueDepth = 128

// Limits configures a Codec.
type Limits struct {
	// MaxDepth is the maximum Array/Map nesting depth accepted on either
	// side. Zero means MaxValueDepth.
	MaxDepth int
}

// DefaultLimits returns the default codec limits.
func DefaultLimits() Limits {
	return Limits{MaxDepth: MaxValueDepth}
}

func (l Limits) maxDepth() int {
	if l.MaxDepth <= 0 {
		return MaxValueDepth
	}
	return l.MaxDepth
}
