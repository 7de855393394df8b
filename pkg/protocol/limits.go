package protocol

// Size limits applied when decoding bodies from the network.
const (
	// DefaultMaxBodySize bounds a refresh response or command body.
	// 4MB comfortably holds a page with thousands of elements.
	DefaultMaxBodySize = 4 << 20

	// DefaultMaxUpdates bounds the number of records in one refresh.
	DefaultMaxUpdates = 65536
)

// Limits configures decoding limits.
// Use DefaultLimits() for sensible defaults.
type Limits struct {
	// MaxBodySize is the maximum number of bytes read from a body.
	MaxBodySize int64

	// MaxUpdates is the maximum number of records in a refresh response.
	MaxUpdates int
}

// DefaultLimits returns the default decoding limits.
func DefaultLimits() *Limits {
	return &Limits{
		MaxBodySize: DefaultMaxBodySize,
		MaxUpdates:  DefaultMaxUpdates,
	}
}
