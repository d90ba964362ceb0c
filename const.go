package lob

const (
	// EngineVersion is the current version of the matching engine
	EngineVersion = "v1.0.0"

	// NoPrice is reported as the best price of an empty side.
	// Limit prices must be positive, so it never collides with a resting price.
	NoPrice Price = 0

	defaultCapacity     = 1024
	defaultRingCapacity = 32768
	defaultDepthLimit   = 10
)
