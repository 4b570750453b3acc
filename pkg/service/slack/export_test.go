package slack

// Export internal functions for testing
var (
	TruncateToMaxBytes = truncateToMaxBytes
	FallbackText       = fallbackText
)
