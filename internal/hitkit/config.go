package hitkit

// ServerConfig carries the validated runtime configuration shared by the
// server wiring.
type ServerConfig struct {
	DataDir          string
	BroadcastURL     string
	BadgeLabel       string
	FingerprintWidth int
	FeedBuffer       int
}

// RoutesConfig carries the knobs of the badge HTTP surface.
type RoutesConfig struct {
	// BadgeCacheControl overrides the Cache-Control header sent with badge
	// responses. Empty selects the no-cache default; badges that get cached
	// by intermediaries stop generating hits.
	BadgeCacheControl string
}
