package speccache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// Lookup outcome for a caller key.
	Hit(key string)
	Miss(key string)

	// A caller shared a flight started by another caller.
	Coalesced(key string)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "expired", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// A compute function returned an error or panicked.
	ComputeFailed(key string, err error)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors (snapshot or bump).
	// count is number of keys involved.
	GenSnapshotError(count int, err error)
	GenBumpError(storageKey string, err error)

	// Both gen bump and delete failed during Remove (likely backend outage).
	RemoveOutage(key string, bumpErr, delErr error)
}

// NopHooks is the default no-op implementation.
type NopHooks struct{}

func (NopHooks) Hit(string)                        {}
func (NopHooks) Miss(string)                       {}
func (NopHooks) Coalesced(string)                  {}
func (NopHooks) SelfHeal(string, string)           {}
func (NopHooks) ComputeFailed(string, error)       {}
func (NopHooks) ProviderSetRejected(string)        {}
func (NopHooks) GenSnapshotError(int, error)       {}
func (NopHooks) GenBumpError(string, error)        {}
func (NopHooks) RemoveOutage(string, error, error) {}

// MultiHooks fans every event out to each of its members in order.
type MultiHooks []Hooks

var _ Hooks = MultiHooks(nil)

func (m MultiHooks) Hit(k string) {
	for _, h := range m {
		h.Hit(k)
	}
}

func (m MultiHooks) Miss(k string) {
	for _, h := range m {
		h.Miss(k)
	}
}

func (m MultiHooks) Coalesced(k string) {
	for _, h := range m {
		h.Coalesced(k)
	}
}

func (m MultiHooks) SelfHeal(k, reason string) {
	for _, h := range m {
		h.SelfHeal(k, reason)
	}
}

func (m MultiHooks) ComputeFailed(k string, err error) {
	for _, h := range m {
		h.ComputeFailed(k, err)
	}
}

func (m MultiHooks) ProviderSetRejected(k string) {
	for _, h := range m {
		h.ProviderSetRejected(k)
	}
}

func (m MultiHooks) GenSnapshotError(n int, err error) {
	for _, h := range m {
		h.GenSnapshotError(n, err)
	}
}

func (m MultiHooks) GenBumpError(k string, err error) {
	for _, h := range m {
		h.GenBumpError(k, err)
	}
}

func (m MultiHooks) RemoveOutage(k string, bumpErr, delErr error) {
	for _, h := range m {
		h.RemoveOutage(k, bumpErr, delErr)
	}
}
