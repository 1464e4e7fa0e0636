package ports

// PreferenceStore is a per-user boolean key/value store that survives
// across sessions. Tasks use it to remember side effects that are not
// visible in the setup document, such as an already configured hostname.
type PreferenceStore interface {
	// Bool returns the stored value for key, false when absent.
	Bool(key string) bool
	// SetBool stores value for key and flushes it to durable storage.
	SetBool(key string, value bool) error
	// Close releases the store.
	Close() error
}
