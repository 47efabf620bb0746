package plan

// CollectionCache stores parsed per-source collections keyed by source file
// stem, so a manifest only has to be parsed once across runs. The on-disk
// or in-memory representation is an implementation detail of the cache.
type CollectionCache interface {
	// Get returns the cached collection for key, if present.
	Get(key string) (*Collection, bool)

	// Put stores the collection under key.
	Put(key string, c *Collection) error
}
