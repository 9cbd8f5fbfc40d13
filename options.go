package kvdb

// defaultWriteBufferSize is the MemBuffer size estimate, in bytes, at which
// a freeze is triggered. Matches the source's `2 << 12` (8192).
const defaultWriteBufferSize = 8192

// defaultCacheSize is the maximum number of open generation readers held by
// the bounded cache when the caller does not specify one.
const defaultCacheSize = 16

// Options is the closed set of tuning knobs the engine accepts, per the
// external interface contract: CreateIfMissing, WriteBufferSize, CacheSize,
// plus a Logger the core is otherwise silent without.
type Options struct {
	// CreateIfMissing creates the store directory when it does not exist.
	// When false, Open fails with a KindInvalidName error instead. Default
	// true.
	CreateIfMissing bool

	// WriteBufferSize is the estimated MemBuffer byte size at which the
	// engine freezes it and hands it to the background flusher. Default
	// 8192.
	WriteBufferSize int

	// CacheSize is the maximum number of open generation readers the
	// bounded LRU cache holds at once. Must be positive. Default 16.
	CacheSize int

	// Logger receives diagnostic messages the engine cannot return as
	// errors (background worker panics, a missing Close). Defaults to the
	// standard library's log.Default().
	Logger Logger
}

// DefaultOptions returns the Options that [Open] applies its [Option]
// values over, i.e. the defaults an [Option]-free call gets.
func DefaultOptions() Options {
	return Options{
		CreateIfMissing: true,
		WriteBufferSize: defaultWriteBufferSize,
		CacheSize:       defaultCacheSize,
		Logger:          defaultLogger(),
	}
}

// Option mutates an [Options] in place; applied over [DefaultOptions] by
// [Open].
type Option func(*Options)

// WithCreateIfMissing overrides whether Open creates a missing directory.
func WithCreateIfMissing(create bool) Option {
	return func(o *Options) { o.CreateIfMissing = create }
}

// WithWriteBufferSize overrides the freeze threshold, in bytes.
func WithWriteBufferSize(size int) Option {
	return func(o *Options) { o.WriteBufferSize = size }
}

// WithCacheSize overrides the generation-reader cache capacity.
func WithCacheSize(size int) Option {
	return func(o *Options) { o.CacheSize = size }
}

// WithLogger overrides the diagnostic logger.
func WithLogger(l Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// resolveOptions applies opts over DefaultOptions, filling in any remaining
// zero-valued fields opts leave unset.
func resolveOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.WriteBufferSize <= 0 {
		o.WriteBufferSize = defaultWriteBufferSize
	}

	if o.CacheSize <= 0 {
		o.CacheSize = defaultCacheSize
	}

	if o.Logger == nil {
		o.Logger = defaultLogger()
	}

	return o
}
