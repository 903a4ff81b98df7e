package ordsync

// Option configures a Store with optional dependencies.
type Option func(*storeOptions)

// storeOptions holds optional Store configuration.
type storeOptions struct {
	hooks          *Hooks
	metrics        MetricsCollector
	logger         Logger
	channelFactory ChannelFactory
}

// WithHooks sets lifecycle event hooks.
//
// Example:
//
//	hooks := &ordsync.Hooks{
//	    OnRecordsChanged: func(ctx context.Context, records []ordsync.Record) error {
//	        render(records)
//	        return nil
//	    },
//	}
//	store, err := ordsync.NewStore(&cfg, conn, svc, ordsync.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *storeOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Example:
//
//	store, err := ordsync.NewStore(&cfg, conn, svc, ordsync.WithMetrics(myCollector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *storeOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	store, err := ordsync.NewStore(&cfg, conn, svc, ordsync.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithChannelFactory sets a custom change-channel factory.
//
// The default factory opens a NATS channel on the store's connection.
// Custom factories let tests drive the connection state machine without a
// transport, and let alternative transports plug in behind the same
// contract.
//
// When a factory is provided, the NATS connection passed to NewStore may be
// nil.
func WithChannelFactory(factory ChannelFactory) Option {
	return func(o *storeOptions) {
		o.channelFactory = factory
	}
}
