package stats

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the per-type weights. They are validated by NewEngine.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithGlobalMode sets the global-mode pass mark and distribution ranges.
func WithGlobalMode(threshold float64, boundaries []float64) Option {
	return func(e *Engine) {
		e.global = Mode{Threshold: threshold, Boundaries: append([]float64(nil), boundaries...)}
	}
}

// WithClassMode sets the class-mode pass mark and distribution ranges.
func WithClassMode(threshold float64, boundaries []float64) Option {
	return func(e *Engine) {
		e.class = Mode{Threshold: threshold, Boundaries: append([]float64(nil), boundaries...)}
	}
}

// WithSampleSize bounds the learner sample returned in global mode.
func WithSampleSize(n int) Option {
	return func(e *Engine) {
		e.sampleSize = n
	}
}

// WithBucketOptions forwards options to every Bucketer the engine builds.
func WithBucketOptions(opts ...BucketOption) Option {
	return func(e *Engine) {
		e.bucketOptions = append(e.bucketOptions, opts...)
	}
}
