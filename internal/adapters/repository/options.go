package repository

// Option applies a configuration option to Open.
type Option func(*options)

type options struct {
	path string
	dsn  string
}

// WithPath sets the directory of the file backend or the database file of
// the sqlite backend.
func WithPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.path = path
		}
	}
}

// WithDSN sets the postgres connection string.
func WithDSN(dsn string) Option {
	return func(o *options) {
		if dsn != "" {
			o.dsn = dsn
		}
	}
}
