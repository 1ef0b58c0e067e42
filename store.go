package fixturesql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DefaultCommandTimeout bounds every store operation unless configured otherwise.
const DefaultCommandTimeout = 30 * time.Second

// Store is the backing relational store. Every operation acquires its own
// connection and releases it before returning, on success and failure alike.
type Store struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
	logger  *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCommandTimeout overrides the per-call command timeout. Zero disables it.
func WithCommandTimeout(timeout time.Duration) StoreOption {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// OpenStore opens and pings the store described by cfg.
func OpenStore(ctx context.Context, cfg DBConfig, opts ...StoreOption) (*Store, error) {
	dialect, err := DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, &ConfigurationError{Key: keyDBDriver, Value: cfg.Driver, Err: err}
	}

	db, err := sql.Open(dialect.DriverName(), cfg.ConnectionString)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	opts = append([]StoreOption{WithCommandTimeout(cfg.CommandTimeout)}, opts...)
	s := NewStore(db, dialect, opts...)

	pingCtx, cancel := s.callContext(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close() // Ignore close error during error handling
		return nil, &StoreError{Op: "connect", Err: err}
	}

	s.logger.Debug("store opened", zap.Stringer("dialect", dialect))
	return s, nil
}

// NewStore wraps an already opened database handle.
func NewStore(db *sql.DB, dialect Dialect, opts ...StoreOption) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		timeout: DefaultCommandTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Logger returns the store's logger.
func (s *Store) Logger() *zap.Logger {
	return s.logger
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// withConn runs fn on a connection scoped to this single call.
func (s *Store) withConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return &StoreError{Op: "acquire connection", Err: err}
	}
	defer conn.Close()

	return fn(ctx, conn)
}
