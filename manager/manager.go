package manager

import (
	"log/slog"
)

// Manager is the repository engine. It resolves the store layout once at
// construction and performs no locking against concurrent external
// mutation; at most one operation is expected in flight per instance.
type Manager struct {
	layout   Layout
	logger   *slog.Logger
	verify   bool
	refCount bool
}

type Option func(*Manager)

// WithLogger injects the logger used for non-fatal diagnostics. The
// default discards nothing but writes at the handler's level; pass a
// custom handler to silence or redirect engine logs.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithVerify enables hashing of imported blobs against their digests.
// Disabled by default to preserve trust-on-read compatibility.
func WithVerify(verify bool) Option {
	return func(m *Manager) {
		m.verify = verify
	}
}

// WithRefCounting controls whether Delete keeps blobs still referenced by
// other manifests. Enabled by default; disable for exact compatibility
// with unconditional deletion.
func WithRefCounting(enabled bool) Option {
	return func(m *Manager) {
		m.refCount = enabled
	}
}

// New resolves the default repository root and returns a Manager for it.
func New(opts ...Option) (*Manager, error) {
	root, err := DefaultRoot()
	if err != nil {
		return nil, err
	}
	return NewWithLayout(ResolveLayout(root), opts...), nil
}

// NewWithLayout returns a Manager over an already-resolved layout.
func NewWithLayout(layout Layout, opts ...Option) *Manager {
	m := &Manager{
		layout:   layout,
		logger:   slog.Default(),
		refCount: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Layout returns the resolved store layout.
func (m *Manager) Layout() Layout {
	return m.layout
}
