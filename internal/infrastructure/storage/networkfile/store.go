package networkfile

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/turtacn/MetaNet/internal/domain/formula"
	"github.com/turtacn/MetaNet/internal/domain/network"
	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MetaNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaNet/pkg/errors"
)

// SamplePath selects the bundled demonstration network instead of a file.
const SamplePath = "builtin:sample"

// Store is a network.Repository backed by one YAML file.
type Store struct {
	path    string
	parser  *formula.Parser
	log     logging.Logger
	metrics *prom.NetworkMetrics
}

var _ network.Repository = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithParser sets the formula parser; the default uses a replacement of 5.
func WithParser(p *formula.Parser) Option {
	return func(s *Store) {
		if p != nil {
			s.parser = p
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *prom.NetworkMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore returns a Store reading and writing path.  SamplePath is
// read-only.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		parser: formula.NewParser(formula.DefaultOptions()),
		log:    logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.Named("networkfile")
	return s
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) open() (io.ReadCloser, error) {
	if s.path == SamplePath {
		return io.NopCloser(bytes.NewReader(sampleDocument)), nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "network document not found").WithDetail("path=" + s.path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cannot open network document").WithDetail("path=" + s.path)
	}
	return f, nil
}

// Load parses the document and registers every component into reg.  Nothing
// is registered when the document is invalid.
func (s *Store) Load(ctx context.Context, reg *network.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	rc, err := s.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	doc, err := Decode(rc)
	if err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "cannot load "+s.path)
	}
	components, err := doc.Components(s.parser)
	if err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "cannot load "+s.path)
	}
	reg.RegisterAll(components...)

	s.metrics.RecordLoad("file", time.Since(start))
	s.log.Info("network loaded",
		logging.String("source", s.path),
		logging.Int("substances", len(doc.Substances)),
		logging.Int("reactions", len(doc.Reactions)),
		logging.Int("compartments", len(doc.Compartments)),
	)
	return nil
}

// Save writes reg to a temporary file next to the target and renames it into
// place.
func (s *Store) Save(ctx context.Context, reg *network.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == SamplePath {
		return errors.New(errors.ErrCodeBadRequest, "the bundled sample network is read-only")
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".network-*.yaml")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot create temporary network document").WithDetail("dir=" + dir)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, FromRegistry(reg)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot write network document")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot replace network document").WithDetail("path=" + s.path)
	}
	s.log.Info("network saved", logging.String("target", s.path), logging.Int("components", reg.Len()))
	return nil
}
