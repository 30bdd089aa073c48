// Package network provides the application-level service for MetaNet.  It
// sits between the HTTP/CLI surfaces and the domain packages: it owns the
// loaded registry, caches closure results and records metrics.
package network

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/MetaNet/internal/domain/formula"
	domainnet "github.com/turtacn/MetaNet/internal/domain/network"
	"github.com/turtacn/MetaNet/internal/infrastructure/database/redis"
	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MetaNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaNet/pkg/errors"
	"github.com/turtacn/MetaNet/pkg/types/common"
	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

// Service defines the interface for network application operations.
type Service interface {
	ParseFormula(ctx context.Context, req *networktypes.ParseFormulaRequest) (*networktypes.FormulaDTO, error)
	CompareFormulas(ctx context.Context, req *networktypes.CompareFormulasRequest) (*networktypes.CompareFormulasResponse, error)
	ComputeClosure(ctx context.Context, compartment int, req *networktypes.ClosureRequest) (*networktypes.ClosureResponse, error)
	CheckBalance(ctx context.Context, reaction int) (*networktypes.BalanceResponse, error)
	CheckAllBalances(ctx context.Context, compartment int) ([]*networktypes.BalanceResponse, error)
	DescribeCompartment(ctx context.Context, id int) (*networktypes.CompartmentResponse, error)
	Load(ctx context.Context, repo domainnet.Repository) (*networktypes.NetworkSummary, error)
	Save(ctx context.Context, repo domainnet.Repository) error
	Summary() networktypes.NetworkSummary
	Health(ctx context.Context) common.HealthReport
}

// ClosureCache stores closure results.  *redis.ClosureCache implements it.
type ClosureCache interface {
	GetOrCompute(ctx context.Context, key string,
		compute func(ctx context.Context) (networktypes.ClosureResponse, error)) (networktypes.ClosureResponse, error)
	InvalidateAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// HealthCheckFunc probes one dependency.
type HealthCheckFunc func(ctx context.Context) error

// Options holds the tunables taken from configuration.
type Options struct {
	// MaxPasses bounds closure computations; zero is unbounded.
	MaxPasses int
	// Verify rejects a loaded network whose references do not resolve.
	Verify bool
}

// Option configures the service.
type Option func(*serviceImpl)

// WithMetrics records service metrics on m.
func WithMetrics(m *prom.NetworkMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithParser parses formulas with p.  The default parser uses
// formula.DefaultOptions.
func WithParser(p *formula.Parser) Option {
	return func(s *serviceImpl) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithClosureCache caches closure results in c.
func WithClosureCache(c ClosureCache) Option {
	return func(s *serviceImpl) {
		s.cache = c
		s.checks = append(s.checks, namedCheck{name: "redis", check: c.Ping})
	}
}

// WithHealthCheck adds a dependency probe to Health.
func WithHealthCheck(name string, check HealthCheckFunc) Option {
	return func(s *serviceImpl) {
		s.checks = append(s.checks, namedCheck{name: name, check: check})
	}
}

type namedCheck struct {
	name  string
	check HealthCheckFunc
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	opts    Options
	parser  *formula.Parser
	logger  logging.Logger
	metrics *prom.NetworkMetrics
	cache   ClosureCache
	checks  []namedCheck

	mu  sync.RWMutex
	reg *domainnet.Registry
}

// NewService creates a network service over an empty registry.
func NewService(opts Options, logger logging.Logger, options ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		opts:   opts,
		parser: formula.NewParser(formula.DefaultOptions()),
		logger: logger.Named("network"),
		reg:    domainnet.NewRegistry(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

func (s *serviceImpl) registry() *domainnet.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

// ─────────────────────────────────────────────────────────────────────────────
// Formulas
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) ParseFormula(ctx context.Context, req *networktypes.ParseFormulaRequest) (*networktypes.FormulaDTO, error) {
	if req == nil {
		return nil, errors.NewValidationError("formula", "request is required")
	}
	parser := s.parser
	if req.VariableReplacement != nil {
		if *req.VariableReplacement < 0 {
			return nil, errors.NewValidationError("variable_replacement", "must not be negative")
		}
		parser = formula.NewParser(formula.Options{VariableReplacement: *req.VariableReplacement})
	}
	f, err := s.parse(ctx, parser, req.Formula)
	if err != nil {
		return nil, err
	}
	return toFormulaDTO(req.Formula, f), nil
}

func (s *serviceImpl) CompareFormulas(ctx context.Context, req *networktypes.CompareFormulasRequest) (*networktypes.CompareFormulasResponse, error) {
	if req == nil {
		return nil, errors.NewValidationError("formula", "request is required")
	}
	left, err := s.parse(ctx, s.parser, req.Left)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "left formula")
	}
	right, err := s.parse(ctx, s.parser, req.Right)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "right formula")
	}
	diff := left.StoichiometricDifference(right)
	return &networktypes.CompareFormulasResponse{
		Left:                     *toFormulaDTO(req.Left, left),
		Right:                    *toFormulaDTO(req.Right, right),
		Equal:                    left.Equal(right),
		Sum:                      formula.Unite(left, right).String(),
		StoichiometricDifference: diff.String(),
		ElementDifference:        left.ElementDifference(right).String(),
		DifferenceLaTeX:          diff.LaTeXDiff(),
	}, nil
}

func (s *serviceImpl) parse(ctx context.Context, p *formula.Parser, text string) (formula.Formula, error) {
	start := time.Now()
	f, err := p.Parse(text)
	s.metrics.RecordParse(time.Since(start), err)
	if err != nil {
		s.logger.WithContext(ctx).Debug("formula rejected",
			logging.String("formula", text), logging.Err(err))
		return formula.Formula{}, err
	}
	return f, nil
}

func toFormulaDTO(input string, f formula.Formula) *networktypes.FormulaDTO {
	return &networktypes.FormulaDTO{
		Input:     input,
		Canonical: f.String(),
		LaTeX:     f.LaTeX(),
		Elements:  f.Elements(),
		Atoms:     f.Atoms(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Closure
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) ComputeClosure(ctx context.Context, compartment int, req *networktypes.ClosureRequest) (*networktypes.ClosureResponse, error) {
	if req == nil {
		req = &networktypes.ClosureRequest{}
	}
	reg := s.registry()
	c, err := reg.Compartment(domainnet.ID(compartment))
	if err != nil {
		return nil, err
	}
	rs := c.Reactions()
	if len(req.Reactions) > 0 {
		rs = domainnet.NewReactionSet(toIDs(req.Reactions)...)
	}
	reactions, err := rs.Reactions(reg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("closure in compartment %d", compartment))
	}
	seed := domainnet.NewIDSet(toIDs(req.Seed)...)

	compute := func(ctx context.Context) (networktypes.ClosureResponse, error) {
		return s.closure(ctx, reg, seed, rs, c)
	}
	var res networktypes.ClosureResponse
	if s.cache != nil {
		key := redis.ClosureKey(compartment, Fingerprint(c.ID(), reactions, seed))
		res, err = s.cache.GetOrCompute(ctx, key, compute)
		s.metrics.RecordCacheAccess(err == nil && res.Cached)
		if err == nil && res.Cached {
			s.metrics.RecordClosureCacheHit()
		}
	} else {
		res, err = compute(ctx)
	}
	if err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).Info("closure computed",
		logging.Int(logging.FieldCompartment, compartment),
		logging.Int("seed", len(res.Seed)),
		logging.Int("size", len(res.Substances)),
		logging.Int("passes", res.Passes),
		logging.Bool("cached", res.Cached))
	return &res, nil
}

func (s *serviceImpl) closure(ctx context.Context, reg *domainnet.Registry, seed domainnet.IDSet,
	rs *domainnet.ReactionSet, c *domainnet.Compartment) (networktypes.ClosureResponse, error) {
	engine := domainnet.NewClosureEngine(reg,
		domainnet.WithLogger(s.logger.WithContext(ctx)),
		domainnet.WithMaxPasses(s.opts.MaxPasses))
	start := time.Now()
	result, err := engine.Closure(seed, rs, c)
	label := strconv.Itoa(int(c.ID()))
	s.metrics.RecordClosure(label, result.Passes, result.Substances.Len(), time.Since(start), err)
	if err != nil {
		s.metrics.RecordError("closure", errors.GetCode(err).String())
		return networktypes.ClosureResponse{}, err
	}
	return networktypes.ClosureResponse{
		Compartment: int(c.ID()),
		Seed:        seed.Ints(),
		Substances:  result.Substances.Ints(),
		Added:       result.Added(seed).Ints(),
		Passes:      result.Passes,
	}, nil
}

// Fingerprint digests everything a closure in compartment cid depends on:
// each reaction's id, its direction in cid and both sides, plus the seed.
func Fingerprint(cid domainnet.ID, reactions []*domainnet.Reaction, seed domainnet.IDSet) string {
	sorted := append([]*domainnet.Reaction(nil), reactions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })

	h := sha256.New()
	for _, r := range sorted {
		d, _ := r.Direction(cid)
		fmt.Fprintf(h, "r%d:%d|", r.ID(), d)
		writeSide(h, "s", r.Substrates())
		writeSide(h, "p", r.Products())
	}
	h.Write([]byte("seed"))
	for _, id := range seed.Sorted() {
		fmt.Fprintf(h, ":%d", id)
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func writeSide(w interface{ Write([]byte) (int, error) }, tag string, side map[domainnet.ID]int) {
	ids := make([]int, 0, len(side))
	for id := range side {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var sb strings.Builder
	sb.WriteString(tag)
	for _, id := range ids {
		fmt.Fprintf(&sb, ",%d*%d", id, side[domainnet.ID(id)])
	}
	sb.WriteString("|")
	_, _ = w.Write([]byte(sb.String()))
}

func toIDs(ints []int) []domainnet.ID {
	out := make([]domainnet.ID, len(ints))
	for i, v := range ints {
		out[i] = domainnet.ID(v)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Reactions and compartments
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) CheckBalance(ctx context.Context, reaction int) (*networktypes.BalanceResponse, error) {
	reg := s.registry()
	r, err := reg.Reaction(domainnet.ID(reaction))
	if err != nil {
		return nil, err
	}
	res, err := balance(reg, r)
	s.metrics.RecordBalance(err == nil && res.Balanced, err)
	if err != nil {
		s.metrics.RecordError("balance", errors.GetCode(err).String())
		return nil, err
	}
	s.logger.WithContext(ctx).Info("balance checked",
		logging.Int(logging.FieldReaction, reaction),
		logging.Bool("balanced", res.Balanced))
	return res, nil
}

func (s *serviceImpl) CheckAllBalances(ctx context.Context, compartment int) ([]*networktypes.BalanceResponse, error) {
	reg := s.registry()
	c, err := reg.Compartment(domainnet.ID(compartment))
	if err != nil {
		return nil, err
	}
	reactions, err := c.Reactions().Reactions(reg)
	if err != nil {
		return nil, err
	}
	out := make([]*networktypes.BalanceResponse, 0, len(reactions))
	unbalanced := 0
	for _, r := range reactions {
		res, err := balance(reg, r)
		s.metrics.RecordBalance(err == nil && res.Balanced, err)
		if err != nil {
			return nil, err
		}
		if !res.Balanced {
			unbalanced++
		}
		out = append(out, res)
	}
	s.logger.WithContext(ctx).Info("compartment balance checked",
		logging.Int(logging.FieldCompartment, compartment),
		logging.Int("reactions", len(out)),
		logging.Int("unbalanced", unbalanced))
	return out, nil
}

func balance(dir domainnet.Directory, r *domainnet.Reaction) (*networktypes.BalanceResponse, error) {
	left, right, err := r.SideFormulas(dir)
	if err != nil {
		return nil, err
	}
	res := &networktypes.BalanceResponse{
		Reaction:            int(r.ID()),
		Name:                r.MainName(),
		Balanced:            left.Equal(right),
		Substrates:          left.String(),
		Products:            right.String(),
		UnchangedSubstances: r.HasUnchangedSubstances(),
	}
	if !res.Balanced {
		res.Imbalance = left.StoichiometricDifference(right).String()
	}
	return res, nil
}

func (s *serviceImpl) DescribeCompartment(ctx context.Context, id int) (*networktypes.CompartmentResponse, error) {
	reg := s.registry()
	c, err := reg.Compartment(domainnet.ID(id))
	if err != nil {
		return nil, err
	}
	utilized, err := c.UtilizedSubstances(reg)
	if err != nil {
		return nil, err
	}
	res := &networktypes.CompartmentResponse{
		ID:                 id,
		Name:               c.MainName(),
		Names:              c.Names(),
		URNs:               c.URNs(),
		Reactions:          idInts(c.Reactions().IDs()),
		Enzymes:            c.Enzymes().Ints(),
		Containing:         c.ContainingCompartments(reg).Ints(),
		UtilizedSubstances: utilized.Ints(),
	}
	if c.ContainmentKnown() {
		res.Contained = c.DirectlyContained().Ints()
		recursive, err := c.ContainedCompartments(reg, true)
		if err != nil {
			return nil, err
		}
		res.ContainedRecursive = recursive.Ints()
	}
	s.logger.WithContext(ctx).Debug("compartment described", logging.Int(logging.FieldCompartment, id))
	return res, nil
}

func idInts(ids []domainnet.ID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// Load reads a whole network from repo into a fresh registry and swaps it in.
// The previous registry stays active when loading or verification fails.
func (s *serviceImpl) Load(ctx context.Context, repo domainnet.Repository) (*networktypes.NetworkSummary, error) {
	if repo == nil {
		return nil, errors.NewValidationError("repository", "repository is required")
	}
	reg := domainnet.NewRegistry()
	if err := repo.Load(ctx, reg); err != nil {
		s.logger.Error("network load failed", logging.Err(err))
		return nil, err
	}
	if s.opts.Verify {
		if err := domainnet.Verify(reg); err != nil {
			s.logger.Error("network verification failed", logging.Err(err))
			return nil, err
		}
	}

	s.mu.Lock()
	s.reg = reg
	s.mu.Unlock()

	if s.cache != nil {
		if n, err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.Warn("closure cache invalidation failed", logging.Err(err))
		} else if n > 0 {
			s.logger.Debug("closure cache invalidated", logging.Int64("keys", n))
		}
	}

	summary := summarize(reg)
	s.metrics.SetRegistrySize("substance", summary.Substances)
	s.metrics.SetRegistrySize("reaction", summary.Reactions)
	s.metrics.SetRegistrySize("compartment", summary.Compartments)
	s.logger.Info("network loaded",
		logging.Int("substances", summary.Substances),
		logging.Int("reactions", summary.Reactions),
		logging.Int("compartments", summary.Compartments))
	return &summary, nil
}

// Save writes the active registry to repo.
func (s *serviceImpl) Save(ctx context.Context, repo domainnet.Repository) error {
	if repo == nil {
		return errors.NewValidationError("repository", "repository is required")
	}
	if err := repo.Save(ctx, s.registry()); err != nil {
		s.logger.Error("network save failed", logging.Err(err))
		return err
	}
	return nil
}

func (s *serviceImpl) Summary() networktypes.NetworkSummary {
	return summarize(s.registry())
}

func summarize(reg *domainnet.Registry) networktypes.NetworkSummary {
	return networktypes.NetworkSummary{
		Substances:   len(reg.Substances()),
		Reactions:    len(reg.Reactions()),
		Compartments: len(reg.Compartments()),
	}
}

// Health probes every registered dependency.
func (s *serviceImpl) Health(ctx context.Context) common.HealthReport {
	components := make([]common.ComponentHealth, 0, len(s.checks))
	for _, c := range s.checks {
		start := time.Now()
		err := c.check(ctx)
		h := common.ComponentHealth{Name: c.name, Status: common.HealthUp, Latency: time.Since(start)}
		if err != nil {
			h.Status = common.HealthDown
			h.Message = err.Error()
			s.logger.Warn("dependency unhealthy", logging.String(logging.FieldComponent, c.name), logging.Err(err))
		}
		components = append(components, h)
	}
	return common.NewHealthReport(components...)
}
