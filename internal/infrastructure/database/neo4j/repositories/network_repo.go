package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/MetaNet/internal/domain/formula"
	"github.com/turtacn/MetaNet/internal/domain/network"
	driver "github.com/turtacn/MetaNet/internal/infrastructure/database/neo4j"
	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MetaNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaNet/pkg/errors"
)

// Graph layout:
//
//	(:Substance {id, names, urns, main_name, formula})
//	(:Reaction {id, names, urns, main_name})
//	(:Compartment {id, names, urns, main_name, containment_known})
//	(:Reaction)-[:CONSUMES|PRODUCES {stoichiometry}]->(:Substance)
//	(:Reaction)-[:ENABLED_IN {direction}]->(:Compartment)
//	(:Compartment)-[:HOSTS]->(:Reaction)
//	(:Compartment)-[:CONTAINS]->(:Compartment)
//	(:Compartment)-[:HAS_ENZYME]->(:Substance)
const (
	cypherLoadSubstances = `MATCH (s:Substance)
RETURN s.id AS id, s.names AS names, s.urns AS urns, s.main_name AS main_name, s.formula AS formula
ORDER BY id`
	cypherLoadReactions = `MATCH (r:Reaction)
RETURN r.id AS id, r.names AS names, r.urns AS urns, r.main_name AS main_name
ORDER BY id`
	cypherLoadParticipants = `MATCH (r:Reaction)-[e:CONSUMES|PRODUCES]->(s:Substance)
RETURN r.id AS reaction, type(e) AS role, s.id AS substance, e.stoichiometry AS stoichiometry`
	cypherLoadDirections = `MATCH (r:Reaction)-[e:ENABLED_IN]->(c:Compartment)
RETURN r.id AS reaction, c.id AS compartment, e.direction AS direction`
	cypherLoadCompartments = `MATCH (c:Compartment)
RETURN c.id AS id, c.names AS names, c.urns AS urns, c.main_name AS main_name, c.containment_known AS containment_known
ORDER BY id`
	cypherLoadHosted = `MATCH (c:Compartment)-[:HOSTS]->(r:Reaction)
RETURN c.id AS compartment, r.id AS reaction`
	cypherLoadContainment = `MATCH (c:Compartment)-[:CONTAINS]->(d:Compartment)
RETURN c.id AS compartment, d.id AS contained`
	cypherLoadEnzymes = `MATCH (c:Compartment)-[:HAS_ENZYME]->(s:Substance)
RETURN c.id AS compartment, s.id AS substance`

	cypherClear = `MATCH (n) WHERE n:Substance OR n:Reaction OR n:Compartment DETACH DELETE n`

	cypherSaveSubstances = `UNWIND $rows AS row
CREATE (:Substance {id: row.id, names: row.names, urns: row.urns, main_name: row.main_name, formula: row.formula})`
	cypherSaveReactions = `UNWIND $rows AS row
CREATE (:Reaction {id: row.id, names: row.names, urns: row.urns, main_name: row.main_name})`
	cypherSaveCompartments = `UNWIND $rows AS row
CREATE (:Compartment {id: row.id, names: row.names, urns: row.urns, main_name: row.main_name, containment_known: row.containment_known})`
	cypherSaveSubstrates = `UNWIND $rows AS row
MATCH (r:Reaction {id: row.reaction}), (s:Substance {id: row.substance})
CREATE (r)-[:CONSUMES {stoichiometry: row.stoichiometry}]->(s)`
	cypherSaveProducts = `UNWIND $rows AS row
MATCH (r:Reaction {id: row.reaction}), (s:Substance {id: row.substance})
CREATE (r)-[:PRODUCES {stoichiometry: row.stoichiometry}]->(s)`
	cypherSaveDirections = `UNWIND $rows AS row
MATCH (r:Reaction {id: row.reaction}), (c:Compartment {id: row.compartment})
CREATE (r)-[:ENABLED_IN {direction: row.direction}]->(c)`
	cypherSaveHosted = `UNWIND $rows AS row
MATCH (c:Compartment {id: row.compartment}), (r:Reaction {id: row.reaction})
CREATE (c)-[:HOSTS]->(r)`
	cypherSaveContainment = `UNWIND $rows AS row
MATCH (c:Compartment {id: row.compartment}), (d:Compartment {id: row.contained})
CREATE (c)-[:CONTAINS]->(d)`
	cypherSaveEnzymes = `UNWIND $rows AS row
MATCH (c:Compartment {id: row.compartment}), (s:Substance {id: row.substance})
CREATE (c)-[:HAS_ENZYME]->(s)`
)

var schemaStatements = []string{
	`CREATE CONSTRAINT substance_id IF NOT EXISTS FOR (s:Substance) REQUIRE s.id IS UNIQUE`,
	`CREATE CONSTRAINT reaction_id IF NOT EXISTS FOR (r:Reaction) REQUIRE r.id IS UNIQUE`,
	`CREATE CONSTRAINT compartment_id IF NOT EXISTS FOR (c:Compartment) REQUIRE c.id IS UNIQUE`,
}

// NetworkRepo stores a metabolic network as a property graph.
type NetworkRepo struct {
	exec    driver.Executor
	log     logging.Logger
	metrics *prom.NetworkMetrics
	parser  *formula.Parser
}

var _ network.Repository = (*NetworkRepo)(nil)

// RepoOption configures a NetworkRepo.
type RepoOption func(*NetworkRepo)

// WithParser parses stored formulas with p instead of the default parser.
func WithParser(p *formula.Parser) RepoOption {
	return func(r *NetworkRepo) {
		if p != nil {
			r.parser = p
		}
	}
}

// NewNetworkRepo builds a repository over exec.  metrics may be nil.
func NewNetworkRepo(exec driver.Executor, log logging.Logger, metrics *prom.NetworkMetrics, opts ...RepoOption) *NetworkRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	r := &NetworkRepo{
		exec:    exec,
		log:     log.Named("network_repo"),
		metrics: metrics,
		parser:  formula.NewParser(formula.DefaultOptions()),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// EnsureSchema creates the id uniqueness constraints.  Schema changes cannot
// share a transaction with data writes, so each runs on its own.
func (r *NetworkRepo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		stmt := stmt
		_, err := r.exec.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
			return nil, r.run(ctx, tx, "ensure_schema", stmt, nil, nil)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// run executes one statement, feeding each record to each when it is not nil.
func (r *NetworkRepo) run(ctx context.Context, tx driver.Transaction, op, cypher string, params map[string]any, each func(*neo4j.Record) error) error {
	start := time.Now()
	records := 0
	res, err := tx.Run(ctx, cypher, params)
	if err == nil {
		for res.Next(ctx) {
			records++
			if each == nil {
				continue
			}
			if err = each(res.Record()); err != nil {
				break
			}
		}
		if err == nil {
			err = res.Err()
		}
	}
	elapsed := time.Since(start)
	logging.LogQuery(r.log, op, elapsed, records, err)
	r.metrics.RecordGraphQuery(op, elapsed)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Load
// ─────────────────────────────────────────────────────────────────────────────

// staged holds the components read by one transaction attempt.
type staged struct {
	substances   []*network.Substance
	reactions    map[network.ID]*network.Reaction
	compartments map[network.ID]*network.Compartment
	order        []network.Component
}

// Load reads the whole graph and registers it into reg.  Nothing is
// registered when any query or decode fails.
func (r *NetworkRepo) Load(ctx context.Context, reg *network.Registry) error {
	start := time.Now()
	out, err := r.exec.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		return r.loadTx(ctx, tx)
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "cannot load network from neo4j")
	}
	st := out.(*staged)
	reg.RegisterAll(st.order...)
	r.metrics.RecordLoad("neo4j", time.Since(start))
	r.log.Info("network loaded",
		logging.String("source", "neo4j"),
		logging.Int("substances", len(st.substances)),
		logging.Int("reactions", len(st.reactions)),
		logging.Int("compartments", len(st.compartments)),
	)
	return nil
}

func (r *NetworkRepo) loadTx(ctx context.Context, tx driver.Transaction) (*staged, error) {
	st := &staged{
		reactions:    make(map[network.ID]*network.Reaction),
		compartments: make(map[network.ID]*network.Compartment),
	}

	err := r.run(ctx, tx, "load_substances", cypherLoadSubstances, nil, func(rec *neo4j.Record) error {
		id, err := idValue(rec, "id")
		if err != nil {
			return err
		}
		s := network.NewSubstance(id)
		if err := decodeIdentity(rec, s); err != nil {
			return err
		}
		// A null property means no formula; "" is the empty formula.
		text, hasFormula, err := optionalStringValue(rec, "formula")
		if err != nil {
			return err
		}
		if hasFormula {
			f, err := r.parser.Parse(text)
			if err != nil {
				return errors.Wrap(err, errors.CodeUnknown, "stored formula does not parse").
					WithDetail(fmt.Sprintf("substance=%d formula=%q", id, text))
			}
			s.SetFormula(f)
		}
		st.substances = append(st.substances, s)
		st.order = append(st.order, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.run(ctx, tx, "load_reactions", cypherLoadReactions, nil, func(rec *neo4j.Record) error {
		id, err := idValue(rec, "id")
		if err != nil {
			return err
		}
		rx := network.NewReaction(id)
		if err := decodeIdentity(rec, rx); err != nil {
			return err
		}
		st.reactions[id] = rx
		st.order = append(st.order, rx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.run(ctx, tx, "load_participants", cypherLoadParticipants, nil, func(rec *neo4j.Record) error {
		rx, err := st.reaction(rec, "reaction")
		if err != nil {
			return err
		}
		sid, err := idValue(rec, "substance")
		if err != nil {
			return err
		}
		n, err := int64Value(rec, "stoichiometry")
		if err != nil {
			return err
		}
		role, err := stringValue(rec, "role")
		if err != nil {
			return err
		}
		switch role {
		case "CONSUMES":
			return rx.AddSubstrate(sid, int(n))
		case "PRODUCES":
			return rx.AddProduct(sid, int(n))
		default:
			return errors.New(errors.ErrCodeSerialization, "unknown participant role").WithDetail("role=" + role)
		}
	})
	if err != nil {
		return nil, err
	}

	err = r.run(ctx, tx, "load_compartments", cypherLoadCompartments, nil, func(rec *neo4j.Record) error {
		id, err := idValue(rec, "id")
		if err != nil {
			return err
		}
		c := network.NewCompartment(id)
		if err := decodeIdentity(rec, c); err != nil {
			return err
		}
		known, err := boolValue(rec, "containment_known")
		if err != nil {
			return err
		}
		if known {
			c.AddContainedCompartments()
		}
		st.compartments[id] = c
		st.order = append(st.order, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.run(ctx, tx, "load_directions", cypherLoadDirections, nil, func(rec *neo4j.Record) error {
		rx, err := st.reaction(rec, "reaction")
		if err != nil {
			return err
		}
		cid, err := idValue(rec, "compartment")
		if err != nil {
			return err
		}
		text, err := stringValue(rec, "direction")
		if err != nil {
			return err
		}
		d, err := network.ParseDirection(text)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "stored direction is invalid")
		}
		return rx.SetDirection(cid, d)
	})
	if err != nil {
		return nil, err
	}

	err = r.run(ctx, tx, "load_hosted", cypherLoadHosted, nil, func(rec *neo4j.Record) error {
		c, err := st.compartment(rec, "compartment")
		if err != nil {
			return err
		}
		rid, err := idValue(rec, "reaction")
		if err != nil {
			return err
		}
		c.AddReaction(rid)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.run(ctx, tx, "load_containment", cypherLoadContainment, nil, func(rec *neo4j.Record) error {
		c, err := st.compartment(rec, "compartment")
		if err != nil {
			return err
		}
		inner, err := idValue(rec, "contained")
		if err != nil {
			return err
		}
		c.AddContainedCompartment(inner)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.run(ctx, tx, "load_enzymes", cypherLoadEnzymes, nil, func(rec *neo4j.Record) error {
		c, err := st.compartment(rec, "compartment")
		if err != nil {
			return err
		}
		sid, err := idValue(rec, "substance")
		if err != nil {
			return err
		}
		c.AddEnzymes(sid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (st *staged) reaction(rec *neo4j.Record, key string) (*network.Reaction, error) {
	id, err := idValue(rec, key)
	if err != nil {
		return nil, err
	}
	rx, ok := st.reactions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeDanglingReference, "edge references an unknown reaction").
			WithDetail(fmt.Sprintf("id=%d", id))
	}
	return rx, nil
}

func (st *staged) compartment(rec *neo4j.Record, key string) (*network.Compartment, error) {
	id, err := idValue(rec, key)
	if err != nil {
		return nil, err
	}
	c, ok := st.compartments[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeDanglingReference, "edge references an unknown compartment").
			WithDetail(fmt.Sprintf("id=%d", id))
	}
	return c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────────────────

type statement struct {
	op     string
	cypher string
	rows   []map[string]any
}

// Save replaces the stored network with the contents of reg in one write
// transaction.
func (r *NetworkRepo) Save(ctx context.Context, reg *network.Registry) error {
	stmts := buildStatements(reg)
	_, err := r.exec.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		if err := r.run(ctx, tx, "clear", cypherClear, nil, nil); err != nil {
			return nil, err
		}
		for _, s := range stmts {
			if len(s.rows) == 0 {
				continue
			}
			if err := r.run(ctx, tx, s.op, s.cypher, map[string]any{"rows": s.rows}, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "cannot save network to neo4j")
	}
	r.log.Info("network saved", logging.String("target", "neo4j"), logging.Int("components", reg.Len()))
	return nil
}

func buildStatements(reg *network.Registry) []statement {
	var (
		substances, reactions, compartments []map[string]any
		substrates, products, directions    []map[string]any
		hosted, containment, enzymes        []map[string]any
	)
	for _, s := range reg.Substances() {
		row := identityRow(s.ID(), s)
		row["formula"] = nil
		if f, ok := s.Formula(); ok {
			row["formula"] = f.String()
		}
		substances = append(substances, row)
	}
	for _, rx := range reg.Reactions() {
		reactions = append(reactions, identityRow(rx.ID(), rx))
		substrates = append(substrates, sideRows(rx.ID(), rx.Substrates())...)
		products = append(products, sideRows(rx.ID(), rx.Products())...)
		dirs := rx.Directions()
		for _, cid := range sortedKeys(dirs) {
			directions = append(directions, map[string]any{
				"reaction":    int64(rx.ID()),
				"compartment": int64(cid),
				"direction":   dirs[cid].String(),
			})
		}
	}
	for _, c := range reg.Compartments() {
		row := identityRow(c.ID(), c)
		row["containment_known"] = c.ContainmentKnown()
		compartments = append(compartments, row)
		for _, rid := range c.Reactions().IDs() {
			hosted = append(hosted, map[string]any{"compartment": int64(c.ID()), "reaction": int64(rid)})
		}
		for _, inner := range c.DirectlyContained().Sorted() {
			containment = append(containment, map[string]any{"compartment": int64(c.ID()), "contained": int64(inner)})
		}
		for _, eid := range c.Enzymes().Sorted() {
			enzymes = append(enzymes, map[string]any{"compartment": int64(c.ID()), "substance": int64(eid)})
		}
	}
	return []statement{
		{"save_substances", cypherSaveSubstances, substances},
		{"save_reactions", cypherSaveReactions, reactions},
		{"save_compartments", cypherSaveCompartments, compartments},
		{"save_substrates", cypherSaveSubstrates, substrates},
		{"save_products", cypherSaveProducts, products},
		{"save_directions", cypherSaveDirections, directions},
		{"save_hosted", cypherSaveHosted, hosted},
		{"save_containment", cypherSaveContainment, containment},
		{"save_enzymes", cypherSaveEnzymes, enzymes},
	}
}

type namedComponent interface {
	AssignedNames() []string
	PinnedName() string
	URNs() []string
}

func identityRow(id network.ID, c namedComponent) map[string]any {
	row := map[string]any{
		"id":        int64(id),
		"names":     c.AssignedNames(),
		"urns":      c.URNs(),
		"main_name": nil,
	}
	if pinned := c.PinnedName(); pinned != "" {
		row["main_name"] = pinned
	}
	return row
}

func sideRows(rid network.ID, side map[network.ID]int) []map[string]any {
	rows := make([]map[string]any, 0, len(side))
	for _, sid := range sortedKeys(side) {
		rows = append(rows, map[string]any{
			"reaction":      int64(rid),
			"substance":     int64(sid),
			"stoichiometry": int64(side[sid]),
		})
	}
	return rows
}

func sortedKeys[V any](m map[network.ID]V) []network.ID {
	set := make(network.IDSet, len(m))
	for id := range m {
		set.Add(id)
	}
	return set.Sorted()
}

// ─────────────────────────────────────────────────────────────────────────────
// Record decoding
// ─────────────────────────────────────────────────────────────────────────────

type identityTarget interface {
	AddName(names ...string)
	SetMainName(name string)
	AddURN(urns ...string)
}

func decodeIdentity(rec *neo4j.Record, c identityTarget) error {
	names, err := stringListValue(rec, "names")
	if err != nil {
		return err
	}
	urns, err := stringListValue(rec, "urns")
	if err != nil {
		return err
	}
	main, err := stringValue(rec, "main_name")
	if err != nil {
		return err
	}
	c.AddName(names...)
	c.AddURN(urns...)
	c.SetMainName(main)
	return nil
}

func badRecord(key string, v any) error {
	return errors.New(errors.ErrCodeSerialization, "unexpected record value").
		WithDetail(fmt.Sprintf("key=%s type=%T", key, v))
}

func field(rec *neo4j.Record, key string) (any, error) {
	v, ok := rec.Get(key)
	if !ok {
		return nil, errors.New(errors.ErrCodeSerialization, "record field missing").WithDetail("key=" + key)
	}
	return v, nil
}

func int64Value(rec *neo4j.Record, key string) (int64, error) {
	v, err := field(rec, key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, badRecord(key, v)
	}
	return n, nil
}

func idValue(rec *neo4j.Record, key string) (network.ID, error) {
	n, err := int64Value(rec, key)
	return network.ID(n), err
}

// stringValue treats a null property as "".
func stringValue(rec *neo4j.Record, key string) (string, error) {
	v, err := field(rec, key)
	if err != nil || v == nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", badRecord(key, v)
	}
	return s, nil
}

func optionalStringValue(rec *neo4j.Record, key string) (string, bool, error) {
	v, err := field(rec, key)
	if err != nil || v == nil {
		return "", false, err
	}
	s, ok := v.(string)
	if !ok {
		return "", false, badRecord(key, v)
	}
	return s, true, nil
}

func boolValue(rec *neo4j.Record, key string) (bool, error) {
	v, err := field(rec, key)
	if err != nil || v == nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, badRecord(key, v)
	}
	return b, nil
}

func stringListValue(rec *neo4j.Record, key string) ([]string, error) {
	v, err := field(rec, key)
	if err != nil || v == nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, badRecord(key, v)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, badRecord(key, item)
		}
		out = append(out, s)
	}
	return out, nil
}
