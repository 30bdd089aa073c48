// Package networkfile reads and writes whole metabolic networks as YAML
// documents.
package networkfile

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/MetaNet/internal/domain/formula"
	"github.com/turtacn/MetaNet/internal/domain/network"
	"github.com/turtacn/MetaNet/pkg/errors"
)

// MaxDocumentSize bounds what Decode will read.
const MaxDocumentSize = 16 << 20

//go:embed sample_network.yaml
var sampleDocument []byte

// SampleDocument returns the bundled demonstration network.
func SampleDocument() []byte {
	return append([]byte(nil), sampleDocument...)
}

// Document is the YAML layout of a network.
type Document struct {
	Substances   []SubstanceDoc   `yaml:"substances"`
	Reactions    []ReactionDoc    `yaml:"reactions"`
	Compartments []CompartmentDoc `yaml:"compartments"`
}

// IdentityDoc holds the fields every component has.
type IdentityDoc struct {
	ID       network.ID `yaml:"id"`
	Names    []string   `yaml:"names,omitempty"`
	MainName string     `yaml:"main_name,omitempty"`
	URNs     []string   `yaml:"urns,omitempty"`
}

type SubstanceDoc struct {
	IdentityDoc `yaml:",inline"`
	// Formula is nil when the substance has no formula; "" is the empty
	// formula.
	Formula *string `yaml:"formula,omitempty"`
}

type ReactionDoc struct {
	IdentityDoc `yaml:",inline"`
	Substrates  map[network.ID]int    `yaml:"substrates,omitempty"`
	Products    map[network.ID]int    `yaml:"products,omitempty"`
	Directions  map[network.ID]string `yaml:"directions,omitempty"`
}

// CompartmentDoc leaves Contains nil when containment is unknown; an empty
// list means known to contain nothing.
type CompartmentDoc struct {
	IdentityDoc `yaml:",inline"`
	Reactions   []network.ID  `yaml:"reactions,omitempty"`
	Enzymes     []network.ID  `yaml:"enzymes,omitempty"`
	Contains    *[]network.ID `yaml:"contains,omitempty"`
}

// Decode reads one document, rejecting unknown keys.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cannot read network document")
	}
	if len(data) > MaxDocumentSize {
		return nil, errors.New(errors.ErrCodeValidation, "network document too large").
			WithDetail(fmt.Sprintf("limit=%d", MaxDocumentSize))
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "malformed network document")
	}
	return &doc, nil
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode network document")
	}
	return enc.Close()
}

// Components builds domain objects from doc.  Ids must be unique across all
// three kinds; formulas are parsed with p.
func (doc *Document) Components(p *formula.Parser) ([]network.Component, error) {
	seen := make(network.IDSet)
	claim := func(id network.ID) error {
		if seen.Add(id) == 0 {
			return errors.New(errors.ErrCodeConflict, "duplicate component id").WithDetail(fmt.Sprintf("id=%d", id))
		}
		return nil
	}

	out := make([]network.Component, 0, len(doc.Substances)+len(doc.Reactions)+len(doc.Compartments))
	for _, sd := range doc.Substances {
		if err := claim(sd.ID); err != nil {
			return nil, err
		}
		s := network.NewSubstance(sd.ID)
		sd.apply(s)
		if sd.Formula != nil {
			f, err := p.Parse(*sd.Formula)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("substance %d", sd.ID))
			}
			s.SetFormula(f)
		}
		out = append(out, s)
	}
	for _, rd := range doc.Reactions {
		if err := claim(rd.ID); err != nil {
			return nil, err
		}
		r := network.NewReaction(rd.ID)
		rd.apply(r)
		if err := r.AddSubstrates(rd.Substrates); err != nil {
			return nil, err
		}
		if err := r.AddProducts(rd.Products); err != nil {
			return nil, err
		}
		for _, cid := range sortedIDs(rd.Directions) {
			text := rd.Directions[cid]
			d, err := network.ParseDirection(text)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid reaction direction").
					WithDetail(fmt.Sprintf("reaction=%d compartment=%d", rd.ID, cid))
			}
			if err := r.SetDirection(cid, d); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	for _, cd := range doc.Compartments {
		if err := claim(cd.ID); err != nil {
			return nil, err
		}
		c := network.NewCompartment(cd.ID)
		cd.apply(c)
		c.AddReaction(cd.Reactions...)
		c.AddEnzymes(cd.Enzymes...)
		if cd.Contains != nil {
			c.AddContainedCompartments(*cd.Contains...)
		}
		out = append(out, c)
	}
	return out, nil
}

type identityTarget interface {
	AddName(names ...string)
	SetMainName(name string)
	AddURN(urns ...string)
}

func (d IdentityDoc) apply(c identityTarget) {
	c.AddName(d.Names...)
	c.SetMainName(d.MainName)
	c.AddURN(d.URNs...)
}

type identitySource interface {
	ID() network.ID
	AssignedNames() []string
	PinnedName() string
	URNs() []string
}

func identityOf(c identitySource) IdentityDoc {
	return IdentityDoc{
		ID:       c.ID(),
		Names:    c.AssignedNames(),
		MainName: c.PinnedName(),
		URNs:     c.URNs(),
	}
}

// FromRegistry snapshots reg in id order.
func FromRegistry(reg *network.Registry) *Document {
	doc := &Document{}
	for _, s := range reg.Substances() {
		sd := SubstanceDoc{IdentityDoc: identityOf(s)}
		if f, ok := s.Formula(); ok {
			text := f.String()
			sd.Formula = &text
		}
		doc.Substances = append(doc.Substances, sd)
	}
	for _, r := range reg.Reactions() {
		rd := ReactionDoc{
			IdentityDoc: identityOf(r),
			Substrates:  r.Substrates(),
			Products:    r.Products(),
		}
		if dirs := r.Directions(); len(dirs) > 0 {
			rd.Directions = make(map[network.ID]string, len(dirs))
			for cid, d := range dirs {
				rd.Directions[cid] = d.String()
			}
		}
		doc.Reactions = append(doc.Reactions, rd)
	}
	for _, c := range reg.Compartments() {
		cd := CompartmentDoc{
			IdentityDoc: identityOf(c),
			Reactions:   c.Reactions().IDs(),
			Enzymes:     c.Enzymes().Sorted(),
		}
		if c.ContainmentKnown() {
			contained := c.DirectlyContained().Sorted()
			cd.Contains = &contained
		}
		doc.Compartments = append(doc.Compartments, cd)
	}
	return doc
}

func sortedIDs[V any](m map[network.ID]V) []network.ID {
	out := make([]network.ID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
