package pod

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
	"github.com/knakk/rdf"
)

// Common vocabulary
const (
	RDFType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	SchemaName = "http://schema.org/name"
	SchemaBook = "https://schema.org/Book"
)

// Dataset is an RDF graph exchanged with the pod as Turtle.
type Dataset struct {
	triples []rdf.Triple
}

func NewDataset() *Dataset {
	return &Dataset{}
}

// ParseTurtle decodes a Turtle document. Malformed input wraps errors.ErrParse.
func ParseTurtle(text string) (*Dataset, error) {
	if strings.TrimSpace(text) == "" {
		return NewDataset(), nil
	}
	dec := rdf.NewTripleDecoder(strings.NewReader(text), rdf.Turtle)
	triples, err := dec.DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("[pod ParseTurtle] %w: %v", apperrors.ErrParse, err)
	}
	return &Dataset{triples: triples}, nil
}

// Turtle serializes the dataset as N-Triples, the subset of Turtle with every
// IRI written in full. Prefixed names are not emitted: the encoder does not
// escape local names such as "b." or "x(1)".
func (d *Dataset) Turtle() (string, error) {
	var buf bytes.Buffer
	enc := rdf.NewTripleEncoder(&buf, rdf.NTriples)
	if err := enc.EncodeAll(d.triples); err != nil {
		return "", fmt.Errorf("[pod Turtle] failed to encode dataset: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("[pod Turtle] failed to flush dataset: %w", err)
	}
	return buf.String(), nil
}

func (d *Dataset) Add(t rdf.Triple) {
	d.triples = append(d.triples, t)
}

// AddIRI adds a triple whose object is an IRI.
func (d *Dataset) AddIRI(subject, predicate, object string) error {
	s, p, err := subjectPredicate(subject, predicate)
	if err != nil {
		return err
	}
	o, err := rdf.NewIRI(object)
	if err != nil {
		return fmt.Errorf("[pod AddIRI] object: %w", err)
	}
	d.Add(rdf.Triple{Subj: s, Pred: p, Obj: o})
	return nil
}

// AddString adds a triple whose object is a plain string literal.
func (d *Dataset) AddString(subject, predicate, value string) error {
	s, p, err := subjectPredicate(subject, predicate)
	if err != nil {
		return err
	}
	o, err := rdf.NewLiteral(value)
	if err != nil {
		return fmt.Errorf("[pod AddString] object: %w", err)
	}
	d.Add(rdf.Triple{Subj: s, Pred: p, Obj: o})
	return nil
}

func subjectPredicate(subject, predicate string) (rdf.IRI, rdf.IRI, error) {
	s, err := rdf.NewIRI(subject)
	if err != nil {
		return rdf.IRI{}, rdf.IRI{}, fmt.Errorf("[pod] subject: %w", err)
	}
	p, err := rdf.NewIRI(predicate)
	if err != nil {
		return rdf.IRI{}, rdf.IRI{}, fmt.Errorf("[pod] predicate: %w", err)
	}
	return s, p, nil
}

func (d *Dataset) Triples() []rdf.Triple {
	return append([]rdf.Triple(nil), d.triples...)
}

func (d *Dataset) Len() int {
	return len(d.triples)
}

// Equal reports whether both datasets hold the same set of triples.
func (d *Dataset) Equal(other *Dataset) bool {
	a, b := d.canonical(), other.canonical()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (d *Dataset) canonical() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(d.triples))
	lines := make([]string, 0, len(d.triples))
	for _, t := range d.triples {
		line := t.Serialize(rdf.NTriples)
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines
}

// ExampleBook is the sample dataset written by the demo: one book with a name and a type.
func ExampleBook(resource string) (*Dataset, error) {
	subject := strings.TrimSuffix(resource, "#") + "#example_poetry"
	ds := NewDataset()
	if err := ds.AddString(subject, SchemaName, "ZYX987 of Example Poetry"); err != nil {
		return nil, err
	}
	if err := ds.AddIRI(subject, RDFType, SchemaBook); err != nil {
		return nil, err
	}
	return ds, nil
}
