// Package config loads the configuration document for a reconciliation
// [reconcile.Engine].
//
// A Document is plain data decoded from YAML (or JSON, which is accepted as
// YAML). [Compile] validates every field and builds the immutable objects the
// engine uses; a Document with any invalid field is rejected as a whole. For
// example:
//
//	selectors:
//	  context:
//	    rules:
//	      - method: ALL
//	        entries: ["GHSA", "NVD/*/NVD"]
//	        collectors:
//	          - {provider: COUNT, attribute: provided, set: ADD}
//	    vector_evaluators:
//	      - {operation: BASE_FULLY_DEFINED, invert: true, action: RETURN_NULL}
//	policies: [V4, LATEST]
//	ranges: "Low:green:0:6.9;High:red:7:10"
//
// Omitted selectors, policies and ranges take their defaults.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quay/cvssmerge"
)

// Document is the configuration file format.
type Document struct {
	Selectors   Selectors `yaml:"selectors,omitempty" json:"selectors,omitempty"`
	Policies    []string  `yaml:"policies,omitempty" json:"policies,omitempty"`
	Ranges      string    `yaml:"ranges,omitempty" json:"ranges,omitempty"`
	Concurrency int       `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
}

// Selectors holds the two selectors an engine runs.
type Selectors struct {
	Initial *Selector `yaml:"initial,omitempty" json:"initial,omitempty"`
	Context *Selector `yaml:"context,omitempty" json:"context,omitempty"`
}

// Selector is the document form of a [selector.Selector].
type Selector struct {
	Rules            []Rule            `yaml:"rules" json:"rules"`
	StatsEvaluators  []StatsEvaluator  `yaml:"stats_evaluators,omitempty" json:"stats_evaluators,omitempty"`
	VectorEvaluators []VectorEvaluator `yaml:"vector_evaluators,omitempty" json:"vector_evaluators,omitempty"`
}

// Rule is the document form of a [selector.Rule].
type Rule struct {
	Method     string      `yaml:"method" json:"method"`
	Entries    []Entry     `yaml:"entries" json:"entries"`
	Collectors []Collector `yaml:"collectors,omitempty" json:"collectors,omitempty"`
}

// Entry is the document form of a [selector.Entry].
//
// In YAML, an Entry is either the "entity/role/authority" shorthand string or
// a mapping with "entity", "role", and "authority" pattern lists.
type Entry struct {
	Shorthand string   `yaml:"-" json:"-"`
	Entity    []string `yaml:"entity,omitempty" json:"entity,omitempty"`
	Role      []string `yaml:"role,omitempty" json:"role,omitempty"`
	Authority []string `yaml:"authority,omitempty" json:"authority,omitempty"`
}

// UnmarshalYAML implements [yaml.Unmarshaler].
func (e *Entry) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Decode(&e.Shorthand)
	case yaml.MappingNode:
		// Node.Decode doesn't honor the Decoder's KnownFields setting.
		for i := 0; i < len(n.Content); i += 2 {
			switch k := n.Content[i]; k.Value {
			case "entity", "role", "authority":
			default:
				return fmt.Errorf("line %d: unknown entry field %q", k.Line, k.Value)
			}
		}
	}
	type entry Entry
	return n.Decode((*entry)(e))
}

// MarshalYAML implements [yaml.Marshaler].
func (e Entry) MarshalYAML() (any, error) {
	if e.Shorthand != "" {
		return e.Shorthand, nil
	}
	type entry Entry
	return entry(e), nil
}

// Collector is the document form of a [selector.Collector].
type Collector struct {
	Provider  string `yaml:"provider" json:"provider"`
	Attribute string `yaml:"attribute" json:"attribute"`
	Set       string `yaml:"set" json:"set"`
}

// StatsEvaluator is the document form of a [selector.StatsEvaluator].
type StatsEvaluator struct {
	Attribute  string `yaml:"attribute" json:"attribute"`
	Comparator string `yaml:"comparator" json:"comparator"`
	Value      int    `yaml:"value" json:"value"`
	Action     string `yaml:"action" json:"action"`
}

// VectorEvaluator is the document form of a [selector.VectorEvaluator].
type VectorEvaluator struct {
	Operation string `yaml:"operation" json:"operation"`
	Invert    bool   `yaml:"invert,omitempty" json:"invert,omitempty"`
	Action    string `yaml:"action" json:"action"`
}

// Decode reads a Document from "r".
//
// Unknown fields are an error.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	switch err := dec.Decode(&doc); err {
	case nil, io.EOF:
	default:
		return nil, &cvssmerge.Error{
			Op:      `config.Decode`,
			Kind:    cvssmerge.ErrConfig,
			Message: "unable to decode document",
			Inner:   err,
		}
	}
	return &doc, nil
}

// Load reads the Document in the file "name".
func Load(name string) (*Document, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", name, err)
	}
	return doc, nil
}
