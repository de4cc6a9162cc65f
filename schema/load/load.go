// Package load reads record type declarations from YAML documents.
//
// A document maps type names to their declaration. Fields and link fields
// keep their document order:
//
//	Order:
//	  keys: [id]
//	  orderby: id DESC
//	  fields:
//	    id: {type: INT, auto: true}
//	    customer_id: {type: INT, alias: CustomerID, unsigned: true}
//	    total: {type: "DECIMAL(8,2)", rounding: 2}
//	    status: {type: ENUM, values: [open, closed], default: open}
//	  links:
//	    customer:
//	      class: Customer
//	      linkfields: {customer_id: id}
//	  foreignfields:
//	    customer_name: {link: customer, field: name}
//
// Post-fetch transforms and hooks are code; attach hooks with WithHooks.
package load

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/schema/edge"
	"github.com/syssam/recordkit/schema/field"
)

// Definition is a record type declared in a document. It implements
// recordkit.Interface and recordkit.Namer.
type Definition struct {
	name    string
	table   string
	keys    []string
	fields  []recordkit.Field
	links   []recordkit.Link
	foreign []recordkit.ForeignField
	aliases map[string]string
	orderBy []string
	hooks   recordkit.Hooks
}

// Name returns the type name.
func (d *Definition) Name() string { return d.name }

// Table returns the declared table name.
func (d *Definition) Table() string { return d.table }

// Keys returns the key field names.
func (d *Definition) Keys() []string { return d.keys }

// Fields returns the declared fields in document order.
func (d *Definition) Fields() []recordkit.Field { return d.fields }

// Links returns the declared links.
func (d *Definition) Links() []recordkit.Link { return d.links }

// ForeignFields returns the declared foreign fields.
func (d *Definition) ForeignFields() []recordkit.ForeignField { return d.foreign }

// Aliases returns the explicit alias map, if any.
func (d *Definition) Aliases() map[string]string { return d.aliases }

// Hooks returns the hooks attached with WithHooks.
func (d *Definition) Hooks() recordkit.Hooks { return d.hooks }

// OrderBy returns the default ordering.
func (d *Definition) OrderBy() []string { return d.orderBy }

// Mixin returns nil; documents declare every field.
func (d *Definition) Mixin() []recordkit.Mixin { return nil }

// WithHooks attaches lifecycle hooks and returns d.
func (d *Definition) WithHooks(h recordkit.Hooks) *Definition {
	d.hooks = h
	return d
}

var (
	_ recordkit.Interface = (*Definition)(nil)
	_ recordkit.Namer     = (*Definition)(nil)
)

// stringList accepts a sequence or a comma separated scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = nil
		for _, s := range strings.Split(n.Value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				*l = append(*l, s)
			}
		}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := n.Decode(&ss); err != nil {
			return err
		}
		*l = ss
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list", n.Line)
}

type typeDecl struct {
	Table         string            `yaml:"table"`
	Keys          stringList        `yaml:"keys"`
	OrderBy       stringList        `yaml:"orderby"`
	Fields        yaml.Node         `yaml:"fields"`
	Links         yaml.Node         `yaml:"links"`
	ForeignFields yaml.Node         `yaml:"foreignfields"`
	AliasMap      map[string]string `yaml:"aliasmap"`
}

type fieldDecl struct {
	Type     string   `yaml:"type"`
	Alias    string   `yaml:"alias"`
	NotNull  bool     `yaml:"notnull"`
	Auto     bool     `yaml:"auto"`
	Unsigned bool     `yaml:"unsigned"`
	Default  any      `yaml:"default"`
	Rounding *int     `yaml:"rounding"`
	Values   []string `yaml:"values"`
	Comment  string   `yaml:"comment"`
}

type linkDecl struct {
	Class      string     `yaml:"class"`
	LinkFields yaml.Node  `yaml:"linkfields"`
	OrderBy    stringList `yaml:"orderby"`
	Flags      stringList `yaml:"flags"`
	ChildLink  *linkDecl  `yaml:"childlink"`
	Comment    string     `yaml:"comment"`
}

type foreignDecl struct {
	Link  string `yaml:"link"`
	Field string `yaml:"field"`
}

// Parse reads the definitions of a document, in document order.
func Parse(data []byte) ([]*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("load: line %d: expected a mapping of type names", root.Line)
	}
	var defs []*Definition
	err := each(root, func(name string, n *yaml.Node) error {
		var decl typeDecl
		if err := n.Decode(&decl); err != nil {
			return err
		}
		def, err := definition(name, &decl)
		if err != nil {
			return err
		}
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return defs, nil
}

// Files reads and parses the given documents.
func Files(paths ...string) ([]*Definition, error) {
	var defs []*Definition
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		d, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, d...)
	}
	return defs, nil
}

// Register registers the definitions on reg.
func Register(reg *recordkit.Registry, defs ...*Definition) error {
	schemas := make([]recordkit.Interface, len(defs))
	for i, d := range defs {
		schemas[i] = d
	}
	return reg.Register(schemas...)
}

// each calls fn for every entry of a mapping node, in order. A missing
// node has no entries.
func each(n *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	switch n.Kind {
	case 0:
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func definition(name string, decl *typeDecl) (*Definition, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("type with empty name")
	}
	d := &Definition{
		name:    name,
		table:   decl.Table,
		keys:    decl.Keys,
		orderBy: decl.OrderBy,
		aliases: decl.AliasMap,
	}
	err := each(&decl.Fields, func(fname string, n *yaml.Node) error {
		var fs fieldDecl
		if err := n.Decode(&fs); err != nil {
			return fmt.Errorf("%s.%s: %w", name, fname, err)
		}
		d.fields = append(d.fields, fieldBuilder(fname, &fs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = each(&decl.Links, func(lname string, n *yaml.Node) error {
		var ls linkDecl
		if err := n.Decode(&ls); err != nil {
			return fmt.Errorf("%s.%s: %w", name, lname, err)
		}
		b, err := linkBuilder(edge.To(lname, ls.Class), &ls)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", name, lname, err)
		}
		d.links = append(d.links, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = each(&decl.ForeignFields, func(fname string, n *yaml.Node) error {
		var fs foreignDecl
		if err := n.Decode(&fs); err != nil {
			return fmt.Errorf("%s.%s: %w", name, fname, err)
		}
		d.foreign = append(d.foreign, edge.Foreign(fname, fs.Link, fs.Field))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func fieldBuilder(name string, fs *fieldDecl) *field.Builder {
	b := field.New(name, fs.Type)
	if fs.Alias != "" {
		b.Alias(fs.Alias)
	}
	if fs.NotNull {
		b.NotNull()
	}
	if fs.Auto {
		b.Auto()
	}
	if fs.Unsigned {
		b.Unsigned()
	}
	if fs.Default != nil {
		b.Default(fs.Default)
	}
	if fs.Rounding != nil {
		b.Rounding(*fs.Rounding)
	}
	if len(fs.Values) > 0 {
		b.Values(fs.Values...)
	}
	if fs.Comment != "" {
		b.Comment(fs.Comment)
	}
	return b
}

func linkBuilder(b *edge.Builder, ls *linkDecl) (*edge.Builder, error) {
	if ls.Class == "" {
		return nil, fmt.Errorf("link has no class")
	}
	err := each(&ls.LinkFields, func(local string, n *yaml.Node) error {
		if n.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: link field %q must map to a field name", n.Line, local)
		}
		b.Field(local, n.Value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ls.OrderBy) > 0 {
		b.OrderBy(ls.OrderBy...)
	}
	if len(ls.Flags) > 0 {
		b.Flags(ls.Flags...)
	}
	if ls.Comment != "" {
		b.Comment(ls.Comment)
	}
	if ls.ChildLink != nil {
		child, err := linkBuilder(edge.Next(ls.ChildLink.Class), ls.ChildLink)
		if err != nil {
			return nil, fmt.Errorf("childlink: %w", err)
		}
		b.Child(child)
	}
	return b, nil
}
