// Package param declares module parameters and resolves them against caller
// overrides.
//
// A module binds each parameter to a field of its own config struct while it
// is constructed, the way the flag package binds flags:
//
//	s := param.NewSet("ExampleGenerator")
//	s.Int(&cfg.Size, "Size", "Size of desired vector", 10)
//	s.String(&cfg.Outname, "Outname", "Name of output field", "RandomVector")
//
// The runner calls Resolve exactly once before the first frame. Parameter names
// are matched case-insensitively.
package param

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Overrides carries caller-supplied parameter values keyed by parameter name.
type Overrides map[string]any

// Kind is the declared type of a parameter.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindString
	KindStrings
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindStrings:
		return "[]string"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Declaration describes one configuration slot.
type Declaration struct {
	Name        string
	Description string
	Kind        Kind
	Default     any
	Required    bool

	target any
}

// Option adjusts a declaration.
type Option func(*Declaration)

// Required marks a parameter that must be overridden with a non-empty value.
func Required() Option {
	return func(d *Declaration) { d.Required = true }
}

// Set holds the declarations of one module.
type Set struct {
	owner    string
	decls    []*Declaration
	byName   map[string]*Declaration
	resolved bool
}

// NewSet creates an empty set; owner names the module in error messages.
func NewSet(owner string) *Set {
	return &Set{
		owner:  owner,
		byName: make(map[string]*Declaration),
	}
}

// Owner returns the module name the set was created for.
func (s *Set) Owner() string { return s.owner }

// Int declares an integer parameter bound to p.
func (s *Set) Int(p *int, name, description string, def int, opts ...Option) {
	*p = def
	s.declare(&Declaration{Name: name, Description: description, Kind: KindInt, Default: def, target: p}, opts)
}

// Float declares a float parameter bound to p.
func (s *Set) Float(p *float64, name, description string, def float64, opts ...Option) {
	*p = def
	s.declare(&Declaration{Name: name, Description: description, Kind: KindFloat, Default: def, target: p}, opts)
}

// String declares a string parameter bound to p.
func (s *Set) String(p *string, name, description, def string, opts ...Option) {
	*p = def
	s.declare(&Declaration{Name: name, Description: description, Kind: KindString, Default: def, target: p}, opts)
}

// Strings declares a string list parameter bound to p.
func (s *Set) Strings(p *[]string, name, description string, def []string, opts ...Option) {
	*p = slices.Clone(def)
	s.declare(&Declaration{Name: name, Description: description, Kind: KindStrings, Default: slices.Clone(def), target: p}, opts)
}

// declare panics on misuse: declarations happen in constructors, so a
// duplicate or late declaration is a programming error.
func (s *Set) declare(d *Declaration, opts []Option) {
	if s.resolved {
		panic(fmt.Sprintf("param: %s: declaring %q after resolution", s.owner, d.Name))
	}
	key := strings.ToLower(d.Name)
	if _, dup := s.byName[key]; dup {
		panic(fmt.Sprintf("param: %s: parameter %q declared twice", s.owner, d.Name))
	}
	for _, opt := range opts {
		opt(d)
	}
	s.decls = append(s.decls, d)
	s.byName[key] = d
}

// Declarations returns copies of the declarations in declaration order.
func (s *Set) Declarations() []Declaration {
	out := make([]Declaration, len(s.decls))
	for i, d := range s.decls {
		out[i] = *d
		out[i].target = nil
	}
	return out
}

// Lookup finds a declaration by name, ignoring case.
func (s *Set) Lookup(name string) (Declaration, bool) {
	d, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return Declaration{}, false
	}
	out := *d
	out.target = nil
	return out, true
}

// Resolved reports whether Resolve has succeeded.
func (s *Set) Resolved() bool { return s.resolved }

// Resolve binds every declaration to its override or its default. It either
// assigns all parameters or none, and can only succeed once.
func (s *Set) Resolve(overrides Overrides) error {
	if s.resolved {
		return Errorf(s.owner, "", "parameters already resolved")
	}

	var errs []error

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	slices.Sort(names)
	spelled := make(map[string]string, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := s.byName[key]; !ok {
			errs = append(errs, Errorf(s.owner, name, "no such parameter"))
			continue
		}
		if prev, dup := spelled[key]; dup {
			errs = append(errs, Errorf(s.owner, name, "also given as %q", prev))
			continue
		}
		spelled[key] = name
	}

	pending := make([]func(), 0, len(s.decls))
	for _, d := range s.decls {
		raw, ok := lookupOverride(overrides, d.Name)
		if !ok {
			if d.Required {
				errs = append(errs, Errorf(s.owner, d.Name, "required parameter was not set"))
			}
			continue
		}
		assign, err := d.convert(raw)
		if err != nil {
			errs = append(errs, Errorf(s.owner, d.Name, "%v", err))
			continue
		}
		pending = append(pending, assign)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, assign := range pending {
		assign()
	}
	s.resolved = true
	return nil
}

func lookupOverride(overrides Overrides, name string) (any, bool) {
	if v, ok := overrides[name]; ok {
		return v, true
	}
	for k, v := range overrides {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func (d *Declaration) convert(raw any) (func(), error) {
	switch d.Kind {
	case KindInt:
		v, err := toInt(raw)
		if err != nil {
			return nil, err
		}
		p := d.target.(*int)
		return func() { *p = v }, nil
	case KindFloat:
		v, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		p := d.target.(*float64)
		return func() { *p = v }, nil
	case KindString:
		v, err := toString(raw)
		if err != nil {
			return nil, err
		}
		if d.Required && v == "" {
			return nil, errors.New("required parameter is empty")
		}
		p := d.target.(*string)
		return func() { *p = v }, nil
	case KindStrings:
		v, err := toStrings(raw)
		if err != nil {
			return nil, err
		}
		if d.Required && len(v) == 0 {
			return nil, errors.New("required parameter is empty")
		}
		p := d.target.(*[]string)
		return func() { *p = v }, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", d.Kind)
	}
}
