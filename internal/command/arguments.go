package command

import (
	"fmt"
	"sort"
)

// ArgSpec declares a single command argument. Every argument carries a
// default value; a nil default is a contract violation, matching the rule
// that command entry points accept only defaulted keyword-style parameters.
type ArgSpec struct {
	Name     string
	Default  any
	Validate func(value any) error
}

// ValidateSchema checks a command argument schema for contract violations:
// empty or duplicate names, or arguments without a default value.
func ValidateSchema(commandID string, schema []ArgSpec) error {
	seen := make(map[string]struct{}, len(schema))
	for _, spec := range schema {
		if spec.Name == "" {
			return &ContractError{CommandID: commandID, Msg: "argument with empty name"}
		}
		if _, ok := seen[spec.Name]; ok {
			return &ContractError{
				CommandID: commandID,
				Msg:       fmt.Sprintf("duplicate argument %q", spec.Name),
			}
		}
		seen[spec.Name] = struct{}{}
		if spec.Default == nil {
			return &ContractError{
				CommandID: commandID,
				Msg:       fmt.Sprintf("argument %q has no default value", spec.Name),
			}
		}
	}

	return nil
}

// Arguments is the typed key/value container handed to a command. It is
// built from the command schema with every argument at its default, then
// merged with caller-supplied values. Only declared names are accepted.
type Arguments struct {
	schema []ArgSpec
	values map[string]any
}

// NewArguments returns a container holding the schema defaults.
func NewArguments(schema []ArgSpec) *Arguments {
	values := make(map[string]any, len(schema))
	for _, spec := range schema {
		values[spec.Name] = spec.Default
	}

	return &Arguments{schema: schema, values: values}
}

// Merge applies caller-supplied values over the defaults. Unknown names are
// rejected and per-argument validators run on each supplied value.
func (a *Arguments) Merge(supplied map[string]any) error {
	for name, value := range supplied {
		spec, ok := a.spec(name)
		if !ok {
			return fmt.Errorf("unknown argument %q, declared arguments: %v", name, a.Names())
		}
		if spec.Validate != nil {
			if err := spec.Validate(value); err != nil {
				return fmt.Errorf("argument %q: %w", name, err)
			}
		}
		a.values[name] = value
	}

	return nil
}

// Set overwrites a declared argument value. Resolve hooks use it to remap
// or coerce inputs before execution.
func (a *Arguments) Set(name string, value any) error {
	if _, ok := a.spec(name); !ok {
		return fmt.Errorf("unknown argument %q, declared arguments: %v", name, a.Names())
	}
	a.values[name] = value

	return nil
}

// Has reports whether the schema declares the given argument.
func (a *Arguments) Has(name string) bool {
	_, ok := a.spec(name)

	return ok
}

// Get returns the current value of a declared argument, or nil.
func (a *Arguments) Get(name string) any {
	return a.values[name]
}

// GetString returns the argument as a string, or "" when absent or of a
// different type.
func (a *Arguments) GetString(name string) string {
	s, _ := a.values[name].(string)

	return s
}

// GetInt returns the argument as an int, converting common numeric types.
func (a *Arguments) GetInt(name string) int {
	switch v := a.values[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetFloat returns the argument as a float64, converting common numeric
// types.
func (a *Arguments) GetFloat(name string) float64 {
	switch v := a.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// GetBool returns the argument as a bool, or false.
func (a *Arguments) GetBool(name string) bool {
	b, _ := a.values[name].(bool)

	return b
}

// Names returns the declared argument names in schema order.
func (a *Arguments) Names() []string {
	names := make([]string, 0, len(a.schema))
	for _, spec := range a.schema {
		names = append(names, spec.Name)
	}

	return names
}

// Map returns a copy of the current values, with keys sorted for stable
// iteration by callers that log or serialize them.
func (a *Arguments) Map() map[string]any {
	out := make(map[string]any, len(a.values))
	keys := make([]string, 0, len(a.values))
	for k := range a.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = a.values[k]
	}

	return out
}

func (a *Arguments) spec(name string) (ArgSpec, bool) {
	for _, spec := range a.schema {
		if spec.Name == name {
			return spec, true
		}
	}

	return ArgSpec{}, false
}
