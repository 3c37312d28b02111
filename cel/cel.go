// Package cel compiles CEL expressions into record predicates, used to select which records of a
// 1:many bucket an operation applies to.
package cel

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sharedcode/idxstore"
)

// RecordVariable is the name a predicate expression uses to refer to the record under test.
const RecordVariable = "record"

// Predicate contains the CEL expression & the cel program used to evaluate it vs. a record.
type Predicate struct {
	Expression string
	program    cel.Program
}

// NewPredicate compiles expression. The expression sees the record as `record`, a
// map(string, dyn), and must produce a bool, e.g. `record.weight > 10.0`.
func NewPredicate(expression string) (*Predicate, error) {
	if expression == "" {
		return nil, idxstore.Errorf(idxstore.InvalidArgument, "expression can't be empty string")
	}
	env, err := cel.NewEnv(
		cel.Variable(RecordVariable, cel.MapType(cel.StringType, cel.DynType)),
		// Records arrive as JSON maps, so every number is a double.
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, idxstore.Errorf(idxstore.InvalidArgument, "error compiling CEL expression: %v", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, idxstore.Errorf(idxstore.InvalidArgument, "CEL expression %q yields %v, want bool", expression, ast.OutputType())
	}
	p, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("error creating Program: %w", err)
	}
	return &Predicate{
		Expression: expression,
		program:    p,
	}, nil
}

// Evaluate runs the predicate against record.
func (p *Predicate) Evaluate(record map[string]any) (bool, error) {
	out, _, err := p.program.Eval(map[string]any{
		RecordVariable: record,
	})
	if err != nil {
		return false, fmt.Errorf("error evaluating CEL expression: %w", err)
	}
	nv, err := out.ConvertToNative(reflect.TypeOf(false))
	if err != nil {
		return false, fmt.Errorf("error ConvertToNative, got err: %w", err)
	}
	if v, ok := nv.(bool); ok {
		return v, nil
	}
	return false, fmt.Errorf("error converting to bool, nv: %v", nv)
}

// Matcher adapts the predicate to a record of any type by converting the record to a map first.
// Evaluation errors count as no match; the first one is kept in *firstErr when it is not nil.
func Matcher[T any](p *Predicate, firstErr *error) func(T) bool {
	return func(r T) bool {
		m, err := idxstore.ToMap(r)
		if err == nil {
			var ok bool
			if ok, err = p.Evaluate(m); err == nil {
				return ok
			}
		}
		if firstErr != nil && *firstErr == nil {
			*firstErr = err
		}
		return false
	}
}

// Cache keeps the most recently used compiled predicates, keyed by expression text.
type Cache struct {
	lru *lru.Cache[string, *Predicate]
}

// NewCache returns a cache holding at most size predicates.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[string, *Predicate](size)
	if err != nil {
		return nil, idxstore.Errorf(idxstore.InvalidArgument, "predicate cache size %d: %v", size, err)
	}
	return &Cache{lru: c}, nil
}

// Get returns the compiled predicate for expression, compiling and caching it on a miss.
func (c *Cache) Get(expression string) (*Predicate, error) {
	if p, ok := c.lru.Get(expression); ok {
		return p, nil
	}
	p, err := NewPredicate(expression)
	if err != nil {
		return nil, err
	}
	c.lru.Add(expression, p)
	return p, nil
}

// Len returns the count of cached predicates.
func (c *Cache) Len() int {
	return c.lru.Len()
}
