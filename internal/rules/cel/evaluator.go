// Package cel evaluates trigger condition expressions with Google CEL. The
// evaluator is sandboxed: expressions see only the variable bag handed to
// Evaluate and cannot mutate caller state.
package cel

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"
)

var celNewEnv = cel.NewEnv

// MaxCacheSize is the maximum number of compiled CEL programs to cache.
const MaxCacheSize = 1000

// Evaluator compiles and runs condition expressions against an "event"
// variable bag. Compiled programs are cached with simple FIFO eviction.
type Evaluator struct {
	env        *cel.Env
	prgCache   map[string]cel.Program
	cacheOrder []string
	cacheMutex sync.RWMutex
}

// NewEvaluator creates an Evaluator whose environment exposes a single
// "event" map variable.
func NewEvaluator() (*Evaluator, error) {
	env, err := celNewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		env:        env,
		prgCache:   make(map[string]cel.Program),
		cacheOrder: make([]string, 0, MaxCacheSize),
	}, nil
}

// Compile checks an expression without running it. Used at rule save time.
func (e *Evaluator) Compile(expression string) error {
	_, err := e.getProgram(expression)
	return err
}

// Evaluate runs the expression against the variable bag and returns the
// boolean result. Expressions that do not produce a boolean are an error.
func (e *Evaluator) Evaluate(vars map[string]interface{}, expression string) (bool, error) {
	prg, err := e.getProgram(expression)
	if err != nil {
		return false, fmt.Errorf("compile condition: %w", err)
	}

	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate condition: %w", err)
	}

	match, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition must return boolean, got %T", out.Value())
	}

	return match, nil
}

func (e *Evaluator) getProgram(expression string) (cel.Program, error) {
	e.cacheMutex.RLock()
	prg, ok := e.prgCache[expression]
	e.cacheMutex.RUnlock()
	if ok {
		return prg, nil
	}

	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	// Double check under the write lock.
	if prg, ok := e.prgCache[expression]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}

	if len(e.prgCache) >= MaxCacheSize {
		oldest := e.cacheOrder[0]
		delete(e.prgCache, oldest)
		e.cacheOrder = e.cacheOrder[1:]
		slog.Debug("Condition program cache full, evicted oldest entry")
	}

	e.prgCache[expression] = prg
	e.cacheOrder = append(e.cacheOrder, expression)
	return prg, nil
}
