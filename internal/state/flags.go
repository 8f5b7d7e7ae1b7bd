package state

import (
	"fmt"
	"log"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FlagEvaluator resolves feature flags. A flag set directly on the snapshot
// wins; otherwise a registered expression rule is evaluated against the
// snapshot. Expressions compile once and run per query.
type FlagEvaluator struct {
	mu    sync.RWMutex
	rules map[string]*vm.Program
}

func NewFlagEvaluator() *FlagEvaluator {
	return &FlagEvaluator{rules: make(map[string]*vm.Program)}
}

// AddRule registers an expression rule for a flag, e.g.
// "language == 'ar' && !loading".
func (e *FlagEvaluator) AddRule(name, expression string) error {
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return fmt.Errorf("compile flag %s: %w", name, err)
	}
	e.mu.Lock()
	e.rules[name] = prog
	e.mu.Unlock()
	return nil
}

// Eval resolves a flag against the snapshot. Unknown flags are off.
// A failing rule is logged and reads as off rather than erroring.
func (e *FlagEvaluator) Eval(name string, snap Snapshot) bool {
	if v, ok := snap.Flags[name]; ok {
		return v
	}

	e.mu.RLock()
	prog := e.rules[name]
	e.mu.RUnlock()
	if prog == nil {
		return false
	}

	env := map[string]any{
		"theme":         snap.Theme,
		"language":      snap.Language,
		"loading":       snap.Loading,
		"authenticated": snap.Authenticated,
		"counters":      snap.Counters,
	}
	result, err := expr.Run(prog, env)
	if err != nil {
		log.Printf("WARN: flag %s evaluation: %v", name, err)
		return false
	}
	on, _ := result.(bool)
	return on
}
