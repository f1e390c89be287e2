package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"evonas/internal/descriptor"
)

var (
	ErrKindExists       = errors.New("descriptor kind already registered")
	ErrKindNotFound     = errors.New("descriptor kind not found")
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

// KindConstructor builds an empty descriptor of one architecture family; the
// driver calls RandomInit on the result exactly once.
type KindConstructor func() descriptor.Descriptor

var kindRegistry = struct {
	mu sync.RWMutex
	m  map[descriptor.Kind]KindConstructor
}{
	m: make(map[descriptor.Kind]KindConstructor),
}

func RegisterKind(kind descriptor.Kind, ctor KindConstructor) error {
	if ctor == nil {
		return errors.New("kind constructor is required")
	}

	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()

	if _, exists := kindRegistry.m[kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, kind)
	}
	kindRegistry.m[kind] = ctor
	return nil
}

// NewDescriptor constructs an empty descriptor of the requested kind.
func NewDescriptor(kind descriptor.Kind) (descriptor.Descriptor, error) {
	kindRegistry.mu.RLock()
	ctor, ok := kindRegistry.m[kind]
	kindRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKindNotFound, kind)
	}
	return ctor(), nil
}

func ListKinds() []descriptor.Kind {
	kindRegistry.mu.RLock()
	defer kindRegistry.mu.RUnlock()

	kinds := make([]descriptor.Kind, 0, len(kindRegistry.m))
	for kind := range kindRegistry.m {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]Operator
}{
	m: make(map[string]Operator),
}

func RegisterOperator(op Operator) error {
	if op == nil {
		return errors.New("operator is required")
	}
	if op.Name() == "" {
		return errors.New("operator name is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.m[op.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, op.Name())
	}
	operatorRegistry.m[op.Name()] = op
	return nil
}

// ResolveOperator returns a registered operator only if it is applicable to
// the given descriptor.
func ResolveOperator(name string, desc descriptor.Descriptor) (Operator, error) {
	operatorRegistry.mu.RLock()
	op, ok := operatorRegistry.m[name]
	operatorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	if ctx, ok := op.(ContextualOperator); ok && !ctx.Applicable(desc) {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotApplicable, name, desc.Kind())
	}
	return op, nil
}

func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterDefaults wires the built-in kinds and the default operator set.
// Callers pass the same bounds the initializers run with so operator draws
// stay inside the search space.
func RegisterDefaults(bounds descriptor.InitBounds) error {
	kinds := map[descriptor.Kind]KindConstructor{
		descriptor.KindMLP:   func() descriptor.Descriptor { return descriptor.NewMLPDescriptor() },
		descriptor.KindConv:  func() descriptor.Descriptor { return descriptor.NewConvDescriptor() },
		descriptor.KindTConv: func() descriptor.Descriptor { return descriptor.NewTConvDescriptor() },
	}
	for kind, ctor := range kinds {
		if err := RegisterKind(kind, ctor); err != nil && !errors.Is(err, ErrKindExists) {
			return err
		}
	}
	for _, op := range DefaultOperators(bounds) {
		if err := RegisterOperator(op); err != nil && !errors.Is(err, ErrOperatorExists) {
			return err
		}
	}
	return nil
}

func resetRegistriesForTests() {
	kindRegistry.mu.Lock()
	kindRegistry.m = make(map[descriptor.Kind]KindConstructor)
	kindRegistry.mu.Unlock()

	operatorRegistry.mu.Lock()
	operatorRegistry.m = make(map[string]Operator)
	operatorRegistry.mu.Unlock()
}
