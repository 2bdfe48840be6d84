package rowcheck

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
)

// Creates the validator of a record type
type ValidatorFactory func() Validator

// Named record types. Record packages register themselves from init()
type registry struct {
	mu        sync.RWMutex
	factories map[string]ValidatorFactory
}

var records = &registry{factories: make(map[string]ValidatorFactory)}

func (r *registry) register(name string, fn ValidatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

func (r *registry) lookup(name string) (Validator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.factories[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownRecord, "%q", name)
	}
	return fn(), nil
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Register a record type under a name. Registering a name twice replaces
// the previous factory
func Register(name string, fn ValidatorFactory) {
	records.register(name, fn)
}

// RegisterRecord registers the record type R under a name
func RegisterRecord[R any, PR interface {
	*R
	Record
}](name string) {
	Register(name, NewValidator[R, PR])
}

// Lookup returns a fresh validator of a registered record type
func Lookup(name string) (Validator, error) {
	return records.lookup(name)
}

// Registered record type names, sorted
func Registered() []string {
	return records.names()
}
