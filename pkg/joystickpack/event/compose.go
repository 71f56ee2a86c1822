package event

import (
	"strings"
	"sync"
)

// configured exposes a source's configuration. Sources that do not
// implement it are treated as unrestricted when merging schemas.
type configured interface {
	Config() SubjectConfig
}

// Piper is a source that can forward its events into a target.
type Piper interface {
	ID() SubjectID
	Pipe(target Emitter, mapping map[string]string) (func(), error)
}

// Derived is a subject fed by forwarding subscriptions on one or more sources.
type Derived struct {
	*Subject

	once      sync.Once
	disposers []func()
}

// Dispose removes every forwarding subscription feeding d. It is idempotent.
// Observers registered on d itself are left in place.
func (d *Derived) Dispose() {
	d.once.Do(func() {
		for _, fn := range d.disposers {
			fn()
		}
	})
}

// newDerived creates a subject sharing the source config but accepting schema.
func newDerived(id string, config SubjectConfig, schema *EventMap) *Derived {
	config.Schema = schema
	return &Derived{Subject: NewSubject(id, config)}
}

// Filter returns a subject receiving the current keys of s that start with prefix.
func (s *Subject) Filter(prefix string) (*Derived, error) {
	var schema *EventMap
	if s.config.Schema != nil {
		schema = s.config.Schema.derive(func(key string) (string, bool) {
			return key, strings.HasPrefix(key, prefix)
		})
	}
	derived := newDerived(string(s.id)+"_filtered_"+prefix, s.config, schema)

	var keys []string
	for _, key := range s.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	dispose, err := s.pipe(derived, keys, nil)
	if err != nil {
		return nil, err
	}
	derived.disposers = append(derived.disposers, dispose)
	return derived, nil
}

// Map returns a subject receiving the current keys of s renamed through
// table. Keys without an entry keep their name. A schema on s is carried
// over under the renamed keys.
func (s *Subject) Map(table map[string]string) (*Derived, error) {
	var schema *EventMap
	if s.config.Schema != nil {
		schema = s.config.Schema.derive(func(key string) (string, bool) {
			if mapped, ok := table[key]; ok && mapped != "" {
				return mapped, true
			}
			return key, true
		})
	}
	derived := newDerived(string(s.id)+"_mapped", s.config, schema)

	dispose, err := s.Pipe(derived, table)
	if err != nil {
		return nil, err
	}
	derived.disposers = append(derived.disposers, dispose)
	return derived, nil
}

// Merge returns a subject receiving the current keys of s and of every other source.
// The merged subject accepts the union of the source schemas, or any key when
// one of the sources is unrestricted.
func (s *Subject) Merge(others ...Piper) (*Derived, error) {
	parts := make([]string, 0, len(others)+2)
	parts = append(parts, "merged", string(s.id))
	schemas := []*EventMap{s.config.Schema}
	for _, o := range others {
		parts = append(parts, string(o.ID()))
		var schema *EventMap
		if c, ok := o.(configured); ok {
			schema = c.Config().Schema
		}
		schemas = append(schemas, schema)
	}
	derived := newDerived(strings.Join(parts, "_"), s.config, union(schemas...))

	sources := append([]Piper{s}, others...)
	for _, src := range sources {
		dispose, err := src.Pipe(derived, nil)
		if err != nil {
			derived.Dispose()
			return nil, err
		}
		derived.disposers = append(derived.disposers, dispose)
	}
	return derived, nil
}
