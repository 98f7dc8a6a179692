package store

import "fmt"

// Open returns the gateway for a backend name ("json", "sqlite" or "memory") rooted at
// statePath. The returned close func is never nil.
func Open(backend, statePath string) (Gateway, func() error, error) {
	switch backend {
	case "", "json":
		return NewJSONStore(statePath), func() error { return nil }, nil
	case "sqlite":
		s, err := OpenSQLite(statePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "memory":
		return NewMemory(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", backend)
}
