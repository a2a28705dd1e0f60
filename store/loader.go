package store

import (
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/chainforge/chainstore/logx"
	"github.com/chainforge/chainstore/statestore"
)

// Loader constructs a store and its paired state store from a parsed
// descriptor URI. The scheme has already been resolved; everything
// else (path, query) is the backend's to interpret.
type Loader func(u *url.URL) (Store, statestore.StateStore, error)

var (
	loaderMu sync.RWMutex
	loaders  = map[string]Loader{}
)

// Register makes a backend available under the given URI scheme. Each
// backend registers itself from its package init. Registering the same
// scheme twice is a programming error and panics.
func Register(scheme string, loader Loader) {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	if loader == nil {
		panic("store: Register with nil loader")
	}
	if _, dup := loaders[scheme]; dup {
		panic(fmt.Sprintf("store: scheme %q registered twice", scheme))
	}
	loaders[scheme] = loader
}

// Schemes returns the registered scheme tokens, sorted.
func Schemes() []string {
	loaderMu.RLock()
	defer loaderMu.RUnlock()
	out := make([]string, 0, len(loaders))
	for s := range loaders {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LoadStore opens the backend selected by the URI's scheme. A bare
// scheme token with no further parameters is valid for backends that
// need none ("memory:").
func LoadStore(uri string) (Store, statestore.StateStore, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse store uri %q: %w", uri, err)
	}
	if u.Scheme == "" {
		return nil, nil, fmt.Errorf("%w: uri %q has no scheme", ErrUnknownScheme, uri)
	}

	loaderMu.RLock()
	loader, ok := loaders[u.Scheme]
	loaderMu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
	}

	logx.Info("STORE", "loading backend for scheme ", u.Scheme)
	return loader(u)
}
