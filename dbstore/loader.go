package dbstore

import (
	"fmt"
	"net/url"

	"github.com/chainforge/chainstore/db"
	"github.com/chainforge/chainstore/statestore"
	"github.com/chainforge/chainstore/store"
)

// Loader scheme tokens. The URI path selects the database location:
// "leveldb:///var/data/chain" opens a LevelDB directory,
// "bolt:///var/data/chain.db" a single bbolt file.
const (
	SchemeLevelDB = "leveldb"
	SchemeBolt    = "bolt"
)

func init() {
	store.Register(SchemeLevelDB, loaderFor(db.NewLevelDBProvider))
	store.Register(SchemeBolt, loaderFor(db.NewBoltProvider))
}

func loaderFor(open func(string) (db.DatabaseProvider, error)) store.Loader {
	return func(u *url.URL) (store.Store, statestore.StateStore, error) {
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return nil, nil, fmt.Errorf("store uri %q has no path", u)
		}
		provider, err := open(path)
		if err != nil {
			return nil, nil, err
		}
		chainStore, err := New(provider)
		if err != nil {
			_ = provider.Close()
			return nil, nil, err
		}
		return chainStore, NewStateStore(provider), nil
	}
}
