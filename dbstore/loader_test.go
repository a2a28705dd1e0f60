package dbstore_test

import (
	"path/filepath"
	"testing"

	"github.com/chainforge/chainstore/dbstore"
	"github.com/chainforge/chainstore/store"
)

func TestLoader_OpensBothEngines(t *testing.T) {
	dir := t.TempDir()
	uris := map[string]string{
		dbstore.SchemeLevelDB: "leveldb://" + filepath.Join(dir, "leveldb"),
		dbstore.SchemeBolt:    "bolt://" + filepath.Join(dir, "bolt.db"),
	}
	for scheme, uri := range uris {
		t.Run(scheme, func(t *testing.T) {
			s, states, err := store.LoadStore(uri)
			if err != nil {
				t.Fatalf("LoadStore(%q) failed: %v", uri, err)
			}
			defer s.Close()
			defer states.Close()

			if _, ok := s.(*dbstore.Store); !ok {
				t.Fatalf("unexpected store type %T", s)
			}

			digest := states.Put([]byte("payload"))
			if got, ok := states.Get(digest); !ok || string(got) != "payload" {
				t.Errorf("state round trip: %q ok=%v", got, ok)
			}
		})
	}
}

func TestLoader_EmptyPath(t *testing.T) {
	if _, _, err := store.LoadStore("leveldb://"); err == nil {
		t.Fatal("expected an error for a pathless uri")
	}
}
