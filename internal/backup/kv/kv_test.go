package kv

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Rani367/Hativon-sub000/internal/cache"
	"github.com/Rani367/Hativon-sub000/internal/util/compression"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fileStore, err := NewFileStore(t.TempDir(), "drafts", compression.ZstdCompressor{})
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"memory": NewMemoryStore("drafts", nil),
		"file":   fileStore,
	}
}

func TestStoreContract(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}

			if err := s.Put("new", []byte("one")); err != nil {
				t.Fatal(err)
			}
			if err := s.Put("new", []byte("two")); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get("new")
			if err != nil || string(got) != "two" {
				t.Fatalf("Expected two, got %q (%v)", got, err)
			}

			if err := s.Put("abc/def", []byte("slash")); err != nil {
				t.Fatal(err)
			}
			if err := s.Rename("new", "d-1"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get("new"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected old key gone, got %v", err)
			}
			if got, _ := s.Get("d-1"); string(got) != "two" {
				t.Errorf("Expected moved value, got %q", got)
			}
			if err := s.Rename("new", "d-1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound renaming a missing key, got %v", err)
			}

			keys, err := s.Keys()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(keys, []string{"abc/def", "d-1"}) {
				t.Errorf("Unexpected keys %v", keys)
			}

			if err := s.Delete("d-1"); err != nil {
				t.Fatal(err)
			}
			if err := s.Delete("d-1"); err != nil {
				t.Errorf("Deleting twice should not fail: %v", err)
			}
		})
	}
}

func TestMemoryStoreNamespaces(t *testing.T) {
	shared := cache.NewCache[string, []byte]()
	a := NewMemoryStore("a", shared)
	b := NewMemoryStore("b", shared)

	a.Put("k", []byte("from a"))
	if _, err := b.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Namespace b should not see a's key, got %v", err)
	}
	if keys, _ := b.Keys(); len(keys) != 0 {
		t.Errorf("Expected no keys in b, got %v", keys)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "drafts", nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", ".", ".."} {
		if err := s.Put(key, []byte("x")); err == nil {
			t.Errorf("Expected error for key %q", key)
		}
	}
}
