package testing

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/hyperio-mc/hyper/lib/engine"
)

// EngineFactory is a function that creates a new instance of an
// engine.Engine implementation.
type EngineFactory func(t *testing.T) engine.Engine

// RunEngineTests runs a conformance test suite for an engine.Engine
// implementation.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("RegionIsolation", func(t *testing.T) {
			testRegionIsolation(t, factory(t))
		})

		t.Run("IterateBounds", func(t *testing.T) {
			testIterateBounds(t, factory(t))
		})

		t.Run("IterateReverse", func(t *testing.T) {
			testIterateReverse(t, factory(t))
		})

		t.Run("IterateEarlyStop", func(t *testing.T) {
			testIterateEarlyStop(t, factory(t))
		})

		t.Run("UpdateAtomicity", func(t *testing.T) {
			testUpdateAtomicity(t, factory(t))
		})

		t.Run("UpdateReadYourWrites", func(t *testing.T) {
			testUpdateReadYourWrites(t, factory(t))
		})

		t.Run("DropRegion", func(t *testing.T) {
			testDropRegion(t, factory(t))
		})

		t.Run("Close", func(t *testing.T) {
			testClose(t, factory(t))
		})
	})
}

func mustOpen(t *testing.T, e engine.Engine, name string) engine.Region {
	t.Helper()
	r, err := e.OpenRegion(name)
	if err != nil {
		t.Fatalf("OpenRegion(%s) failed: %v", name, err)
	}
	return r
}

func mustPut(t *testing.T, r engine.Region, key, value string) {
	t.Helper()
	if err := r.Put(key, []byte(value)); err != nil {
		t.Fatalf("Put(%s) failed: %v", key, err)
	}
}

func collect(t *testing.T, r engine.Region, opts engine.IterOptions) []string {
	t.Helper()
	var keys []string
	err := r.Iterate(opts, func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	return keys
}

func assertKeys(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected keys %v, got %v", want, got)
		}
	}
}

func testPutGet(t *testing.T, e engine.Engine) {
	defer e.Close()
	r := mustOpen(t, e, "region-a")

	value, found, err := r.Get("missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found || value != nil {
		t.Errorf("expected miss for absent key, got found=%v value=%q", found, value)
	}

	mustPut(t, r, "key-1", "value-1")

	value, found, err = r.Get("key-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || !bytes.Equal(value, []byte("value-1")) {
		t.Errorf("expected value-1, got found=%v value=%q", found, value)
	}

	// overwrite
	mustPut(t, r, "key-1", "value-2")
	value, _, _ = r.Get("key-1")
	if !bytes.Equal(value, []byte("value-2")) {
		t.Errorf("expected overwritten value-2, got %q", value)
	}

	if found, _ := r.Has("key-1"); !found {
		t.Errorf("Has should report the key")
	}
	if found, _ := r.Has("missing"); found {
		t.Errorf("Has should not report an absent key")
	}
}

func testDelete(t *testing.T, e engine.Engine) {
	defer e.Close()
	r := mustOpen(t, e, "region-a")

	mustPut(t, r, "key-1", "value-1")
	if err := r.Delete("key-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := r.Get("key-1"); found {
		t.Errorf("key should be gone after delete")
	}

	// deleting an absent key is a no-op
	if err := r.Delete("missing"); err != nil {
		t.Errorf("Delete of absent key should not fail: %v", err)
	}
}

func testRegionIsolation(t *testing.T, e engine.Engine) {
	defer e.Close()
	a := mustOpen(t, e, "region-a")
	b := mustOpen(t, e, "region-b")

	mustPut(t, a, "shared-key", "from-a")
	mustPut(t, b, "shared-key", "from-b")

	value, _, _ := a.Get("shared-key")
	if !bytes.Equal(value, []byte("from-a")) {
		t.Errorf("region-a sees %q", value)
	}
	value, _, _ = b.Get("shared-key")
	if !bytes.Equal(value, []byte("from-b")) {
		t.Errorf("region-b sees %q", value)
	}

	if keys := collect(t, a, engine.IterOptions{}); len(keys) != 1 {
		t.Errorf("region-a iteration leaked keys: %v", keys)
	}
}

func seedKeys(t *testing.T, r engine.Region, n int) []string {
	t.Helper()
	var keys []string
	for i := 1; i <= n; i++ {
		key := fmt.Sprintf("doc-%d", i)
		mustPut(t, r, key, fmt.Sprintf("value-%d", i))
		keys = append(keys, key)
	}
	return keys
}

func testIterateBounds(t *testing.T, e engine.Engine) {
	defer e.Close()
	r := mustOpen(t, e, "region-a")
	seedKeys(t, r, 5)

	// unbounded
	assertKeys(t, collect(t, r, engine.IterOptions{}), []string{"doc-1", "doc-2", "doc-3", "doc-4", "doc-5"})

	// start bound is inclusive
	assertKeys(t, collect(t, r, engine.IterOptions{Start: "doc-3"}), []string{"doc-3", "doc-4", "doc-5"})

	// end bound is exclusive
	assertKeys(t, collect(t, r, engine.IterOptions{End: "doc-3"}), []string{"doc-1", "doc-2"})

	// both bounds
	assertKeys(t, collect(t, r, engine.IterOptions{Start: "doc-2", End: "doc-4"}), []string{"doc-2", "doc-3"})

	// empty interval
	assertKeys(t, collect(t, r, engine.IterOptions{Start: "doc-4", End: "doc-4"}), nil)
}

func testIterateReverse(t *testing.T, e engine.Engine) {
	defer e.Close()
	r := mustOpen(t, e, "region-a")
	seedKeys(t, r, 5)

	assertKeys(t, collect(t, r, engine.IterOptions{Reverse: true}), []string{"doc-5", "doc-4", "doc-3", "doc-2", "doc-1"})
	assertKeys(t, collect(t, r, engine.IterOptions{Start: "doc-2", End: "doc-5", Reverse: true}), []string{"doc-4", "doc-3", "doc-2"})
}

func testIterateEarlyStop(t *testing.T, e engine.Engine) {
	defer e.Close()
	r := mustOpen(t, e, "region-a")
	seedKeys(t, r, 5)

	var seen []string
	err := r.Iterate(engine.IterOptions{}, func(key string, _ []byte) bool {
		seen = append(seen, key)
		return len(seen) < 2
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	assertKeys(t, seen, []string{"doc-1", "doc-2"})
}

func testUpdateAtomicity(t *testing.T, e engine.Engine) {
	defer e.Close()
	r := mustOpen(t, e, "region-a")
	mustPut(t, r, "existing", "old")

	// a failed transaction must leave no trace
	errAbort := fmt.Errorf("abort")
	err := r.Update(func(tx engine.Tx) error {
		if err := tx.Put("new-key", []byte("new")); err != nil {
			return err
		}
		if err := tx.Delete("existing"); err != nil {
			return err
		}
		return errAbort
	})
	if err != errAbort {
		t.Fatalf("expected abort error back, got %v", err)
	}
	if _, found, _ := r.Get("new-key"); found {
		t.Errorf("aborted write persisted")
	}
	if _, found, _ := r.Get("existing"); !found {
		t.Errorf("aborted delete persisted")
	}

	// a committed transaction applies all writes
	err = r.Update(func(tx engine.Tx) error {
		if err := tx.Put("new-key", []byte("new")); err != nil {
			return err
		}
		return tx.Delete("existing")
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, found, _ := r.Get("new-key"); !found {
		t.Errorf("committed write missing")
	}
	if _, found, _ := r.Get("existing"); found {
		t.Errorf("committed delete missing")
	}
}

func testUpdateReadYourWrites(t *testing.T, e engine.Engine) {
	defer e.Close()
	r := mustOpen(t, e, "region-a")
	mustPut(t, r, "key-1", "stored")

	err := r.Update(func(tx engine.Tx) error {
		// pre-existing value is visible
		value, found, err := tx.Get("key-1")
		if err != nil || !found || !bytes.Equal(value, []byte("stored")) {
			return fmt.Errorf("expected stored value, got found=%v value=%q err=%v", found, value, err)
		}

		// pending write is visible
		if err := tx.Put("key-2", []byte("pending")); err != nil {
			return err
		}
		if _, found, _ := tx.Get("key-2"); !found {
			return fmt.Errorf("pending write not visible to tx read")
		}

		// pending delete is visible
		if err := tx.Delete("key-1"); err != nil {
			return err
		}
		if _, found, _ := tx.Get("key-1"); found {
			return fmt.Errorf("pending delete not visible to tx read")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func testDropRegion(t *testing.T, e engine.Engine) {
	defer e.Close()
	r := mustOpen(t, e, "region-a")
	seedKeys(t, r, 3)

	if err := e.DropRegion("region-a"); err != nil {
		t.Fatalf("DropRegion failed: %v", err)
	}

	// dropping an unknown region is not an error
	if err := e.DropRegion("never-opened"); err != nil {
		t.Errorf("DropRegion of unknown region failed: %v", err)
	}

	// a fresh handle sees an empty region
	fresh := mustOpen(t, e, "region-a")
	if keys := collect(t, fresh, engine.IterOptions{}); len(keys) != 0 {
		t.Errorf("dropped region still has keys: %v", keys)
	}
}

func testClose(t *testing.T, e engine.Engine) {
	r := mustOpen(t, e, "region-a")
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := r.Put("key", []byte("value")); err == nil {
		t.Errorf("Put after Close should fail")
	}
	if _, err := e.OpenRegion("region-b"); err == nil {
		t.Errorf("OpenRegion after Close should fail")
	}

	// closing twice is fine
	if err := e.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
