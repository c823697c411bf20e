package cache

import (
	"testing"
	"time"
)

func TestLedgerVictimPicksLeastHits(t *testing.T) {
	base := time.Now()
	l := newLedger[string, int]()
	l.insert("a", 1, 1, base)
	l.insert("b", 2, 1, base)
	l.insert("c", 3, 1, base)

	a, _ := l.lookup("a")
	a.hit(base.Add(time.Second))
	c, _ := l.lookup("c")
	c.hit(base.Add(time.Second))

	key, ok := l.victim()
	if !ok || key != "b" {
		t.Fatalf("expected b as victim, got %q (ok=%v)", key, ok)
	}
}

func TestLedgerVictimTieBreaksOnOlderAccess(t *testing.T) {
	base := time.Now()
	l := newLedger[string, int]()
	l.insert("new", 1, 1, base.Add(2*time.Second))
	l.insert("old", 2, 1, base)
	l.insert("hot", 3, 1, base)

	hot, _ := l.lookup("hot")
	hot.hit(base.Add(3 * time.Second))

	key, ok := l.victim()
	if !ok || key != "old" {
		t.Fatalf("expected old as victim, got %q (ok=%v)", key, ok)
	}
}

func TestLedgerNoVictimWhenHitsUniform(t *testing.T) {
	base := time.Now()
	l := newLedger[string, int]()
	if _, ok := l.victim(); ok {
		t.Fatalf("empty ledger should have no victim")
	}

	l.insert("a", 1, 1, base)
	l.insert("b", 2, 1, base.Add(time.Second))
	if _, ok := l.victim(); ok {
		t.Fatalf("uniform hit counts must not produce a victim")
	}

	for _, k := range []string{"a", "b"} {
		rec, _ := l.lookup(k)
		rec.hit(base.Add(time.Minute))
	}
	if _, ok := l.victim(); ok {
		t.Fatalf("uniform hit counts must not produce a victim after hits")
	}
}

func TestLedgerAccounting(t *testing.T) {
	l := newLedger[string, int]()
	l.insert("a", 1, 5, time.Now())
	l.insert("b", 2, 7, time.Now())
	if l.used != 12 || l.len() != 2 {
		t.Fatalf("unexpected accounting used=%d len=%d", l.used, l.len())
	}

	if _, ok := l.delete("a"); !ok {
		t.Fatalf("delete should report existing key")
	}
	if l.used != 7 {
		t.Fatalf("used should drop to 7, got %d", l.used)
	}
	if _, ok := l.delete("a"); ok {
		t.Fatalf("second delete should report missing key")
	}

	old := l.reset()
	if len(old) != 1 || l.used != 0 || l.len() != 0 {
		t.Fatalf("reset should return old records and zero the ledger")
	}
}

func TestLedgerMakeRoomStopsWithoutProgress(t *testing.T) {
	now := time.Now()
	l := newLedger[string, int]()
	l.insert("a", 1, 6, now)
	l.insert("b", 2, 6, now)
	l.insert("c", 3, 6, now)
	for _, k := range []string{"a", "b"} {
		rec, _ := l.lookup(k)
		rec.hit(now)
	}

	var evicted []string
	ok := l.makeRoom(10, 20, func(k string, _ *record[int]) {
		evicted = append(evicted, k)
	})
	if ok {
		t.Fatalf("makeRoom should fail once only uniform entries remain")
	}
	if len(evicted) != 1 || evicted[0] != "c" {
		t.Fatalf("expected only c to be evicted before stalling, got %v", evicted)
	}
}
