package cache

import "time"

// Policy 记录单个键的命中次数、最近访问时间与占用字节数，驱动淘汰决策。
type Policy struct {
	Hits       int64
	LastAccess time.Time
	Size       int64
}

type record[P any] struct {
	payload P
	policy  Policy
	seq     uint64
}

// hit 在每次成功读取后计数并刷新访问时间。
func (r *record[P]) hit(now time.Time) {
	r.policy.Hits++
	r.policy.LastAccess = now
}

func (r *record[P]) expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(r.policy.LastAccess) > maxAge
}

// ledger 把存储载荷与 Policy 放在同一张表里，调用方负责加锁。
type ledger[K comparable, P any] struct {
	records map[K]*record[P]
	used    int64
	seq     uint64
}

func newLedger[K comparable, P any]() *ledger[K, P] {
	return &ledger[K, P]{records: make(map[K]*record[P])}
}

func (l *ledger[K, P]) lookup(key K) (*record[P], bool) {
	rec, ok := l.records[key]
	return rec, ok
}

// insert 写入新条目，命中次数从 0 开始；调用方需先删除同键旧条目。
func (l *ledger[K, P]) insert(key K, payload P, size int64, now time.Time) *record[P] {
	l.seq++
	rec := &record[P]{
		payload: payload,
		policy:  Policy{LastAccess: now, Size: size},
		seq:     l.seq,
	}
	l.records[key] = rec
	l.used += size
	return rec
}

func (l *ledger[K, P]) delete(key K) (*record[P], bool) {
	rec, ok := l.records[key]
	if !ok {
		return nil, false
	}
	delete(l.records, key)
	l.used -= rec.policy.Size
	return rec, true
}

// reset 清空账本并返回旧条目，便于磁盘实现删除文件。
func (l *ledger[K, P]) reset() map[K]*record[P] {
	old := l.records
	l.records = make(map[K]*record[P])
	l.used = 0
	return old
}

// victim 找出命中最少的条目（同命中数取更早访问者）。
// 所有条目命中数相同时不淘汰任何条目。
func (l *ledger[K, P]) victim() (K, bool) {
	var (
		key     K
		least   *record[P]
		maxHits int64
		found   bool
	)
	for k, rec := range l.records {
		if !found {
			key, least, maxHits, found = k, rec, rec.policy.Hits, true
			continue
		}
		if rec.policy.Hits > maxHits {
			maxHits = rec.policy.Hits
		}
		if lessUsed(rec, least) {
			key, least = k, rec
		}
	}
	if !found || least.policy.Hits == maxHits {
		var zero K
		return zero, false
	}
	return key, true
}

func lessUsed[P any](a, b *record[P]) bool {
	if a.policy.Hits != b.policy.Hits {
		return a.policy.Hits < b.policy.Hits
	}
	if !a.policy.LastAccess.Equal(b.policy.LastAccess) {
		return a.policy.LastAccess.Before(b.policy.LastAccess)
	}
	return a.seq < b.seq
}

// makeRoom 逐个淘汰 victim，直到 need 字节可以放入 limit，或无法继续淘汰。
func (l *ledger[K, P]) makeRoom(need, limit int64, evicted func(K, *record[P])) bool {
	for l.used+need > limit {
		key, ok := l.victim()
		if !ok {
			return false
		}
		rec, _ := l.delete(key)
		if evicted != nil {
			evicted(key, rec)
		}
	}
	return true
}

func (l *ledger[K, P]) len() int {
	return len(l.records)
}
