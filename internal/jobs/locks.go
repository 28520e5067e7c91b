package jobs

import (
	"sync"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/dataset"
)

// NamedLocks hands out one mutex per name. Mutexes are never freed; the
// key space is bounded by the archives and tables a process loads.
type NamedLocks struct {
	locks sync.Map
}

// NewNamedLocks creates an empty lock set.
func NewNamedLocks() *NamedLocks {
	return &NamedLocks{}
}

// Lock acquires the named locks in the order given and returns a func that
// releases them in reverse order. Callers must use one global key order.
func (n *NamedLocks) Lock(names ...string) (unlock func()) {
	held := make([]*sync.Mutex, 0, len(names))
	for _, name := range names {
		v, _ := n.locks.LoadOrStore(name, &sync.Mutex{})
		mu := v.(*sync.Mutex)
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// ArchiveLockKey identifies the extraction directory an archive maps to.
// Archives sharing a base name share a directory, so they share a key.
func ArchiveLockKey(archive string) string {
	return "archive:" + dataset.ArchiveBaseName(archive)
}

// TableLockKey identifies a qualified table.
func TableLockKey(info catalog.TableInfo) string {
	return "table:" + info.String()
}

// LockKeys returns the keys a load job holds: archive first, then table.
func LockKeys(job *LoadDatasetJob) []string {
	return []string{ArchiveLockKey(job.ArchivePath), TableLockKey(job.TableInfo())}
}
