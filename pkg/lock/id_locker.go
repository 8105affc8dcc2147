package lock

import (
	"sync"

	"github.com/apex/log"
)

// IdLocker hands out a mutex per id so that all mutations of a single
// transfer are serialized while unrelated transfers proceed in parallel.
type IdLocker struct {
	mapMutex sync.Mutex
	idMap    map[string]*sync.Mutex
}

func NewIdLocker() *IdLocker {
	return &IdLocker{
		idMap: make(map[string]*sync.Mutex),
	}
}

func (l *IdLocker) AcquireLock(id string) {
	l.mapMutex.Lock()
	var m sync.Mutex
	idMutex, ok := l.idMap[id]
	if !ok {
		idMutex = &m
		l.idMap[id] = idMutex
	}
	l.mapMutex.Unlock()
	idMutex.Lock()
}

func (l *IdLocker) ReleaseLock(id string) {
	l.mapMutex.Lock()
	m, ok := l.idMap[id]
	l.mapMutex.Unlock()
	if !ok {
		log.Errorf("ReleaseLock called on id (%s) with no mutex", id)

		return
	}

	m.Unlock()
}

func (l *IdLocker) WithLock(id string, f func() error) error {
	l.AcquireLock(id)
	defer l.ReleaseLock(id)
	return f()
}
