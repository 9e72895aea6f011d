// Package lock provides per-user locking so a player's commands settle
// one at a time even when Discord delivers them concurrently.
package lock

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a user already has an operation in flight.
var ErrBusy = errors.New("another operation is already in progress for this user")

type userMutex struct {
	mu sync.Mutex
}

// UserLock hands out one mutex per user ID.
type UserLock struct {
	locks sync.Map // map[int64]*userMutex
	pool  sync.Pool
}

// NewUserLock creates a new UserLock.
func NewUserLock() *UserLock {
	return &UserLock{
		pool: sync.Pool{
			New: func() any {
				return &userMutex{}
			},
		},
	}
}

func (ul *UserLock) getLock(userID int64) *userMutex {
	if v, ok := ul.locks.Load(userID); ok {
		return v.(*userMutex)
	}

	newLock := ul.pool.Get().(*userMutex)
	actual, loaded := ul.locks.LoadOrStore(userID, newLock)
	if loaded {
		ul.pool.Put(newLock)
	}
	return actual.(*userMutex)
}

// Lock acquires the user's lock, blocking until it is free.
func (ul *UserLock) Lock(userID int64) {
	ul.getLock(userID).mu.Lock()
}

// Unlock releases the user's lock.
func (ul *UserLock) Unlock(userID int64) {
	if v, ok := ul.locks.Load(userID); ok {
		v.(*userMutex).mu.Unlock()
	}
}

// TryLock acquires the user's lock without blocking.
func (ul *UserLock) TryLock(userID int64) bool {
	return ul.getLock(userID).mu.TryLock()
}

// WithLock runs fn while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}

// WithTryLock runs fn if the user's lock is free, otherwise returns
// ErrBusy without waiting.
func (ul *UserLock) WithTryLock(userID int64, fn func() error) error {
	if !ul.TryLock(userID) {
		return ErrBusy
	}
	defer ul.Unlock(userID)
	return fn()
}
