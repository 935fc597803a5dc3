// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package pool

import "sync"

// ObjectPool hands out reusable values of one type.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool is an ObjectPool over sync.Pool. Values may be dropped by the
// garbage collector at any time, so Get falls back to the creator.
type SyncPool[T any] struct {
	pool sync.Pool
}

// NewSyncPool creates a SyncPool that calls creator when empty.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	sp := &SyncPool[T]{}
	sp.pool.New = func() any { return creator() }
	return sp
}

func (sp *SyncPool[T]) Get() T { return sp.pool.Get().(T) }

func (sp *SyncPool[T]) Put(obj T) { sp.pool.Put(obj) }

var _ ObjectPool[int] = (*SyncPool[int])(nil)
