// Package mempool keeps sized pools of scratch buffers for the per-pixel
// passes of edge detection. Buffers are zeroed on Get.
package mempool

import "sync"

var (
	intPools  sync.Map // size class -> *sync.Pool of []int
	boolPools sync.Map // size class -> *sync.Pool of []bool
)

const classStep = 1024

// sizeClass rounds n up to the next multiple of 1024, minimum 1024.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	return (n + classStep - 1) / classStep * classStep
}

func poolFor[T any](pools *sync.Map, cls int) *sync.Pool {
	if p, ok := pools.Load(cls); ok {
		return p.(*sync.Pool) //nolint:forcetypeassert
	}
	p, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	return p.(*sync.Pool) //nolint:forcetypeassert
}

func get[T any](pools *sync.Map, n int) []T {
	cls := sizeClass(n)
	buf, ok := poolFor[T](pools, cls).Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

func put[T any](pools *sync.Map, buf []T) {
	if buf == nil {
		return
	}
	// Only full buckets go back, so every pooled slice satisfies its class.
	cls := sizeClass(cap(buf))
	if cap(buf) != cls {
		return
	}
	poolFor[T](pools, cls).Put(buf[:cap(buf)]) //nolint:staticcheck
}

// GetInt returns a zeroed []int of length n. Return it with PutInt.
func GetInt(n int) []int { return get[int](&intPools, n) }

// PutInt returns a buffer to its pool. Nil is ignored.
func PutInt(buf []int) { put(&intPools, buf) }

// GetBool returns a zeroed []bool of length n. Return it with PutBool.
func GetBool(n int) []bool { return get[bool](&boolPools, n) }

// PutBool returns a buffer to its pool. Nil is ignored.
func PutBool(buf []bool) { put(&boolPools, buf) }
