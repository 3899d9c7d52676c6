package asyncx

import (
	"fmt"
	"sync"
)

type outcome[T any] struct {
	value T
	err   error
}

// Future is the eventual result of a function started with Run.
type Future[T any] struct {
	ch   chan outcome[T]
	once sync.Once
	res  outcome[T]
}

// Run starts fn in its own goroutine. A panic in fn is returned as an error
// from Await.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan outcome[T], 1)}
	go func() {
		var o outcome[T]
		defer func() { f.ch <- o }()
		defer func() {
			if r := recover(); r != nil {
				o.err = PanicError{Value: r}
			}
		}()
		o.value, o.err = fn()
	}()
	return f
}

// Await blocks until the function returns. Later calls return the same result.
func (f *Future[T]) Await() (T, error) {
	f.once.Do(func() { f.res = <-f.ch })
	return f.res.value, f.res.err
}

// wait returns the channel the result is delivered on. Only one receiver
// may read from it, so callers must not mix it with Await.
func (f *Future[T]) wait() <-chan outcome[T] {
	return f.ch
}

// PanicError carries a recovered panic value.
type PanicError struct {
	Value any
}

func (p PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}
