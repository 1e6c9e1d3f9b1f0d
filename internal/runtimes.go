package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

// runtimes holds one runtime per goroutine id.
var runtimes sync.Map

// GetRuntime returns the runtime bound to the calling goroutine, creating it on first use.
func GetRuntime() *Runtime {
	gid := goid.Get()

	if r, ok := runtimes.Load(gid); ok {
		return r.(*Runtime)
	}

	r, _ := runtimes.LoadOrStore(gid, NewRuntime())
	return r.(*Runtime)
}

// ReleaseRuntime forgets the runtime of the calling goroutine. Nodes it
// created keep working but the next GetRuntime on this goroutine starts fresh.
func ReleaseRuntime() {
	runtimes.Delete(goid.Get())
}
