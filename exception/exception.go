package exception

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/monitoring"
)

// SafeGo runs fn on a new goroutine. The returned channel receives fn's error,
// or an error describing a recovered panic, and is then closed.
func SafeGo(name string, fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("PANIC", "Panic in: ", name, " ", r, "\n", string(debug.Stack()))
				done <- fmt.Errorf("panic in %s: %v", name, r)
			}
		}()
		done <- fn()
	}()
	return done
}

// SafeGoWithPanic is SafeGo for goroutines whose failure must stop the process
func SafeGoWithPanic(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("PANIC", "Panic in: ", name, " ", r, "\n", string(debug.Stack()))
				os.Exit(1)
			}
		}()
		fn()
	}()
}
