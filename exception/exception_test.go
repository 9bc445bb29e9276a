package exception

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mezonai/utxochain/logx"
)

func TestSafeGoReturnsError(t *testing.T) {
	boom := errors.New("boom")
	err := <-SafeGo("worker", func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSafeGoRecoversPanic(t *testing.T) {
	logx.SetOutput(io.Discard)

	done := SafeGo("worker", func() error { panic("bad state") })
	err := <-done
	assert.EqualError(t, err, "panic in worker: bad state")

	_, open := <-done
	assert.False(t, open)
}
