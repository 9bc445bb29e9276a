package events

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/utxochain/logx"
)

func init() {
	logx.SetOutput(io.Discard)
}

func TestEventBusDelivers(t *testing.T) {
	bus := NewEventBus()

	id, ch := bus.Subscribe()
	assert.Equal(t, 1, bus.GetTotalSubscriptions())
	assert.True(t, bus.HasSubscriber(id))

	bus.Publish(NewBlockMined("0000abcd", 3, 2))

	select {
	case ev := <-ch:
		assert.Equal(t, EventBlockMined, ev.Type())
		assert.Equal(t, "0000abcd", ev.Key())
		mined, ok := ev.(*BlockMined)
		require.True(t, ok)
		assert.Equal(t, int32(3), mined.Height())
		assert.Equal(t, 2, mined.TxCount())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	assert.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id))
	assert.Equal(t, 0, bus.GetTotalSubscriptions())

	_, open := <-ch
	assert.False(t, open)
}

func TestPublishSkipsFullSubscribers(t *testing.T) {
	bus := NewEventBus()
	_, ch := bus.Subscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(NewTransactionRejected("tx", "bad signature"))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestEventAccessors(t *testing.T) {
	included := NewTransactionIncludedInBlock("tx1", 4, "0000ff")
	assert.Equal(t, EventTransactionIncludedInBlock, included.Type())
	assert.Equal(t, "tx1", included.Key())
	assert.Equal(t, int32(4), included.Height())
	assert.Equal(t, "0000ff", included.BlockHash())
	assert.False(t, included.Timestamp().IsZero())

	rejected := NewTransactionRejected("tx2", "missing input")
	assert.Equal(t, EventTransactionRejected, rejected.Type())
	assert.Equal(t, "missing input", rejected.ErrorMessage())
}
