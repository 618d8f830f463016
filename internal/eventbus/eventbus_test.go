package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedBus_PublishSubscribe(t *testing.T) {
	b := NewTyped[int](4)
	a := b.Subscribe()
	c := b.Subscribe()
	b.Publish(1)
	b.Publish(2)
	assert.Equal(t, 1, <-a)
	assert.Equal(t, 2, <-a)
	assert.Equal(t, 1, <-c)
	b.Unsubscribe(c)
	// Buffered events stay readable after Unsubscribe.
	assert.Equal(t, 2, <-c)
	_, ok := <-c
	assert.False(t, ok)
}

func TestTypedBus_DropsWhenFull(t *testing.T) {
	b := NewTyped[string](1)
	sub := b.Subscribe()
	b.Publish("a")
	b.Publish("b")
	assert.Equal(t, uint64(1), b.Dropped())
	assert.Equal(t, "a", <-sub)
}

func TestTypedBus_CloseDrains(t *testing.T) {
	b := NewTyped[int](0)
	sub := b.Subscribe()
	b.Publish(7)
	b.Close()
	b.Close()
	b.Publish(8)

	v, ok := <-sub
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	_, ok = <-sub
	assert.False(t, ok)

	late := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}
