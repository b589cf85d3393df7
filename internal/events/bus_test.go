package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllTopicSubscribers(t *testing.T) {
	b := NewBus()

	ch1, cancel1 := b.Subscribe("exp-1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("exp-1")
	defer cancel2()

	b.Publish("exp-1", Event{Stage: "downloading", Percent: 5})

	ev := <-ch1
	assert.Equal(t, "downloading", ev.Stage)
	ev = <-ch2
	assert.Equal(t, 5, ev.Percent)
}

func TestNoCrossDeliveryBetweenExports(t *testing.T) {
	b := NewBus()

	ch1, cancel1 := b.Subscribe("exp-1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("exp-2")
	defer cancel2()

	b.Publish("exp-1", Event{Stage: "processing", Percent: 40})

	require.Len(t, ch1, 1)
	assert.Empty(t, ch2)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe("exp-1")
	cancel()

	// Channel is closed; publishing afterwards must not panic.
	b.Publish("exp-1", Event{Stage: "completed", Percent: 100})
	_, open := <-ch
	assert.False(t, open)

	// Second cancel is a no-op.
	cancel()
}

func TestCloseTopicClosesSubscribers(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe("exp-1")
	b.CloseTopic("exp-1")

	_, open := <-ch
	assert.False(t, open)

	// cancel after CloseTopic must not double-close.
	cancel()
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBus()

	_, cancel := b.Subscribe("exp-1")
	defer cancel()

	// Overflow the buffer; Publish must never block.
	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish("exp-1", Event{Stage: "processing", Percent: i})
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	b := NewBus()
	b.Publish("nobody", Event{Stage: "failed"})
}
