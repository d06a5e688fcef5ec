package telnet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPumpRunsPostedWork(t *testing.T) {
	pump := newEventPump()

	stop := false
	var order []int
	var onLoop []bool

	go pump.run(func() {
		order = append(order, 0)
	}, func() bool {
		return stop
	})

	pump.post(func() {
		order = append(order, 1)
		onLoop = append(onLoop, pump.onLoop())

		// Posting from the loop runs inline
		pump.post(func() {
			order = append(order, 2)
		})
		order = append(order, 3)
	})
	pump.post(func() {
		stop = true
	})

	select {
	case <-pump.done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "event pump did not exit")
	}

	assert.Equal(t, []int{0, 1, 2, 3}, order)
	assert.Equal(t, []bool{true}, onLoop)
	assert.False(t, pump.onLoop())
}

func TestEventPumpDropsLatePosts(t *testing.T) {
	pump := newEventPump()
	go pump.run(func() {}, func() bool { return true })
	<-pump.done

	returned := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			pump.post(func() {})
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "post blocked after the loop exited")
	}
}

func TestPublisherClear(t *testing.T) {
	var got []string
	publisher := NewPublisher([]LineHandler{
		func(c *Client, text string) { got = append(got, "first:"+text) },
	})
	publisher.Register(func(c *Client, text string) { got = append(got, "second:"+text) })

	publisher.Fire(nil, "a")
	publisher.Clear()
	publisher.Fire(nil, "b")

	assert.Equal(t, []string{"first:a", "second:a"}, got)
}

func TestPublisherHookMayClear(t *testing.T) {
	count := 0
	var publisher *EventPublisher[string]
	publisher = NewPublisher([]LineHandler{
		func(c *Client, text string) {
			count++
			publisher.Clear()
		},
	})

	publisher.Fire(nil, "a")
	publisher.Fire(nil, "b")
	assert.Equal(t, 1, count)
}
