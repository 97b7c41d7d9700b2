package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribersOrderAndRemoval(t *testing.T) {
	var subs Subscribers
	var got []string

	removeA := subs.Add(func(e Event) { got = append(got, "a:"+string(e.Type)) })
	var removeB func()
	removeB = subs.Add(func(e Event) {
		got = append(got, "b:"+string(e.Type))
		// removing during delivery must not skip later subscribers
		removeB()
	})
	subs.Add(func(e Event) { got = append(got, "c:"+string(e.Type)) })

	subs.Emit(Event{Type: EventPlay})
	removeA()
	subs.Emit(Event{Type: EventPause})

	assert.Equal(t, []string{"a:play", "b:play", "c:play", "c:pause"}, got)
}
