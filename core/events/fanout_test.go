package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"domaauction/core/types"
)

type namedEvent string

func (n namedEvent) EventType() string { return string(n) }

type recorder struct{ seen []string }

func (r *recorder) Emit(evt Event) { r.seen = append(r.seen, evt.EventType()) }

func TestBufferFlushesOnlyOnRequest(t *testing.T) {
	var buf Buffer
	rec := &recorder{}
	buf.Emit(namedEvent("a"))
	buf.Emit(namedEvent("b"))
	require.Empty(t, rec.seen)
	require.Len(t, buf.Events(), 2)

	buf.Flush(rec)
	require.Equal(t, []string{"a", "b"}, rec.seen)
	require.Empty(t, buf.Events())
}

func TestFanoutSkipsNilEmitters(t *testing.T) {
	first, second := &recorder{}, &recorder{}
	Fanout{first, nil, second}.Emit(namedEvent("x"))
	require.Equal(t, []string{"x"}, first.seen)
	require.Equal(t, []string{"x"}, second.seen)
}

func TestBroadcasterDeliversAndCancels(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	b.Emit(namedEvent("one"))
	b.Emit(namedEvent("dropped"))
	evt := <-ch
	require.Equal(t, "one", evt.EventType())

	cancel()
	cancel()
	require.Zero(t, b.Subscribers())
	_, open := <-ch
	require.False(t, open)
}

type wrapped struct{ evt *types.Event }

func (w wrapped) EventType() string { return w.evt.Type }
func (w wrapped) Event() *types.Event { return w.evt }

func TestPayloadUnwrapsEngineEvents(t *testing.T) {
	raw := &types.Event{Type: "registry.minted", Attributes: map[string]string{"tokenId": "1"}}

	got, ok := Payload(raw)
	require.True(t, ok)
	require.Equal(t, "1", got.Attr("tokenId"))

	got, ok = Payload(wrapped{evt: raw})
	require.True(t, ok)
	require.Same(t, raw, got)

	_, ok = Payload(namedEvent("other"))
	require.False(t, ok)
}
