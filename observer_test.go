package memoryruntime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserverManagerNotifiesInRegistrationOrder(t *testing.T) {
	m := NewObserverManager(nil)
	var order []int
	m.Register(ObserverFunc(func(ctx context.Context, ev ObserverEvent) {
		order = append(order, 1)
	}))
	m.Register(ObserverFunc(func(ctx context.Context, ev ObserverEvent) {
		order = append(order, 2)
	}))

	m.Notify(context.Background(), stateChangedEvent(&Thread{ID: "t1"}, &Step{ID: "s1"}, nil, nil))
	assert.Equal(t, []int{1, 2}, order)
}

func TestObserverManagerRecoversFromPanicAndStillNotifiesOthers(t *testing.T) {
	m := NewObserverManager(nil)
	called := false
	m.Register(ObserverFunc(func(ctx context.Context, ev ObserverEvent) {
		panic("boom")
	}))
	m.Register(ObserverFunc(func(ctx context.Context, ev ObserverEvent) {
		called = true
	}))

	assert.NotPanics(t, func() {
		m.Notify(context.Background(), stateChangedEvent(&Thread{ID: "t1"}, &Step{ID: "s1"}, nil, nil))
	})
	assert.True(t, called, "a panicking observer must not block later observers")
}

func TestObserverManagerCarriesCompactionTokenDeltas(t *testing.T) {
	m := NewObserverManager(nil)
	var got ObserverEvent
	m.Register(ObserverFunc(func(ctx context.Context, ev ObserverEvent) {
		if ev.Kind == NotifyCompactionEnd {
			got = ev
		}
	}))

	m.Notify(context.Background(), ObserverEvent{
		Kind:           NotifyCompactionEnd,
		ThreadID:       "t1",
		TokensBefore:   500,
		TokensAfter:    120,
		ChunksReplaced: 3,
	})

	assert.Equal(t, NotifyCompactionEnd, got.Kind)
	assert.Equal(t, 500, got.TokensBefore)
	assert.Equal(t, 120, got.TokensAfter)
	assert.Equal(t, 3, got.ChunksReplaced)
}

func TestObserverManagerCarriesErrorNotifications(t *testing.T) {
	m := NewObserverManager(nil)
	var got ObserverEvent
	m.Register(ObserverFunc(func(ctx context.Context, ev ObserverEvent) {
		got = ev
	}))

	failure := errors.New("boom")
	m.Notify(context.Background(), errorEvent("t1", failure))

	assert.Equal(t, NotifyError, got.Kind)
	assert.Equal(t, "t1", got.ThreadID)
	assert.ErrorIs(t, got.Err, failure)
}
