package lifecycle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_ForegroundFiresCallback(t *testing.T) {
	var fired atomic.Int32
	m := New(func() { fired.Add(1) })

	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()

	m.Notify(Foreground)

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_BackgroundTakesNoAction(t *testing.T) {
	var fired atomic.Int32
	m := New(func() { fired.Add(1) })

	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()

	m.Notify(Background)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestMonitor_NotifyBeforeStartIsDropped(t *testing.T) {
	var fired atomic.Int32
	m := New(func() { fired.Add(1) })

	m.Notify(Foreground)

	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestMonitor_NotifyAfterStopIsDropped(t *testing.T) {
	var fired atomic.Int32
	m := New(func() { fired.Add(1) })

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop())

	m.Notify(Foreground)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestMonitor_StartTwice(t *testing.T) {
	m := New(func() {})

	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()

	require.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)
}

func TestMonitor_StopWithoutStart(t *testing.T) {
	m := New(func() {})

	require.ErrorIs(t, m.Stop(), ErrNotStarted)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "Background", Background.String())
	assert.Equal(t, "Foreground", Foreground.String())
	assert.Equal(t, "Unknown", Phase(9).String())
}
