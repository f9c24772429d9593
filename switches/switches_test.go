package switches

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhnikula/mce/iomon"
	"github.com/jhnikula/mce/mainloop"
	"github.com/jhnikula/mce/state"
)

func newTestRegistry(t *testing.T) *iomon.Registry {
	t.Helper()
	loop := mainloop.New()
	go loop.Run()
	t.Cleanup(loop.Stop)

	registry, err := iomon.NewRegistry(loop)
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })
	return registry
}

func TestStartSeedsLidCoverOpen(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	assert.Equal(t, state.CoverOpen, f.pipes.LidCover.Latest())
}

func TestHasFlickerKey(t *testing.T) {
	with := newFixture(t, fixtureOpts{lockKeySource: true})
	assert.True(t, with.m.HasFlickerKey())

	without := newFixture(t, fixtureOpts{})
	assert.False(t, without.m.HasFlickerKey())
}

func TestStartOpensAllSources(t *testing.T) {
	dir := t.TempDir()
	registry := newTestRegistry(t)

	table := Table{}
	for _, kind := range startupOrder {
		path := filepath.Join(dir, kind.String())
		writeFile(t, path, "closed\n")
		table[kind] = Entry{StatePath: path, Active: "open"}
	}

	m := New(Config{Pipes: state.NewPipes(), Monitors: registry, Table: table})
	m.Start()
	t.Cleanup(m.Stop)

	assert.Equal(t, len(startupOrder), registry.Count())
	assert.True(t, m.HasFlickerKey())
}

func TestStartOnMachineWithoutSwitches(t *testing.T) {
	registry := newTestRegistry(t)

	m := New(Config{Pipes: state.NewPipes(), Monitors: registry})
	require.NotPanics(t, m.Start)
	t.Cleanup(m.Stop)

	assert.Equal(t, 0, registry.Count())
	assert.False(t, m.HasFlickerKey())
}

func TestStartDoesNotTouchControlsBeforeProbe(t *testing.T) {
	dir := t.TempDir()
	registry := newTestRegistry(t)

	disable := filepath.Join(dir, "proximity_disable")
	writeFile(t, disable, "x")

	pipes := state.NewPipes()
	m := New(Config{Pipes: pipes, Monitors: registry, Table: Table{
		ProximitySensor: {
			StatePath:   filepath.Join(dir, "proximity_state"),
			Active:      "open",
			DisablePath: disable,
		},
	}})
	m.Start()
	t.Cleanup(m.Stop)

	assert.Equal(t, "x", readFile(t, disable))

	// the first update after startup converges it
	pipes.CallState.Publish(state.CallStateNone)
	assert.Equal(t, "1", readFile(t, disable))
}

func TestStopDetachesEverything(t *testing.T) {
	f := newFixture(t, fixtureOpts{
		proximityControl: true,
		focusControl:     true,
		focusSource:      true,
		lockKeySource:    true,
	})
	require.Equal(t, 2, f.registry.Count())

	f.m.Stop()

	assert.Equal(t, 0, f.registry.Count())

	writeFile(t, f.proximityDisable, "x")
	f.pipes.CallState.Publish(state.CallStateRinging)
	assert.Equal(t, "x", readFile(t, f.proximityDisable))

	writeFile(t, f.focusDisable, "x")
	f.pipes.Submode.Publish(state.SubmodeTklock)
	assert.Equal(t, "x", readFile(t, f.focusDisable))
}

func TestSwitchEventFlowsToPipe(t *testing.T) {
	dir := t.TempDir()
	registry := newTestRegistry(t)

	lidPath := filepath.Join(dir, "lid_state")
	writeFile(t, lidPath, "closed\n")

	pipes := state.NewPipes()
	m := New(Config{Pipes: pipes, Monitors: registry, Table: Table{
		LidCover: {StatePath: lidPath, Active: "open"},
	}})
	m.Start()
	t.Cleanup(m.Stop)

	require.Equal(t, state.CoverOpen, pipes.LidCover.Latest())

	writeFile(t, lidPath, "closed\n")
	require.Eventually(t, func() bool {
		return pipes.LidCover.Latest() == state.CoverClosed
	}, 2*time.Second, 10*time.Millisecond)

	writeFile(t, lidPath, "open\n")
	require.Eventually(t, func() bool {
		return pipes.LidCover.Latest() == state.CoverOpen
	}, 2*time.Second, 10*time.Millisecond)

	assert.False(t, pipes.DeviceInactive.Latest())
}
