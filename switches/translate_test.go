package switches

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhnikula/mce/state"
)

// newTranslationFixture builds a module with no open monitors; handlers
// are invoked directly with raw payloads. The counter counts activity
// publishes.
func newTranslationFixture(t *testing.T) (*Module, *state.Pipes, *int) {
	t.Helper()
	pipes := state.NewPipes()
	m := New(Config{Pipes: pipes, Table: Table{
		LidCover:           {Active: "open"},
		KeyboardSlide:      {Active: "open"},
		LensCover:          {Active: "open"},
		ProximitySensor:    {Active: "open"},
		UsbCable:           {Active: "Vbus on"},
		CameraLaunchButton: {Active: "active"},
		LockKey:            {Active: "closed"},
	}})

	activity := new(int)
	pipes.DeviceInactive.AddOutputTrigger(func(inactive bool) {
		if !inactive {
			*activity++
		}
	})
	return m, pipes, activity
}

func TestCoverTranslation(t *testing.T) {
	tests := map[string]struct {
		payload  string
		want     state.CoverState
		activity int
	}{
		"open":               {payload: "open\n", want: state.CoverOpen, activity: 1},
		"closed":             {payload: "closed\n", want: state.CoverClosed, activity: 0},
		"open plus junk":     {payload: "open_gibberish", want: state.CoverOpen, activity: 1},
		"capitalized is not": {payload: "Open\n", want: state.CoverClosed, activity: 0},
		"empty payload":      {payload: "", want: state.CoverClosed, activity: 0},
		"garbage":            {payload: "!!!", want: state.CoverClosed, activity: 0},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, pipes, activity := newTranslationFixture(t)
			handler := m.handlerFor(LidCover)

			keep := handler([]byte(test.payload))

			assert.True(t, keep)
			assert.Equal(t, test.want, pipes.LidCover.Latest())
			assert.Equal(t, test.activity, *activity)
		})
	}
}

func TestKeyboardSlideAndLensBehaveLikeCovers(t *testing.T) {
	m, pipes, activity := newTranslationFixture(t)

	m.handlerFor(KeyboardSlide)([]byte("open\n"))
	m.handlerFor(LensCover)([]byte("closed\n"))

	assert.Equal(t, state.CoverOpen, pipes.KeyboardSlide.Latest())
	assert.Equal(t, state.CoverClosed, pipes.LensCover.Latest())
	assert.Equal(t, 1, *activity)
}

func TestTranslationIsDeterministic(t *testing.T) {
	m, pipes, _ := newTranslationFixture(t)
	handler := m.handlerFor(LidCover)

	handler([]byte("closed\n"))
	handler([]byte("open\n"))
	require.Equal(t, state.CoverOpen, pipes.LidCover.Latest())

	handler([]byte("open\n"))
	assert.Equal(t, state.CoverOpen, pipes.LidCover.Latest())
}

func TestProximityNeverGeneratesActivity(t *testing.T) {
	m, pipes, activity := newTranslationFixture(t)
	handler := m.handlerFor(ProximitySensor)

	handler([]byte("open\n"))
	require.Equal(t, state.CoverOpen, pipes.ProximitySensor.Latest())

	handler([]byte("closed\n"))
	require.Equal(t, state.CoverClosed, pipes.ProximitySensor.Latest())

	assert.Zero(t, *activity)
}

func TestUsbCableTranslation(t *testing.T) {
	tests := map[string]struct {
		payload string
		want    state.UsbCableState
	}{
		"connected":    {payload: "Vbus on, charger detected", want: state.UsbCableConnected},
		"disconnected": {payload: "Vbus off", want: state.UsbCableDisconnected},
		"garbage":      {payload: "???", want: state.UsbCableDisconnected},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, pipes, activity := newTranslationFixture(t)

			m.handlerFor(UsbCable)([]byte(test.payload))

			assert.Equal(t, test.want, pipes.UsbCable.Latest())
			assert.Equal(t, 1, *activity, "cable events always count as activity")
		})
	}
}

func TestCameraLaunchTranslation(t *testing.T) {
	m, pipes, activity := newTranslationFixture(t)
	handler := m.handlerFor(CameraLaunchButton)

	handler([]byte("active\n"))
	assert.Equal(t, state.CameraButtonLaunch, pipes.CameraButton.Latest())

	handler([]byte("inactive\n"))
	assert.Equal(t, state.CameraButtonUnpressed, pipes.CameraButton.Latest())

	assert.Equal(t, 2, *activity)
}

func TestLockKeyTranslation(t *testing.T) {
	m, pipes, activity := newTranslationFixture(t)
	handler := m.handlerFor(LockKey)

	handler([]byte("closed\n"))
	assert.Equal(t, 1, pipes.LockKey.Latest())

	handler([]byte("open\n"))
	assert.Equal(t, 0, pipes.LockKey.Latest())

	assert.Zero(t, *activity)
}

func TestGenericActivitySwitches(t *testing.T) {
	for _, kind := range []SwitchKind{BatteryCover, MmcCover0, MmcCover1, CameraFocusButton} {
		t.Run(kind.String(), func(t *testing.T) {
			m, pipes, activity := newTranslationFixture(t)

			keep := m.handlerFor(kind)([]byte("whatever the kernel says"))

			assert.True(t, keep)
			assert.Equal(t, 1, *activity)
			assert.Equal(t, state.CameraButtonUndef, pipes.CameraButton.Latest())
		})
	}
}

func TestActivityMarksDeviceActive(t *testing.T) {
	m, pipes, _ := newTranslationFixture(t)
	require.True(t, pipes.DeviceInactive.Latest())

	m.handlerFor(LidCover)([]byte("open\n"))

	assert.False(t, pipes.DeviceInactive.Latest())
}
