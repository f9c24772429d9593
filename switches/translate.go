package switches

import (
	"bytes"
	"os"

	"github.com/jhnikula/mce/datapipe"
	"github.com/jhnikula/mce/iomon"
	"github.com/jhnikula/mce/state"
)

// classify reports whether the raw payload begins with the switch's
// active literal. Anything else, including garbage, reads as the
// negative state.
func classify(data []byte, active string) bool {
	return active != "" && bytes.HasPrefix(data, []byte(active))
}

// generateActivity marks the device as active so idle timers elsewhere
// reset.
func (m *Module) generateActivity() {
	m.pipes.DeviceInactive.Publish(false)
}

// coverHandler translates open/closed readings onto pipe. Opening
// counts as user activity where wantActivity is set; the proximity
// sensor must not reset idle timers, covers and slides should.
func (m *Module) coverHandler(pipe *datapipe.Pipe[state.CoverState], active string, wantActivity bool) iomon.Callback {
	return func(data []byte) bool {
		cover := state.CoverClosed
		if classify(data, active) {
			cover = state.CoverOpen
			if wantActivity {
				m.generateActivity()
			}
		}
		pipe.Publish(cover)
		return true
	}
}

// usbCableHandler translates cable readings. Plugging and unplugging
// both count as activity.
func (m *Module) usbCableHandler(active string) iomon.Callback {
	return func(data []byte) bool {
		cable := state.UsbCableDisconnected
		if classify(data, active) {
			cable = state.UsbCableConnected
		}
		m.generateActivity()
		m.pipes.UsbCable.Publish(cable)
		return true
	}
}

func (m *Module) cameraLaunchHandler(active string) iomon.Callback {
	return func(data []byte) bool {
		button := state.CameraButtonUnpressed
		if classify(data, active) {
			button = state.CameraButtonLaunch
		}
		m.generateActivity()
		m.pipes.CameraButton.Publish(button)
		return true
	}
}

// lockKeyHandler publishes the flicker key position as 0/1 with no
// activity side effect.
func (m *Module) lockKeyHandler(active string) iomon.Callback {
	return func(data []byte) bool {
		key := 0
		if classify(data, active) {
			key = 1
		}
		m.pipes.LockKey.Publish(key)
		return true
	}
}

// activityHandler serves the switches whose reading carries no state
// anyone consumes; they exist to wake the idle timer.
func (m *Module) activityHandler() iomon.Callback {
	return func(data []byte) bool {
		m.generateActivity()
		return true
	}
}

// refreshProximityState re-reads the proximity source and republishes
// it, used right after re-enabling the sensor since no notification
// fires for a value that changed while the sensor was masked.
func (m *Module) refreshProximityState() error {
	entry := m.table[ProximitySensor]
	data, err := os.ReadFile(entry.StatePath)
	if err != nil {
		return err
	}
	cover := state.CoverClosed
	if classify(data, entry.Active) {
		cover = state.CoverOpen
	}
	m.pipes.ProximitySensor.Publish(cover)
	return nil
}
