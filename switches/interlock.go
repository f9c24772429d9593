package switches

import (
	"github.com/jhnikula/mce/iomon"
	"github.com/jhnikula/mce/state"
)

// proximityNeeded reports whether anything on the device currently
// wants proximity readings: an incoming or ongoing call, or an alarm
// demanding attention.
func (m *Module) proximityNeeded() bool {
	return m.callState == state.CallStateRinging ||
		m.callState == state.CallStateActive ||
		m.alarmState == state.AlarmVisible ||
		m.alarmState == state.AlarmRinging
}

// updateProximityMonitor converges the proximity sensor's enable state
// with the cached call and alarm state. Idempotent; safe to recompute
// on every call-state or alarm-state update. Without a writable disable
// control this is a no-op.
func (m *Module) updateProximityMonitor() {
	if !m.canDisableProximity {
		return
	}

	entry := m.table[ProximitySensor]
	if m.proximityNeeded() {
		iomon.WriteString(entry.DisablePath, "0")
		// the sensor may have moved while it was masked
		if err := m.refreshProximityState(); err != nil {
			lg.Debug("proximity refresh failed", "error", err)
		}
	} else {
		iomon.WriteString(entry.DisablePath, "1")
	}
}

func (m *Module) callStateChanged(call state.CallState) {
	m.callState = call
	m.updateProximityMonitor()
}

func (m *Module) alarmStateChanged(alarm state.AlarmState) {
	m.alarmState = alarm
	m.updateProximityMonitor()
}

// submodeChanged masks the camera focus interrupts while the tklock is
// engaged; the focus button cannot be used with the lock on anyway.
// Only the lock bit's own edges matter, other submode bits may flip
// freely in between.
func (m *Module) submodeChanged(submode state.Submode) {
	if submode&state.SubmodeTklock != 0 {
		if m.oldSubmode&state.SubmodeTklock == 0 {
			if m.canDisableFocus && m.monitors[CameraFocusButton] != nil {
				iomon.WriteString(m.table[CameraFocusButton].DisablePath, "1")
			}
		}
	} else {
		if m.oldSubmode&state.SubmodeTklock != 0 {
			if m.canDisableFocus {
				iomon.WriteString(m.table[CameraFocusButton].DisablePath, "0")
			}
		}
	}

	m.oldSubmode = submode
}
