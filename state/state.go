// Package state holds the enumerations shared across the daemon and the
// set of datapipes the modules publish on.
package state

import (
	"strconv"
	"strings"

	"github.com/jhnikula/mce/datapipe"
)

type CoverState int

const (
	CoverUndef CoverState = iota - 1
	CoverClosed
	CoverOpen
)

func (t CoverState) String() string {
	switch t {
	case CoverOpen:
		return "open"
	case CoverClosed:
		return "closed"
	case CoverUndef:
		return "undef"
	default:
		return strconv.Itoa(int(t))
	}
}

type CameraButtonState int

const (
	CameraButtonUndef CameraButtonState = iota - 1
	CameraButtonUnpressed
	CameraButtonLaunch
)

func (t CameraButtonState) String() string {
	switch t {
	case CameraButtonLaunch:
		return "launch"
	case CameraButtonUnpressed:
		return "unpressed"
	case CameraButtonUndef:
		return "undef"
	default:
		return strconv.Itoa(int(t))
	}
}

type UsbCableState int

const (
	UsbCableUndef UsbCableState = iota - 1
	UsbCableDisconnected
	UsbCableConnected
)

func (t UsbCableState) String() string {
	switch t {
	case UsbCableConnected:
		return "connected"
	case UsbCableDisconnected:
		return "disconnected"
	case UsbCableUndef:
		return "undef"
	default:
		return strconv.Itoa(int(t))
	}
}

type CallState int

const (
	CallStateInvalid CallState = iota - 1
	CallStateNone
	CallStateRinging
	CallStateActive
	CallStateService
)

func (t CallState) String() string {
	switch t {
	case CallStateNone:
		return "none"
	case CallStateRinging:
		return "ringing"
	case CallStateActive:
		return "active"
	case CallStateService:
		return "service"
	default:
		return "invalid"
	}
}

// ParseCallState maps the wire string back to a call state, Invalid for
// anything unrecognized.
func ParseCallState(s string) CallState {
	switch s {
	case "none":
		return CallStateNone
	case "ringing":
		return CallStateRinging
	case "active":
		return CallStateActive
	case "service":
		return CallStateService
	default:
		return CallStateInvalid
	}
}

type AlarmState int

const (
	AlarmInvalid AlarmState = iota - 1
	AlarmOff
	AlarmRinging
	AlarmVisible
	AlarmSnoozed
)

func (t AlarmState) String() string {
	switch t {
	case AlarmOff:
		return "off"
	case AlarmRinging:
		return "ringing"
	case AlarmVisible:
		return "visible"
	case AlarmSnoozed:
		return "snoozed"
	default:
		return "invalid"
	}
}

func ParseAlarmState(s string) AlarmState {
	switch s {
	case "off":
		return AlarmOff
	case "ringing":
		return AlarmRinging
	case "visible":
		return AlarmVisible
	case "snoozed":
		return AlarmSnoozed
	default:
		return AlarmInvalid
	}
}

// Submode is a bitmask of transient daemon modes layered on top of the
// main system state.
type Submode int

const (
	SubmodeNormal     Submode = 0
	SubmodeTransition Submode = 1 << 0
	SubmodeTklock     Submode = 1 << 1
	SubmodeEveater    Submode = 1 << 2
	SubmodeBootup     Submode = 1 << 3
)

func (t Submode) String() string {
	if t == SubmodeNormal {
		return "normal"
	}
	var parts []string
	if t&SubmodeTransition != 0 {
		parts = append(parts, "transition")
	}
	if t&SubmodeTklock != 0 {
		parts = append(parts, "tklock")
	}
	if t&SubmodeEveater != 0 {
		parts = append(parts, "eveater")
	}
	if t&SubmodeBootup != 0 {
		parts = append(parts, "bootup")
	}
	if len(parts) == 0 {
		return strconv.Itoa(int(t))
	}
	return strings.Join(parts, "|")
}

// Pipes is the daemon-wide set of datapipes. DeviceInactive carries the
// activity signal: publishing false means the device just saw user
// activity. LockKey carries a plain 0/1 so consumers on the message bus
// get an integer.
type Pipes struct {
	CallState       *datapipe.Pipe[CallState]
	AlarmState      *datapipe.Pipe[AlarmState]
	Submode         *datapipe.Pipe[Submode]
	DeviceInactive  *datapipe.Pipe[bool]
	LidCover        *datapipe.Pipe[CoverState]
	KeyboardSlide   *datapipe.Pipe[CoverState]
	LensCover       *datapipe.Pipe[CoverState]
	ProximitySensor *datapipe.Pipe[CoverState]
	CameraButton    *datapipe.Pipe[CameraButtonState]
	LockKey         *datapipe.Pipe[int]
	UsbCable        *datapipe.Pipe[UsbCableState]
}

func NewPipes() *Pipes {
	return &Pipes{
		CallState:       datapipe.New("call_state", CallStateNone),
		AlarmState:      datapipe.New("alarm_ui_state", AlarmInvalid),
		Submode:         datapipe.New("submode", SubmodeNormal),
		DeviceInactive:  datapipe.New("device_inactive", true),
		LidCover:        datapipe.New("lid_cover", CoverUndef),
		KeyboardSlide:   datapipe.New("keyboard_slide", CoverUndef),
		LensCover:       datapipe.New("lens_cover", CoverUndef),
		ProximitySensor: datapipe.New("proximity_sensor", CoverUndef),
		CameraButton:    datapipe.New("camera_button", CameraButtonUndef),
		LockKey:         datapipe.New("lockkey", 0),
		UsbCable:        datapipe.New("usb_cable", UsbCableUndef),
	}
}
