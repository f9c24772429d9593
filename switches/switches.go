// Package switches feeds hardware switch events from kernel pseudo
// files into the daemon datapipes: covers, slides, the proximity
// sensor, camera buttons, the lock flicker key and the USB cable. It
// also drives the two hardware interlocks tied to call, alarm and
// tklock state.
package switches

import (
	"golang.org/x/sys/unix"

	"github.com/jhnikula/mce/datapipe"
	"github.com/jhnikula/mce/iomon"
	"github.com/jhnikula/mce/logger"
	"github.com/jhnikula/mce/state"
)

var lg = logger.Slog

type SwitchKind int

const (
	LidCover SwitchKind = iota
	KeyboardSlide
	LensCover
	BatteryCover
	MmcCover0
	MmcCover1
	ProximitySensor
	UsbCable
	CameraLaunchButton
	CameraFocusButton
	LockKey
)

func (k SwitchKind) String() string {
	switch k {
	case LidCover:
		return "lid_cover"
	case KeyboardSlide:
		return "keyboard_slide"
	case LensCover:
		return "lens_cover"
	case BatteryCover:
		return "battery_cover"
	case MmcCover0:
		return "mmc0_cover"
	case MmcCover1:
		return "mmc1_cover"
	case ProximitySensor:
		return "proximity_sensor"
	case UsbCable:
		return "usb_cable"
	case CameraLaunchButton:
		return "camera_launch"
	case CameraFocusButton:
		return "camera_focus"
	case LockKey:
		return "lockkey"
	default:
		return "unknown"
	}
}

// Entry describes where a switch reports its state and which payload
// prefix counts as the active reading. DisablePath, where present, is
// the control file that masks the source's interrupts.
type Entry struct {
	StatePath   string
	Active      string
	DisablePath string
}

type Table map[SwitchKind]Entry

// DefaultTable is the gpio-switch sysfs layout of the Nokia internet
// tablets.
func DefaultTable() Table {
	return Table{
		LidCover:           {StatePath: "/sys/devices/platform/gpio-switch/prot_shell/state", Active: "open"},
		KeyboardSlide:      {StatePath: "/sys/devices/platform/gpio-switch/slide/state", Active: "open"},
		LensCover:          {StatePath: "/sys/devices/platform/gpio-switch/cam_shutter/state", Active: "open"},
		BatteryCover:       {StatePath: "/sys/devices/platform/gpio-switch/bat_cover/state"},
		MmcCover0:          {StatePath: "/sys/devices/platform/mmci-omap.1/cover_switch"},
		MmcCover1:          {StatePath: "/sys/devices/platform/mmci-omap.2/cover_switch"},
		ProximitySensor:    {StatePath: "/sys/devices/platform/gpio-switch/proximity/state", Active: "open", DisablePath: "/sys/devices/platform/gpio-switch/proximity/disable"},
		UsbCable:           {StatePath: "/sys/devices/platform/musb_hdrc/vbus", Active: "Vbus on"},
		CameraLaunchButton: {StatePath: "/sys/devices/platform/gpio-switch/cam_launch/state", Active: "active"},
		CameraFocusButton:  {StatePath: "/sys/devices/platform/gpio-switch/cam_focus/state", DisablePath: "/sys/devices/platform/gpio-switch/cam_focus/disable"},
		LockKey:            {StatePath: "/sys/devices/platform/gpio-switch/kb_lock/state", Active: "closed"},
	}
}

// startupOrder is the order sources are opened in; shutdown walks it
// backwards.
var startupOrder = []SwitchKind{
	LockKey,
	KeyboardSlide,
	CameraFocusButton,
	CameraLaunchButton,
	LidCover,
	ProximitySensor,
	UsbCable,
	LensCover,
	MmcCover0,
	MmcCover1,
	BatteryCover,
}

type Config struct {
	Pipes    *state.Pipes
	Monitors *iomon.Registry
	// Table defaults to DefaultTable when nil.
	Table Table
}

type Module struct {
	pipes    *state.Pipes
	registry *iomon.Registry
	table    Table

	monitors map[SwitchKind]*iomon.Monitor

	// discovered once at Start, read-only afterwards
	canDisableProximity bool
	canDisableFocus     bool
	hasFlickerKey       bool

	// mutated only by the trigger callbacks on the main loop
	callState  state.CallState
	alarmState state.AlarmState
	oldSubmode state.Submode

	callTrigger    *datapipe.Trigger[state.CallState]
	alarmTrigger   *datapipe.Trigger[state.AlarmState]
	submodeTrigger *datapipe.Trigger[state.Submode]
}

func New(cfg Config) *Module {
	table := cfg.Table
	if table == nil {
		table = DefaultTable()
	}
	return &Module{
		pipes:    cfg.Pipes,
		registry: cfg.Monitors,
		table:    table,
		monitors: make(map[SwitchKind]*iomon.Monitor),
	}
}

// Start wires the module up. Sources that cannot be opened are logged
// and skipped; a device simply lacks those switches.
func (m *Module) Start() {
	m.callTrigger = m.pipes.CallState.AddInputTrigger(m.callStateChanged)
	m.alarmTrigger = m.pipes.AlarmState.AddInputTrigger(m.alarmStateChanged)
	m.submodeTrigger = m.pipes.Submode.AddOutputTrigger(m.submodeChanged)

	// default in case the hardware never reports
	m.pipes.LidCover.Publish(state.CoverOpen)

	for _, kind := range startupOrder {
		m.openMonitor(kind)
	}

	m.updateProximityMonitor()

	m.hasFlickerKey = m.monitors[LockKey] != nil

	m.canDisableProximity = writable(m.table[ProximitySensor].DisablePath)
	m.canDisableFocus = writable(m.table[CameraFocusButton].DisablePath)

	lg.Info("switch monitoring started",
		"sources", len(m.monitors),
		"flicker_key", m.hasFlickerKey,
		"proximity_control", m.canDisableProximity,
		"focus_control", m.canDisableFocus)
}

// Stop detaches the module in the reverse order of Start.
func (m *Module) Stop() {
	m.pipes.Submode.RemoveOutputTrigger(m.submodeTrigger)
	m.pipes.AlarmState.RemoveInputTrigger(m.alarmTrigger)
	m.pipes.CallState.RemoveInputTrigger(m.callTrigger)

	for i := len(startupOrder) - 1; i >= 0; i-- {
		kind := startupOrder[i]
		if mon := m.monitors[kind]; mon != nil {
			mon.Close()
			delete(m.monitors, kind)
		}
	}
}

// HasFlickerKey reports whether the device has a lock flicker key.
func (m *Module) HasFlickerKey() bool {
	return m.hasFlickerKey
}

func (m *Module) openMonitor(kind SwitchKind) {
	entry, ok := m.table[kind]
	if !ok || entry.StatePath == "" {
		return
	}
	mon, err := m.registry.Open(entry.StatePath, iomon.PolicyIgnore, m.handlerFor(kind))
	if err != nil {
		lg.Debug("switch source unavailable", "switch", kind, "error", err)
		return
	}
	m.monitors[kind] = mon
}

func (m *Module) handlerFor(kind SwitchKind) iomon.Callback {
	entry := m.table[kind]
	switch kind {
	case LidCover:
		return m.coverHandler(m.pipes.LidCover, entry.Active, true)
	case KeyboardSlide:
		return m.coverHandler(m.pipes.KeyboardSlide, entry.Active, true)
	case LensCover:
		return m.coverHandler(m.pipes.LensCover, entry.Active, true)
	case ProximitySensor:
		return m.coverHandler(m.pipes.ProximitySensor, entry.Active, false)
	case UsbCable:
		return m.usbCableHandler(entry.Active)
	case CameraLaunchButton:
		return m.cameraLaunchHandler(entry.Active)
	case LockKey:
		return m.lockKeyHandler(entry.Active)
	default:
		return m.activityHandler()
	}
}

func writable(path string) bool {
	return path != "" && unix.Access(path, unix.W_OK) == nil
}
