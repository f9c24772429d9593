package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"

	"github.com/jhnikula/mce/mainloop"
	"github.com/jhnikula/mce/state"
	"github.com/jhnikula/mce/switches"
)

const (
	dbusName         = "com.nokia.mce"
	dbusRequestPath  = "/com/nokia/mce/request"
	dbusRequestIface = "com.nokia.mce.request"
	dbusSignalPath   = "/com/nokia/mce/signal"
	dbusSignalIface  = "com.nokia.mce.signal"
)

// mceDbus receives state changes from the telephony and alarm daemons
// and republishes the switch pipes as D-Bus signals. Ingress methods
// post onto the main loop; they never touch daemon state directly.
type mceDbus struct {
	conn  *dbus.Conn
	loop  *mainloop.Loop
	pipes *state.Pipes
	mod   *switches.Module

	removeForwards []func()
}

func (d *mceDbus) GetVersion() (string, *dbus.Error) {
	return version, nil
}

func (d *mceDbus) GetCallState() (string, *dbus.Error) {
	return d.pipes.CallState.Latest().String(), nil
}

func (d *mceDbus) HasFlickerKey() (bool, *dbus.Error) {
	return d.mod.HasFlickerKey(), nil
}

func (d *mceDbus) GetSwitchState(name string) (string, *dbus.Error) {
	switch name {
	case "lid_cover":
		return d.pipes.LidCover.Latest().String(), nil
	case "keyboard_slide":
		return d.pipes.KeyboardSlide.Latest().String(), nil
	case "lens_cover":
		return d.pipes.LensCover.Latest().String(), nil
	case "proximity_sensor":
		return d.pipes.ProximitySensor.Latest().String(), nil
	case "camera_button":
		return d.pipes.CameraButton.Latest().String(), nil
	case "usb_cable":
		return d.pipes.UsbCable.Latest().String(), nil
	case "lockkey":
		return strconv.Itoa(d.pipes.LockKey.Latest()), nil
	default:
		return "", dbus.MakeFailedError(fmt.Errorf("unknown switch %q", name))
	}
}

func (d *mceDbus) ReqCallStateChange(call string) *dbus.Error {
	callState := state.ParseCallState(call)
	if callState == state.CallStateInvalid {
		return dbus.MakeFailedError(fmt.Errorf("unknown call state %q", call))
	}
	d.loop.Post(func() { d.pipes.CallState.Publish(callState) })
	return nil
}

func (d *mceDbus) ReqAlarmStateChange(alarm string) *dbus.Error {
	alarmState := state.ParseAlarmState(alarm)
	if alarmState == state.AlarmInvalid {
		return dbus.MakeFailedError(fmt.Errorf("unknown alarm state %q", alarm))
	}
	d.loop.Post(func() { d.pipes.AlarmState.Publish(alarmState) })
	return nil
}

func (d *mceDbus) ReqTklockModeChange(mode string) *dbus.Error {
	switch mode {
	case "locked":
		d.loop.Post(func() {
			d.pipes.Submode.Publish(d.pipes.Submode.Latest() | state.SubmodeTklock)
		})
	case "unlocked":
		d.loop.Post(func() {
			d.pipes.Submode.Publish(d.pipes.Submode.Latest() &^ state.SubmodeTklock)
		})
	default:
		return dbus.MakeFailedError(fmt.Errorf("unknown tklock mode %q", mode))
	}
	return nil
}

func (d *mceDbus) emit(member string, values ...interface{}) {
	err := d.conn.Emit(dbus.ObjectPath(dbusSignalPath), dbusSignalIface+"."+member, values...)
	if err != nil {
		lg.Debug("signal emit failed", "signal", member, "error", err)
	}
}

// forwardSignals mirrors the switch pipes onto the signal interface so
// anything on the bus can follow the hardware without polling us.
func (d *mceDbus) forwardSignals() {
	forward := func(remove func()) {
		d.removeForwards = append(d.removeForwards, remove)
	}

	lid := d.pipes.LidCover.AddOutputTrigger(func(v state.CoverState) {
		d.emit("lid_cover_ind", v.String())
	})
	forward(func() { d.pipes.LidCover.RemoveOutputTrigger(lid) })

	slide := d.pipes.KeyboardSlide.AddOutputTrigger(func(v state.CoverState) {
		d.emit("keyboard_slide_ind", v.String())
	})
	forward(func() { d.pipes.KeyboardSlide.RemoveOutputTrigger(slide) })

	lens := d.pipes.LensCover.AddOutputTrigger(func(v state.CoverState) {
		d.emit("lens_cover_ind", v.String())
	})
	forward(func() { d.pipes.LensCover.RemoveOutputTrigger(lens) })

	proximity := d.pipes.ProximitySensor.AddOutputTrigger(func(v state.CoverState) {
		d.emit("proximity_sensor_ind", v.String())
	})
	forward(func() { d.pipes.ProximitySensor.RemoveOutputTrigger(proximity) })

	camera := d.pipes.CameraButton.AddOutputTrigger(func(v state.CameraButtonState) {
		d.emit("camera_button_ind", v.String())
	})
	forward(func() { d.pipes.CameraButton.RemoveOutputTrigger(camera) })

	usb := d.pipes.UsbCable.AddOutputTrigger(func(v state.UsbCableState) {
		d.emit("usb_cable_ind", v.String())
	})
	forward(func() { d.pipes.UsbCable.RemoveOutputTrigger(usb) })

	lockkey := d.pipes.LockKey.AddOutputTrigger(func(v int) {
		d.emit("lock_key_ind", int32(v))
	})
	forward(func() { d.pipes.LockKey.RemoveOutputTrigger(lockkey) })

	inactive := d.pipes.DeviceInactive.AddOutputTrigger(func(v bool) {
		d.emit("system_inactivity_ind", v)
	})
	forward(func() { d.pipes.DeviceInactive.RemoveOutputTrigger(inactive) })
}

func (d *mceDbus) Close() {
	for _, remove := range d.removeForwards {
		remove()
	}
	d.removeForwards = nil
	d.conn.Close()
}

func setupDbus(config *Config, loop *mainloop.Loop, pipes *state.Pipes, mod *switches.Module) (*mceDbus, error) {
	var conn *dbus.Conn
	var err error
	if config.SessionBus {
		conn, err = dbus.ConnectSessionBus()
	} else {
		conn, err = dbus.ConnectSystemBus()
	}
	if err != nil {
		return nil, err
	}

	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, errors.New("name already taken")
	}

	d := &mceDbus{conn: conn, loop: loop, pipes: pipes, mod: mod}
	if err := conn.Export(d, dbus.ObjectPath(dbusRequestPath), dbusRequestIface); err != nil {
		conn.Close()
		return nil, err
	}
	d.forwardSignals()

	lg.Debug("listening on D-Bus", "interface", dbusRequestIface, "path", dbusRequestPath)
	return d, nil
}
