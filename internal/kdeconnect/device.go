package kdeconnect

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"kderelay/internal/keystroke"
)

// Directory enumerates the devices known to the daemon. It keeps no state;
// every Devices call re-queries.
type Directory struct {
	caller Caller
}

// NewDirectory returns a Directory over c.
func NewDirectory(c Caller) *Directory {
	return &Directory{caller: c}
}

// Devices lists device ids. paired and reachable restrict the listing to
// paired and currently reachable devices respectively.
func (d *Directory) Devices(ctx context.Context, paired, reachable bool) ([]string, error) {
	var ids []string
	// the daemon takes (onlyReachable, onlyPaired)
	err := d.caller.Call(ctx, DaemonPath, DaemonInterface+".devices", []interface{}{reachable, paired}, &ids)
	if err != nil {
		return nil, transportError("devices", DaemonPath, err)
	}
	return ids, nil
}

// Device returns a handle for id. No call is made.
func (d *Directory) Device(id string) *Device {
	return &Device{caller: d.caller, id: id, path: DevicePath(id)}
}

// Device is a handle on one remote device.
type Device struct {
	caller Caller
	id     string
	path   dbus.ObjectPath
}

// ID returns the device id.
func (d *Device) ID() string { return d.id }

// Path returns the device object path.
func (d *Device) Path() dbus.ObjectPath { return d.path }

// Name fetches the device's display name.
func (d *Device) Name(ctx context.Context) (string, error) {
	v, err := d.caller.Property(ctx, d.path, DeviceInterface, "name")
	if err != nil {
		return "", transportError("get name", d.path, err)
	}
	name, ok := v.Value().(string)
	if !ok {
		return "", transportError("get name", d.path, fmt.Errorf("%w: name is %s", ErrUnexpectedReply, v.Signature()))
	}
	return name, nil
}

// Reachable reports whether the daemon currently has a link to the device.
func (d *Device) Reachable(ctx context.Context) (bool, error) {
	v, err := d.caller.Property(ctx, d.path, DeviceInterface, "isReachable")
	if err != nil {
		return false, transportError("get isReachable", d.path, err)
	}
	ok, isBool := v.Value().(bool)
	if !isBool {
		return false, transportError("get isReachable", d.path, fmt.Errorf("%w: isReachable is %s", ErrUnexpectedReply, v.Signature()))
	}
	return ok, nil
}

// HasPlugin reports whether the device has the named plugin loaded.
func (d *Device) HasPlugin(ctx context.Context, name string) (bool, error) {
	var has bool
	err := d.caller.Call(ctx, d.path, DeviceInterface+".hasPlugin", []interface{}{name}, &has)
	if err != nil {
		return false, transportError("hasPlugin", d.path, err)
	}
	return has, nil
}

// Keyboard returns the device's remote keyboard session. No call is made.
func (d *Device) Keyboard() *RemoteKeyboard {
	return &RemoteKeyboard{caller: d.caller, id: d.id, path: RemoteKeyboardPath(d.id)}
}

// RemoteKeyboard drives the remote keyboard plugin of one device.
type RemoteKeyboard struct {
	caller Caller
	id     string
	path   dbus.ObjectPath
}

// DeviceID returns the id of the owning device.
func (k *RemoteKeyboard) DeviceID() string { return k.id }

// Path returns the keyboard object path.
func (k *RemoteKeyboard) Path() dbus.ObjectPath { return k.path }

// Ready reports whether the far side currently has a remote keyboard input
// surface active.
func (k *RemoteKeyboard) Ready(ctx context.Context) (bool, error) {
	v, err := k.caller.Property(ctx, k.path, RemoteKeyboardInterface, "remoteState")
	if err != nil {
		return false, transportError("get remoteState", k.path, err)
	}
	ready, ok := v.Value().(bool)
	if !ok {
		return false, transportError("get remoteState", k.path, fmt.Errorf("%w: remoteState is %s", ErrUnexpectedReply, v.Signature()))
	}
	return ready, nil
}

// Send issues one key press. It does not retry. A key that cannot be encoded
// is reported with keystroke.ErrUnknownKey and nothing is sent.
func (k *RemoteKeyboard) Send(ctx context.Context, key keystroke.Key) error {
	p, err := keystroke.Encode(key)
	if err != nil {
		return err
	}
	err = k.caller.Call(ctx, k.path, RemoteKeyboardInterface+".sendKeyPress", p.Args(), nil)
	return transportError("sendKeyPress", k.path, err)
}
