// Package kdeconnecttest provides an in-memory KDE Connect daemon that
// implements kdeconnect.Caller, for tests that exercise the relay without a
// bus.
package kdeconnecttest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/godbus/dbus/v5"

	"kderelay/internal/kdeconnect"
	"kderelay/internal/keystroke"
)

// Error names returned by the fake, mirroring the bus daemon's.
const (
	ErrUnknownObject = "org.freedesktop.DBus.Error.UnknownObject"
	ErrUnknownMethod = "org.freedesktop.DBus.Error.UnknownMethod"
)

// Device is the fake state of one remote device.
type Device struct {
	ID        string
	Name      string
	Paired    bool
	Reachable bool
	Ready     bool
	Plugins   []string

	NameErr  error
	ReadyErr error

	// sendErrs is consumed one entry per sendKeyPress; nil entries succeed.
	sendErrs []error
	sent     []keystroke.Payload
}

// Call is one recorded remote call.
type Call struct {
	Path   dbus.ObjectPath
	Method string
	Args   []interface{}
}

// Daemon is a fake KDE Connect daemon. It is safe for concurrent use.
type Daemon struct {
	mu      sync.Mutex
	devices []*Device
	listErr error
	calls   []Call
}

var _ kdeconnect.Caller = (*Daemon)(nil)

// NewDaemon returns a daemon with the given devices, listed in order.
func NewDaemon(devices ...Device) *Daemon {
	d := &Daemon{}
	for _, dev := range devices {
		d.AddDevice(dev)
	}
	return d
}

// AddDevice appends a device to the listing.
func (d *Daemon) AddDevice(dev Device) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev.Plugins = slices.Clone(dev.Plugins)
	d.devices = append(d.devices, &dev)
}

// RemoveDevice drops a device from the listing.
func (d *Daemon) RemoveDevice(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.devices = slices.DeleteFunc(d.devices, func(dev *Device) bool { return dev.ID == id })
}

// SetListError makes subsequent device listings fail with err (nil clears).
func (d *Daemon) SetListError(err error) {
	d.mu.Lock()
	d.listErr = err
	d.mu.Unlock()
}

// SetReady sets the remote keyboard state of a device.
func (d *Daemon) SetReady(id string, ready bool) {
	d.update(id, func(dev *Device) { dev.Ready = ready })
}

// SetReadyError makes the remoteState read of a device fail.
func (d *Daemon) SetReadyError(id string, err error) {
	d.update(id, func(dev *Device) { dev.ReadyErr = err })
}

// SetNameError makes the name read of a device fail.
func (d *Daemon) SetNameError(id string, err error) {
	d.update(id, func(dev *Device) { dev.NameErr = err })
}

// FailSends queues results for the next sendKeyPress calls to a device.
// A nil entry lets that call succeed.
func (d *Daemon) FailSends(id string, errs ...error) {
	d.update(id, func(dev *Device) { dev.sendErrs = append(dev.sendErrs, errs...) })
}

// Sent returns the payloads a device accepted, oldest first.
func (d *Daemon) Sent(id string) []keystroke.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dev := d.find(id); dev != nil {
		return slices.Clone(dev.sent)
	}
	return nil
}

// SentText concatenates the literal characters a device accepted.
func (d *Daemon) SentText(id string) string {
	var s string
	for _, p := range d.Sent(id) {
		s += p.Text
	}
	return s
}

// Calls returns every call received, oldest first.
func (d *Daemon) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

// CallCount counts received calls to method.
func (d *Daemon) CallCount(method string) int {
	n := 0
	for _, c := range d.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded calls.
func (d *Daemon) ResetCalls() {
	d.mu.Lock()
	d.calls = nil
	d.mu.Unlock()
}

// Call implements kdeconnect.Caller.
func (d *Daemon) Call(ctx context.Context, path dbus.ObjectPath, method string, args []interface{}, reply interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Path: path, Method: method, Args: slices.Clone(args)})

	switch method {
	case kdeconnect.DaemonInterface + ".devices":
		if path != kdeconnect.DaemonPath {
			return unknownObject(path)
		}
		if d.listErr != nil {
			return d.listErr
		}
		reachable, paired := args[0].(bool), args[1].(bool)
		var ids []string
		for _, dev := range d.devices {
			if (reachable && !dev.Reachable) || (paired && !dev.Paired) {
				continue
			}
			ids = append(ids, dev.ID)
		}
		*reply.(*[]string) = ids
		return nil

	case kdeconnect.DeviceInterface + ".hasPlugin":
		dev := d.byPath(path, kdeconnect.DevicePath)
		if dev == nil {
			return unknownObject(path)
		}
		*reply.(*bool) = slices.Contains(dev.Plugins, args[0].(string))
		return nil

	case kdeconnect.RemoteKeyboardInterface + ".sendKeyPress":
		dev := d.byPath(path, kdeconnect.RemoteKeyboardPath)
		if dev == nil {
			return unknownObject(path)
		}
		if len(dev.sendErrs) > 0 {
			err := dev.sendErrs[0]
			dev.sendErrs = dev.sendErrs[1:]
			if err != nil {
				return err
			}
		}
		dev.sent = append(dev.sent, keystroke.Payload{
			Text:       args[0].(string),
			SpecialKey: args[1].(int32),
			Shift:      args[2].(bool),
			Ctrl:       args[3].(bool),
			Alt:        args[4].(bool),
			Press:      args[5].(bool),
		})
		return nil
	}
	return dbus.NewError(ErrUnknownMethod, []interface{}{method})
}

// Property implements kdeconnect.Caller.
func (d *Daemon) Property(ctx context.Context, path dbus.ObjectPath, iface, name string) (dbus.Variant, error) {
	if err := ctx.Err(); err != nil {
		return dbus.Variant{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Path: path, Method: iface + "." + name})

	switch iface + "." + name {
	case kdeconnect.DeviceInterface + ".name":
		dev := d.byPath(path, kdeconnect.DevicePath)
		if dev == nil {
			return dbus.Variant{}, unknownObject(path)
		}
		if dev.NameErr != nil {
			return dbus.Variant{}, dev.NameErr
		}
		return dbus.MakeVariant(dev.Name), nil

	case kdeconnect.DeviceInterface + ".isReachable":
		dev := d.byPath(path, kdeconnect.DevicePath)
		if dev == nil {
			return dbus.Variant{}, unknownObject(path)
		}
		return dbus.MakeVariant(dev.Reachable), nil

	case kdeconnect.RemoteKeyboardInterface + ".remoteState":
		dev := d.byPath(path, kdeconnect.RemoteKeyboardPath)
		if dev == nil {
			return dbus.Variant{}, unknownObject(path)
		}
		if dev.ReadyErr != nil {
			return dbus.Variant{}, dev.ReadyErr
		}
		return dbus.MakeVariant(dev.Ready), nil
	}
	return dbus.Variant{}, dbus.NewError(ErrUnknownMethod, []interface{}{iface + "." + name})
}

func (d *Daemon) update(id string, fn func(*Device)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dev := d.find(id); dev != nil {
		fn(dev)
	}
}

func (d *Daemon) find(id string) *Device {
	for _, dev := range d.devices {
		if dev.ID == id {
			return dev
		}
	}
	return nil
}

func (d *Daemon) byPath(path dbus.ObjectPath, pathOf func(string) dbus.ObjectPath) *Device {
	for _, dev := range d.devices {
		if pathOf(dev.ID) == path {
			return dev
		}
	}
	return nil
}

func unknownObject(path dbus.ObjectPath) error {
	return dbus.NewError(ErrUnknownObject, []interface{}{fmt.Sprintf("no object at %s", path)})
}
