// Package kdeconnect is a small client for the KDE Connect daemon's D-Bus
// API, limited to what the keyboard relay needs: listing devices, reading a
// device's name and plugins, and driving its remote keyboard.
//
// Every object here is a cheap projection over a Caller. Constructing a
// Directory, Device or RemoteKeyboard performs no I/O; each query method
// issues exactly one remote call.
package kdeconnect

//go:generate go tool mockgen -destination=./mocks/caller_mock.go -package=mocks . Caller

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// KDE Connect D-Bus names.
const (
	Service = "org.kde.kdeconnect"

	DaemonPath      dbus.ObjectPath = "/modules/kdeconnect"
	DaemonInterface                 = "org.kde.kdeconnect.daemon"

	DeviceInterface         = "org.kde.kdeconnect.device"
	RemoteKeyboardInterface = "org.kde.kdeconnect.device.remotekeyboard"

	// RemoteKeyboardPlugin is the plugin id reported by hasPlugin.
	RemoteKeyboardPlugin = "kdeconnect_remotekeyboard"

	propertiesGet = "org.freedesktop.DBus.Properties.Get"
)

// ErrUnexpectedReply is wrapped by TransportError when a reply has the wrong
// shape or type.
var ErrUnexpectedReply = errors.New("unexpected reply")

// Caller is the synchronous remote-call facility the client is built on.
// Conn implements it over a D-Bus connection.
type Caller interface {
	// Call invokes method (interface-qualified) on the object at path.
	// A non-nil reply is a pointer the single return value is stored into.
	Call(ctx context.Context, path dbus.ObjectPath, method string, args []interface{}, reply interface{}) error

	// Property reads one property of the object at path.
	Property(ctx context.Context, path dbus.ObjectPath, iface, name string) (dbus.Variant, error)
}

// TransportError reports a failed, timed-out or malformed remote call.
type TransportError struct {
	Op   string
	Path dbus.ObjectPath
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("kdeconnect: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, path dbus.ObjectPath, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Path: path, Err: err}
}

// DevicePath returns the object path of the device with the given id.
func DevicePath(id string) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("%s/devices/%s", DaemonPath, id))
}

// RemoteKeyboardPath returns the object path of a device's remote keyboard.
func RemoteKeyboardPath(id string) dbus.ObjectPath {
	return DevicePath(id) + "/remotekeyboard"
}
