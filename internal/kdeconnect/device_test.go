package kdeconnect_test

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kderelay/internal/kdeconnect"
	"kderelay/internal/kdeconnect/mocks"
	"kderelay/internal/keystroke"
)

var errBus = errors.New("bus gone")

func TestPaths(t *testing.T) {
	assert.Equal(t, dbus.ObjectPath("/modules/kdeconnect/devices/abc123"), kdeconnect.DevicePath("abc123"))
	assert.Equal(t, dbus.ObjectPath("/modules/kdeconnect/devices/abc123/remotekeyboard"), kdeconnect.RemoteKeyboardPath("abc123"))
}

func TestDirectoryDevices(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)

	// wire order is (onlyReachable, onlyPaired)
	caller.EXPECT().
		Call(gomock.Any(), kdeconnect.DaemonPath, "org.kde.kdeconnect.daemon.devices", []interface{}{true, false}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ dbus.ObjectPath, _ string, _ []interface{}, reply interface{}) error {
			*reply.(*[]string) = []string{"dev1", "dev2"}
			return nil
		})

	ids, err := kdeconnect.NewDirectory(caller).Devices(context.Background(), false, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev1", "dev2"}, ids)
}

func TestDirectoryDevicesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().Call(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errBus)

	ids, err := kdeconnect.NewDirectory(caller).Devices(context.Background(), true, true)
	assert.Nil(t, ids)

	var terr *kdeconnect.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "devices", terr.Op)
	assert.Equal(t, kdeconnect.DaemonPath, terr.Path)
	assert.True(t, errors.Is(err, errBus))
}

func TestHandlesMakeNoCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)

	dev := kdeconnect.NewDirectory(caller).Device("dev1")
	kb := dev.Keyboard()

	assert.Equal(t, "dev1", dev.ID())
	assert.Equal(t, kdeconnect.DevicePath("dev1"), dev.Path())
	assert.Equal(t, "dev1", kb.DeviceID())
	assert.Equal(t, kdeconnect.RemoteKeyboardPath("dev1"), kb.Path())
}

func TestDeviceName(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().
		Property(gomock.Any(), kdeconnect.DevicePath("dev1"), kdeconnect.DeviceInterface, "name").
		Return(dbus.MakeVariant("Pixel 7"), nil)

	name, err := kdeconnect.NewDirectory(caller).Device("dev1").Name(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Pixel 7", name)
}

func TestDeviceNameFailures(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		caller := mocks.NewMockCaller(ctrl)
		caller.EXPECT().Property(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(dbus.Variant{}, errBus)

		name, err := kdeconnect.NewDirectory(caller).Device("dev1").Name(context.Background())
		assert.Empty(t, name)
		assert.True(t, errors.Is(err, errBus))
	})

	t.Run("wrong type", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		caller := mocks.NewMockCaller(ctrl)
		caller.EXPECT().Property(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(dbus.MakeVariant(int32(4)), nil)

		_, err := kdeconnect.NewDirectory(caller).Device("dev1").Name(context.Background())
		assert.True(t, errors.Is(err, kdeconnect.ErrUnexpectedReply))
	})
}

func TestDeviceHasPlugin(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().
		Call(gomock.Any(), kdeconnect.DevicePath("dev1"), "org.kde.kdeconnect.device.hasPlugin", []interface{}{kdeconnect.RemoteKeyboardPlugin}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ dbus.ObjectPath, _ string, _ []interface{}, reply interface{}) error {
			*reply.(*bool) = true
			return nil
		})

	has, err := kdeconnect.NewDirectory(caller).Device("dev1").HasPlugin(context.Background(), kdeconnect.RemoteKeyboardPlugin)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestKeyboardReady(t *testing.T) {
	tests := []struct {
		name    string
		value   dbus.Variant
		err     error
		want    bool
		wantErr error
	}{
		{"ready", dbus.MakeVariant(true), nil, true, nil},
		{"not ready", dbus.MakeVariant(false), nil, false, nil},
		{"transport error", dbus.Variant{}, errBus, false, errBus},
		{"wrong type", dbus.MakeVariant("yes"), nil, false, kdeconnect.ErrUnexpectedReply},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			caller := mocks.NewMockCaller(ctrl)
			caller.EXPECT().
				Property(gomock.Any(), kdeconnect.RemoteKeyboardPath("dev1"), kdeconnect.RemoteKeyboardInterface, "remoteState").
				Return(test.value, test.err)

			ready, err := kdeconnect.NewDirectory(caller).Device("dev1").Keyboard().Ready(context.Background())
			assert.Equal(t, test.want, ready)
			if test.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var terr *kdeconnect.TransportError
			assert.True(t, errors.As(err, &terr))
			assert.True(t, errors.Is(err, test.wantErr))
		})
	}
}

func TestKeyboardSend(t *testing.T) {
	tests := []struct {
		name string
		key  keystroke.Key
		args []interface{}
	}{
		{"char", keystroke.Char('a'), []interface{}{"a", int32(-1), false, false, false, true}},
		{"enter", keystroke.Enter, []interface{}{"", int32(12), false, false, false, true}},
		{"escape", keystroke.Escape, []interface{}{"", int32(14), false, false, false, true}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			caller := mocks.NewMockCaller(ctrl)
			caller.EXPECT().
				Call(gomock.Any(), kdeconnect.RemoteKeyboardPath("dev1"), "org.kde.kdeconnect.device.remotekeyboard.sendKeyPress", test.args, gomock.Nil()).
				Return(nil).
				Times(1)

			err := kdeconnect.NewDirectory(caller).Device("dev1").Keyboard().Send(context.Background(), test.key)
			assert.NoError(t, err)
		})
	}
}

func TestKeyboardSendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)
	caller.EXPECT().Call(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded).Times(1)

	err := kdeconnect.NewDirectory(caller).Device("dev1").Keyboard().Send(context.Background(), keystroke.Char('x'))

	var terr *kdeconnect.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "sendKeyPress", terr.Op)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestKeyboardSendUnknownKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := mocks.NewMockCaller(ctrl)

	err := kdeconnect.NewDirectory(caller).Device("dev1").Keyboard().Send(context.Background(), keystroke.Special(42))
	assert.True(t, errors.Is(err, keystroke.ErrUnknownKey))
}
