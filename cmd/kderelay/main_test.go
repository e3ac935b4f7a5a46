package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kderelay/internal/config"
	"kderelay/internal/kdeconnect"
	"kderelay/internal/kdeconnect/kdeconnecttest"
	"kderelay/internal/relay"
	"kderelay/internal/store"
)

type fakeBus struct {
	*kdeconnecttest.Daemon
	closed bool
}

func (f *fakeBus) Close() error {
	f.closed = true
	return nil
}

func phone(id, name string, ready bool) kdeconnecttest.Device {
	return kdeconnecttest.Device{
		ID:        id,
		Name:      name,
		Paired:    true,
		Reachable: true,
		Ready:     ready,
		Plugins:   []string{kdeconnect.RemoteKeyboardPlugin},
	}
}

type harness struct {
	app    *app
	bus    *fakeBus
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

func newHarness(t *testing.T, devices ...kdeconnecttest.Device) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KDERELAY_CONFIG", filepath.Join(dir, "config.toml"))
	t.Setenv("KDERELAY_STORE_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("KDERELAY_LOG_PATH", filepath.Join(dir, "kderelay.log"))
	t.Setenv("KDERELAY_TICK_INTERVAL_MS", "1")

	h := &harness{
		bus:    &fakeBus{Daemon: kdeconnecttest.NewDaemon(devices...)},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		dir:    dir,
	}
	h.app = &app{
		stdin:  strings.NewReader(""),
		stdout: h.stdout,
		stderr: h.stderr,
		dial: func(*config.Config, *slog.Logger) (bus, error) {
			return h.bus, nil
		},
	}
	return h
}

func (h *harness) run(args ...string) error {
	return h.app.run(context.Background(), args)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("version"))
	assert.Contains(t, h.stdout.String(), "kderelay "+version)
}

func TestNoCommand(t *testing.T) {
	h := newHarness(t)
	err := h.run()
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.ExitCode())
	assert.Contains(t, h.stderr.String(), "Usage: kderelay")
}

func TestTUINeedsTerminal(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true))
	err := h.run("tui")
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.ExitCode())
	assert.Contains(t, err.Error(), "terminal")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	err := h.run("frobnicate")
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestDevices(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true), phone("dev2", "Tablet", false))
	require.NoError(t, h.run("devices"))

	out := h.stdout.String()
	assert.Contains(t, out, "dev1")
	assert.Contains(t, out, "Pixel")
	assert.Contains(t, out, "Tablet")
	assert.Contains(t, out, "Available")
	assert.Contains(t, out, "Unavailable")
	assert.True(t, h.bus.closed)
}

func TestDevicesFiltersUnpaired(t *testing.T) {
	unpaired := phone("dev2", "Stranger", false)
	unpaired.Paired = false
	h := newHarness(t, phone("dev1", "Pixel", true), unpaired)

	require.NoError(t, h.run("devices"))
	assert.NotContains(t, h.stdout.String(), "Stranger")

	h.stdout.Reset()
	require.NoError(t, h.run("devices", "--all"))
	assert.Contains(t, h.stdout.String(), "Stranger")
}

func TestDevicesEmpty(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("devices"))
	assert.Contains(t, h.stdout.String(), "No active device")
}

func TestSend(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true))
	require.NoError(t, h.run("send", "hi", "there"))

	assert.Equal(t, "hi there", h.bus.SentText("dev1"))
	assert.Contains(t, h.stdout.String(), "sent 8 keys to Pixel")
}

func TestSendToDevice(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true), phone("dev2", "Tablet", true))
	require.NoError(t, h.run("send", "--device", "dev2", "x"))

	assert.Equal(t, "x", h.bus.SentText("dev2"))
	assert.Empty(t, h.bus.SentText("dev1"))
}

func TestSendUsesLastSelected(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true), phone("dev2", "Tablet", true))

	s, err := store.Open(filepath.Join(h.dir, "history.db"))
	require.NoError(t, err)
	require.NoError(t, s.SetLastSelected(context.Background(), "dev2"))
	require.NoError(t, s.Close())

	require.NoError(t, h.run("send", "y"))
	assert.Equal(t, "y", h.bus.SentText("dev2"))
}

func TestSendLastSelectedGoneUsesFirst(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true))

	s, err := store.Open(filepath.Join(h.dir, "history.db"))
	require.NoError(t, err)
	require.NoError(t, s.SetLastSelected(context.Background(), "old-tablet"))
	require.NoError(t, s.Close())

	require.NoError(t, h.run("send", "--timeout", "2s", "hi"))
	assert.Equal(t, "hi", h.bus.SentText("dev1"))
	assert.Contains(t, h.stdout.String(), "sent 2 keys to Pixel")
}

func TestSendUnknownDeviceFails(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true))
	err := h.run("send", "--timeout", "50ms", "--device", "gone", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 keys not delivered")
	assert.Empty(t, h.bus.SentText("dev1"))
}

func TestSendStdin(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true))
	h.app.stdin = strings.NewReader("ok\n")

	require.NoError(t, h.run("send", "--stdin"))
	sent := h.bus.Sent("dev1")
	require.Len(t, sent, 3)
	assert.Equal(t, "o", sent[0].Text)
	assert.Equal(t, int32(12), sent[2].SpecialKey)
}

func TestSendNothing(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true))
	err := h.run("send")
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.ExitCode())
}

func TestSendTimesOutWhenNotReady(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", false))
	err := h.run("send", "--timeout", "50ms", "abc")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of 3 keys not delivered")
	assert.Empty(t, h.bus.SentText("dev1"))
}

func TestHistoryAfterSend(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true))
	require.NoError(t, h.run("send", "ab"))

	h.stdout.Reset()
	require.NoError(t, h.run("history"))
	out := h.stdout.String()
	assert.Contains(t, out, "dev1")
	assert.Contains(t, out, "Pixel")
	assert.Regexp(t, `dev1\s+Pixel\s+\S+ \S+\s+2\s+0`, out)
}

func TestHistoryEmpty(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("history"))
	assert.Contains(t, h.stdout.String(), "No devices recorded")
}

func TestHistoryStatus(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("history", "--status"))
	out := h.stdout.String()
	assert.Contains(t, out, "schema version 2 of 2")
	assert.Regexp(t, `(?m)^1\s+\S+ \S+\s+Initial schema`, out)
	assert.NotContains(t, out, "pending")
}

func TestHistoryReset(t *testing.T) {
	h := newHarness(t, phone("dev1", "Pixel", true))
	require.NoError(t, h.run("send", "ab"))

	h.stdout.Reset()
	require.NoError(t, h.run("history", "--reset"))
	assert.Contains(t, h.stdout.String(), "history cleared")

	h.stdout.Reset()
	require.NoError(t, h.run("history"))
	assert.Contains(t, h.stdout.String(), "No devices recorded")
}

func TestConfigPrint(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("config"))
	out := h.stdout.String()
	assert.Contains(t, out, "tick_interval_ms = 1")
	assert.Contains(t, out, `service = "org.kde.kdeconnect"`)
}

func TestConfigWrite(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("config", "--write"))
	_, err := os.Stat(filepath.Join(h.dir, "config.toml"))
	require.NoError(t, err)

	err = h.run("config", "--write")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, h.run("config", "--write", "--force"))
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "config.toml"), []byte("[dbus]\nservice = \"\"\n"), 0600))

	err := h.run("devices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbus.service")
}

func TestDescribe(t *testing.T) {
	pixel := []relay.Endpoint{{ID: "dev1", Name: "Pixel"}}

	assert.Equal(t, "no matching device", describe(relay.Snapshot{Selected: -1}))
	assert.Equal(t, "Pixel keyboard is not active",
		describe(relay.Snapshot{Endpoints: pixel, Selected: 0, State: relay.StateNotReady}))
	assert.Equal(t, "4 failed sends",
		describe(relay.Snapshot{Endpoints: pixel, Selected: 0, State: relay.StateReady, FailureStreak: 4}))
}
