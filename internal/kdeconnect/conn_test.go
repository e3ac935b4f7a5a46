package kdeconnect

import (
	"testing"
	"time"
)

func TestNewConnDefaults(t *testing.T) {
	c := NewConn(nil, ConnConfig{})

	if c.service != Service {
		t.Errorf("expected service %s, got %s", Service, c.service)
	}
	if got := time.Duration(c.timeout.Load()); got != DefaultCallTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultCallTimeout, got)
	}
	if c.logger == nil {
		t.Error("logger should default to slog.Default")
	}
}

func TestSetCallTimeout(t *testing.T) {
	c := NewConn(nil, ConnConfig{Service: "org.example.Test", CallTimeout: time.Second})
	if got := time.Duration(c.timeout.Load()); got != time.Second {
		t.Fatalf("expected 1s, got %v", got)
	}

	c.SetCallTimeout(0)
	if got := time.Duration(c.timeout.Load()); got != time.Second {
		t.Errorf("zero timeout should be ignored, got %v", got)
	}

	c.SetCallTimeout(250 * time.Millisecond)
	if got := time.Duration(c.timeout.Load()); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
	if c.service != "org.example.Test" {
		t.Errorf("expected custom service, got %s", c.service)
	}
}
