package qivivo

import (
	"context"
	"errors"
	"testing"
)

func moduleRoute(method, field string) string {
	return method + " /devices/wireless-modules/" + moduleUUID + "/" + field
}

func newModuleServer(t *testing.T, order string) *fakeQivivo {
	t.Helper()
	f := newFakeQivivo(t)
	f.withDevices(DeviceSummary{UUID: moduleUUID, Type: DeviceTypeWirelessModule})
	f.reply(moduleRoute("GET", "temperature"), map[string]any{"temperature": 18.25})
	f.reply(moduleRoute("GET", "humidity"), map[string]any{"humidity": 52})
	f.reply(moduleRoute("GET", "pilot-wire-order"), map[string]any{"current_pilot_wire_order": order})
	f.reply(moduleRoute("GET", "programs"), map[string]any{
		"user_active_program_id": "3",
		"user_multizone_programs": []map[string]any{
			{"id": "3", "name": "Bedroom", "program": map[string]any{}},
		},
	})
	return f
}

func TestWirelessModule_Load(t *testing.T) {
	t.Run("monozone skips programs", func(t *testing.T) {
		f := newModuleServer(t, PilotWireMonozone)
		client := f.client(newFakeClock())

		dev, err := client.Device(context.Background(), moduleUUID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m, ok := dev.(*WirelessModule)
		if !ok {
			t.Fatalf("device type = %T, want *WirelessModule", dev)
		}
		if got := f.count(moduleRoute("GET", "programs")); got != 0 {
			t.Errorf("programs requests = %d, want 0", got)
		}

		temp, err := m.Temperature(context.Background(), false)
		if err != nil || temp != 18.25 {
			t.Errorf("temperature = %v, %v; want 18.25", temp, err)
		}
		humidity, err := m.Humidity(context.Background(), false)
		if err != nil || humidity != 52 {
			t.Errorf("humidity = %v, %v; want 52", humidity, err)
		}
		order, err := m.PilotWireOrder(context.Background(), false)
		if err != nil || order != PilotWireMonozone {
			t.Errorf("order = %q, %v; want monozone", order, err)
		}
		if got := f.count(moduleRoute("GET", "temperature")); got != 1 {
			t.Errorf("temperature requests = %d, want 1", got)
		}
	})

	t.Run("multizone loads programs", func(t *testing.T) {
		f := newModuleServer(t, "comfort")
		client := f.client(newFakeClock())

		dev, err := client.Device(context.Background(), moduleUUID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.count(moduleRoute("GET", "programs")); got != 1 {
			t.Errorf("programs requests = %d, want 1", got)
		}

		programs, err := dev.(*WirelessModule).Programs(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if active := programs.Active(); active == nil || active.Name != "Bedroom" {
			t.Errorf("active = %+v", active)
		}
	})
}

func TestWirelessModule_Commands(t *testing.T) {
	f := newModuleServer(t, "eco")
	client := f.client(newFakeClock())
	dev, err := client.Device(context.Background(), moduleUUID)
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	m := dev.(*WirelessModule)

	f.reply(moduleRoute("PUT", "programs/3/active"), map[string]string{})
	f.reply(moduleRoute("PUT", "programs/thermostat-zone"), map[string]string{})

	if err := m.ActivateProgram(context.Background(), "3"); err != nil {
		t.Errorf("ActivateProgram: %v", err)
	}
	if err := m.SetThermostatZone(context.Background()); err != nil {
		t.Errorf("SetThermostatZone: %v", err)
	}
	if err := m.ActivateProgram(context.Background(), ""); !errors.Is(err, ErrEmptyProgramID) {
		t.Errorf("empty id: got %v, want ErrEmptyProgramID", err)
	}
	if got := f.count(moduleRoute("PUT", "programs/3/active")); got != 1 {
		t.Errorf("activate requests = %d, want 1", got)
	}
	if got := f.count(moduleRoute("PUT", "programs/thermostat-zone")); got != 1 {
		t.Errorf("thermostat-zone requests = %d, want 1", got)
	}
}
