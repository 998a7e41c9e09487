package qivivo

import (
	"context"
	"net/http"
)

// PilotWireMonozone is the pilot-wire order of a module that follows the
// thermostat zone instead of its own programs.
const PilotWireMonozone = "monozone"

// WirelessModule is a Qivivo pilot-wire module driving an electric heater.
type WirelessModule struct {
	device

	temperature    float64
	humidity       float64
	pilotWireOrder string
	programs       MultizonePrograms
}

func newWirelessModule(c *Client, id string) *WirelessModule {
	return &WirelessModule{
		device: device{client: c, uuid: id, kind: DeviceTypeWirelessModule, subType: "wireless-modules"},
	}
}

// load reads info, temperature, humidity and pilot-wire order, plus the
// multizone programs unless the module is in monozone mode.
func (m *WirelessModule) load(ctx context.Context) error {
	if _, err := m.Info(ctx, true); err != nil {
		return err
	}
	if _, err := m.Temperature(ctx, true); err != nil {
		return err
	}
	if _, err := m.Humidity(ctx, true); err != nil {
		return err
	}
	order, err := m.PilotWireOrder(ctx, true)
	if err != nil {
		return err
	}
	if order != PilotWireMonozone {
		if _, err := m.Programs(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Temperature returns the temperature measured by the module, fetched when
// stale or forced.
func (m *WirelessModule) Temperature(ctx context.Context, force bool) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.shouldFetch(ctx, "temperature", force) {
		return m.temperature, nil
	}

	var resp moduleTemperatureResponse
	if err := m.client.getJSON(ctx, m.resource("temperature"), &resp); err != nil {
		return 0, err
	}
	if err := m.refreshInfoLocked(ctx, false); err != nil {
		return 0, err
	}

	m.temperature = resp.Temperature
	return m.temperature, nil
}

// Humidity returns the relative humidity measured by the module.
func (m *WirelessModule) Humidity(ctx context.Context, force bool) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.shouldFetch(ctx, "humidity", force) {
		return m.humidity, nil
	}

	var resp humidityResponse
	if err := m.client.getJSON(ctx, m.resource("humidity"), &resp); err != nil {
		return 0, err
	}
	if err := m.refreshInfoLocked(ctx, false); err != nil {
		return 0, err
	}

	m.humidity = resp.Humidity
	return m.humidity, nil
}

// PilotWireOrder returns the current pilot-wire order ("monozone", "comfort",
// "eco", ...). Reading it does not refresh the module info.
func (m *WirelessModule) PilotWireOrder(ctx context.Context, force bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.shouldFetch(ctx, "pilot-wire-order", force) {
		return m.pilotWireOrder, nil
	}

	var resp pilotWireOrderResponse
	if err := m.client.getJSON(ctx, m.resource("pilot-wire-order"), &resp); err != nil {
		return "", err
	}
	m.pilotWireOrder = resp.CurrentPilotWireOrder
	return m.pilotWireOrder, nil
}

// Programs fetches the module's multizone programs.
func (m *WirelessModule) Programs(ctx context.Context) (MultizonePrograms, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var resp MultizonePrograms
	if err := m.client.getJSON(ctx, m.resource("programs"), &resp); err != nil {
		return MultizonePrograms{}, err
	}
	m.programs = resp
	return m.programs, nil
}

// ActivateProgram makes the given multizone program the active one.
func (m *WirelessModule) ActivateProgram(ctx context.Context, id ProgramID) error {
	if id == "" {
		return ErrEmptyProgramID
	}
	return m.command(ctx, http.MethodPut, programPath(string(id), "active"), nil)
}

// SetThermostatZone puts the module back under the thermostat zone.
func (m *WirelessModule) SetThermostatZone(ctx context.Context) error {
	return m.command(ctx, http.MethodPut, programPath("thermostat-zone"), nil)
}
