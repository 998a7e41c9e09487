package qivivo

import (
	"context"
	"net/http"
	"time"
)

// DefaultInstructionDuration is how long a temporary temperature instruction
// lasts when no duration is given.
const DefaultInstructionDuration = 120 * time.Minute

// Thermostat is a Qivivo thermostat.
type Thermostat struct {
	device

	temperature      float64
	temperatureOrder float64
	humidity         float64
	presence         bool
	programs         ThermostatPrograms
}

func newThermostat(c *Client, id string) *Thermostat {
	return &Thermostat{
		device: device{client: c, uuid: id, kind: DeviceTypeThermostat, subType: "thermostats"},
	}
}

// load performs the initial reads: info, temperature and humidity, all forced.
func (t *Thermostat) load(ctx context.Context) error {
	if _, err := t.Info(ctx, true); err != nil {
		return err
	}
	if _, err := t.Temperature(ctx, true); err != nil {
		return err
	}
	_, err := t.Humidity(ctx, true)
	return err
}

// Temperature returns the measured temperature in degrees Celsius. It is
// fetched, together with the temperature order, when the thermostat's data is
// stale or force is set; the info is then refreshed if still stale.
func (t *Thermostat) Temperature(ctx context.Context, force bool) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.shouldFetch(ctx, "temperature", force) {
		return t.temperature, nil
	}

	var resp thermostatTemperatureResponse
	if err := t.client.getJSON(ctx, t.resource("temperature"), &resp); err != nil {
		return 0, err
	}
	if err := t.refreshInfoLocked(ctx, false); err != nil {
		return 0, err
	}

	t.temperature = resp.Temperature
	t.temperatureOrder = resp.CurrentTemperatureOrder
	return t.temperature, nil
}

// TemperatureOrder returns the temperature the thermostat is currently
// regulating to, refreshing it like Temperature when stale.
func (t *Thermostat) TemperatureOrder(ctx context.Context) (float64, error) {
	if _, err := t.Temperature(ctx, false); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.temperatureOrder, nil
}

// Humidity returns the relative humidity in percent, fetched when stale or forced.
func (t *Thermostat) Humidity(ctx context.Context, force bool) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.shouldFetch(ctx, "humidity", force) {
		return t.humidity, nil
	}

	var resp humidityResponse
	if err := t.client.getJSON(ctx, t.resource("humidity"), &resp); err != nil {
		return 0, err
	}
	if err := t.refreshInfoLocked(ctx, false); err != nil {
		return 0, err
	}

	t.humidity = resp.Humidity
	return t.humidity, nil
}

// Presence reports whether the thermostat currently detects someone.
// It always queries the API and does not advance the freshness clock.
func (t *Thermostat) Presence(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var resp presenceResponse
	if err := t.client.getJSON(ctx, t.resource("presence"), &resp); err != nil {
		return false, err
	}
	t.presence = bool(resp.PresenceDetected)
	return t.presence, nil
}

// SetTemporaryInstruction overrides the program with temperature for duration.
// A zero duration uses DefaultInstructionDuration.
func (t *Thermostat) SetTemporaryInstruction(ctx context.Context, temperature float64, duration time.Duration) error {
	if duration <= 0 {
		duration = DefaultInstructionDuration
	}
	return t.command(ctx, http.MethodPost, "temperature/temporary-instruction", temporaryInstruction{
		Temperature: temperature,
		Duration:    minutes(duration),
	})
}

// CancelTemporaryInstruction removes the current temporary instruction.
func (t *Thermostat) CancelTemporaryInstruction(ctx context.Context) error {
	return t.command(ctx, http.MethodDelete, "temperature/temporary-instruction", nil)
}

// SetAbsence declares an absence between start and end.
func (t *Thermostat) SetAbsence(ctx context.Context, start, end time.Time) error {
	loc := t.client.location
	return t.command(ctx, http.MethodPost, "absence", absenceRequest{
		StartDate: start.In(loc).Format(lastCommunicationLayout),
		EndDate:   end.In(loc).Format(lastCommunicationLayout),
	})
}

// CancelAbsence removes the declared absence.
func (t *Thermostat) CancelAbsence(ctx context.Context) error {
	return t.command(ctx, http.MethodDelete, "absence", nil)
}

// SetArrival announces an arrival in duration so the home is heated in time.
func (t *Thermostat) SetArrival(ctx context.Context, duration time.Duration) error {
	return t.command(ctx, http.MethodPost, "arrival", arrivalRequest{Duration: minutes(duration)})
}

// CancelArrival removes the announced arrival.
func (t *Thermostat) CancelArrival(ctx context.Context) error {
	return t.command(ctx, http.MethodDelete, "arrival", nil)
}

// Programs fetches the thermostat's user programs.
func (t *Thermostat) Programs(ctx context.Context) (ThermostatPrograms, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fetchProgramsLocked(ctx)
}

func (t *Thermostat) fetchProgramsLocked(ctx context.Context) (ThermostatPrograms, error) {
	var resp ThermostatPrograms
	if err := t.client.getJSON(ctx, t.resource("programs"), &resp); err != nil {
		return ThermostatPrograms{}, err
	}
	t.programs = resp
	return t.programs, nil
}

// CreateProgram adds a user program and reloads the program list.
func (t *Thermostat) CreateProgram(ctx context.Context, program Program) (ThermostatPrograms, error) {
	if err := t.command(ctx, http.MethodPost, "programs", program); err != nil {
		return ThermostatPrograms{}, err
	}
	return t.Programs(ctx)
}

// RenameProgram changes the name of a user program.
func (t *Thermostat) RenameProgram(ctx context.Context, id ProgramID, name string) error {
	if id == "" {
		return ErrEmptyProgramID
	}
	return t.command(ctx, http.MethodPut, programPath(string(id), "name"), renameProgramRequest{NewName: name})
}

// UpdateProgramDay replaces the periods of one day of a user program.
func (t *Thermostat) UpdateProgramDay(ctx context.Context, id ProgramID, day Weekday, periods []Period) error {
	if id == "" {
		return ErrEmptyProgramID
	}
	if !day.Valid() {
		return ErrInvalidDay
	}
	if periods == nil {
		periods = []Period{}
	}
	return t.command(ctx, http.MethodPut, programPath(string(id), "day", string(day)), programDayUpdateRequest{
		ProgramDayUpdate: periods,
	})
}

// DeleteProgram removes a user program.
func (t *Thermostat) DeleteProgram(ctx context.Context, id ProgramID) error {
	if id == "" {
		return ErrEmptyProgramID
	}
	return t.command(ctx, http.MethodDelete, programPath(string(id)), nil)
}

// CachedTemperature returns the last fetched temperature without any request.
func (t *Thermostat) CachedTemperature() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.temperature
}

// CachedHumidity returns the last fetched humidity without any request.
func (t *Thermostat) CachedHumidity() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.humidity
}
