package qivivo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

const habitationResource = "habitation"

// Setting names a habitation temperature or alert setting.
type Setting string

// Habitation settings.
const (
	SettingDaysOfAbsenceBeforeAlert   Setting = "days_of_absence_before_alert"
	SettingAbsenceTemperature         Setting = "absence_temperature"
	SettingFrostTemperature           Setting = "frost_temperature"
	SettingNightTemperature           Setting = "night_temperature"
	SettingPresenceTemperature1       Setting = "presence_temperature_1"
	SettingPresenceTemperature2       Setting = "presence_temperature_2"
	SettingPresenceTemperature3       Setting = "presence_temperature_3"
	SettingPresenceTemperature4       Setting = "presence_temperature_4"
	SettingFrostProtectionTemperature Setting = "frost_protection_temperature"
)

// HabitationSettings holds the habitation settings. A nil field is unknown to
// the server.
type HabitationSettings struct {
	DaysOfAbsenceBeforeAlert   *float64 `json:"days_of_absence_before_alert"`
	AbsenceTemperature         *float64 `json:"absence_temperature"`
	FrostTemperature           *float64 `json:"frost_temperature"`
	NightTemperature           *float64 `json:"night_temperature"`
	PresenceTemperature1       *float64 `json:"presence_temperature_1"`
	PresenceTemperature2       *float64 `json:"presence_temperature_2"`
	PresenceTemperature3       *float64 `json:"presence_temperature_3"`
	PresenceTemperature4       *float64 `json:"presence_temperature_4"`
	FrostProtectionTemperature *float64 `json:"frost_protection_temperature"`
}

// field returns the address of the field holding name, or nil if name is unknown.
func (s *HabitationSettings) field(name Setting) **float64 {
	switch name {
	case SettingDaysOfAbsenceBeforeAlert:
		return &s.DaysOfAbsenceBeforeAlert
	case SettingAbsenceTemperature:
		return &s.AbsenceTemperature
	case SettingFrostTemperature:
		return &s.FrostTemperature
	case SettingNightTemperature:
		return &s.NightTemperature
	case SettingPresenceTemperature1:
		return &s.PresenceTemperature1
	case SettingPresenceTemperature2:
		return &s.PresenceTemperature2
	case SettingPresenceTemperature3:
		return &s.PresenceTemperature3
	case SettingPresenceTemperature4:
		return &s.PresenceTemperature4
	case SettingFrostProtectionTemperature:
		return &s.FrostProtectionTemperature
	}
	return nil
}

// Get returns the value of the named setting and whether it is set.
func (s HabitationSettings) Get(name Setting) (float64, bool) {
	f := s.field(name)
	if f == nil || *f == nil {
		return 0, false
	}
	return **f, true
}

// temperatures returns the payload of define_temperature: every setting but
// the absence alert delay.
func (s HabitationSettings) temperatures() temperatureSettings {
	return temperatureSettings{
		AbsenceTemperature:         s.AbsenceTemperature,
		FrostTemperature:           s.FrostTemperature,
		NightTemperature:           s.NightTemperature,
		PresenceTemperature1:       s.PresenceTemperature1,
		PresenceTemperature2:       s.PresenceTemperature2,
		PresenceTemperature3:       s.PresenceTemperature3,
		PresenceTemperature4:       s.PresenceTemperature4,
		FrostProtectionTemperature: s.FrostProtectionTemperature,
	}
}

type temperatureSettings struct {
	AbsenceTemperature         *float64 `json:"absence_temperature"`
	FrostTemperature           *float64 `json:"frost_temperature"`
	NightTemperature           *float64 `json:"night_temperature"`
	PresenceTemperature1       *float64 `json:"presence_temperature_1"`
	PresenceTemperature2       *float64 `json:"presence_temperature_2"`
	PresenceTemperature3       *float64 `json:"presence_temperature_3"`
	PresenceTemperature4       *float64 `json:"presence_temperature_4"`
	FrostProtectionTemperature *float64 `json:"frost_protection_temperature"`
}

type alertRequest struct {
	NewNbDay int `json:"new_nb_day"`
}

// Event is a habitation event as reported by the server.
type Event map[string]any

type lastPresenceResponse struct {
	LastPresenceRecordedTime string `json:"last_presence_recorded_time"`
}

type eventsResponse struct {
	Events []Event `json:"events"`
}

type settingsResponse struct {
	Settings HabitationSettings `json:"settings"`
}

// Habitation gives access to the home-level data and settings of the account.
// Habitation values are not subject to device freshness: every read queries
// the API.
type Habitation struct {
	client *Client

	mu       sync.Mutex
	settings HabitationSettings
	loaded   bool
}

// Habitation returns the habitation of the account.
func (c *Client) Habitation() *Habitation {
	return c.habitation
}

func (h *Habitation) data(field string) resource {
	return resource{kind: habitationResource, subType: "data", field: field}
}

func (h *Habitation) define() resource {
	return resource{kind: habitationResource, subType: "settings", field: "define_temperature"}
}

// LastPresence returns the server's record of the last detected presence, in
// the server's date format.
func (h *Habitation) LastPresence(ctx context.Context) (string, error) {
	var resp lastPresenceResponse
	if err := h.client.getJSON(ctx, h.data("last-presence"), &resp); err != nil {
		return "", err
	}
	return resp.LastPresenceRecordedTime, nil
}

// Events returns the habitation events.
func (h *Habitation) Events(ctx context.Context) ([]Event, error) {
	var resp eventsResponse
	if err := h.client.getJSON(ctx, h.data("events"), &resp); err != nil {
		return nil, err
	}
	if resp.Events == nil {
		resp.Events = []Event{}
	}
	return resp.Events, nil
}

// Settings fetches the habitation settings.
func (h *Habitation) Settings(ctx context.Context) (HabitationSettings, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fetchSettingsLocked(ctx)
}

func (h *Habitation) fetchSettingsLocked(ctx context.Context) (HabitationSettings, error) {
	var resp settingsResponse
	if err := h.client.getJSON(ctx, h.data("settings"), &resp); err != nil {
		return HabitationSettings{}, err
	}
	h.settings = resp.Settings
	h.loaded = true
	return h.settings, nil
}

// PutSetting changes one temperature setting. The server expects all
// temperature settings at once, so the current ones are fetched first if they
// have not been read yet, and the settings are reloaded afterwards.
//
// Use PutAlert to change SettingDaysOfAbsenceBeforeAlert.
func (h *Habitation) PutSetting(ctx context.Context, name Setting, value float64) (HabitationSettings, error) {
	if name == SettingDaysOfAbsenceBeforeAlert || (&HabitationSettings{}).field(name) == nil {
		return HabitationSettings{}, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.loaded {
		if _, err := h.fetchSettingsLocked(ctx); err != nil {
			return HabitationSettings{}, err
		}
	}

	next := h.settings
	*next.field(name) = &value

	err := h.client.put(ctx, h.define(), next.temperatures())
	h.client.logDeviceCommand(ctx, habitationResource, http.MethodPut, string(name), err)
	if err != nil {
		return HabitationSettings{}, err
	}
	return h.fetchSettingsLocked(ctx)
}

// PutAlert sets the number of days of absence after which an alert is raised.
func (h *Habitation) PutAlert(ctx context.Context, days int) (HabitationSettings, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.client.put(ctx, h.define(), alertRequest{NewNbDay: days})
	h.client.logDeviceCommand(ctx, habitationResource, http.MethodPut, string(SettingDaysOfAbsenceBeforeAlert), err)
	if err != nil {
		return HabitationSettings{}, err
	}
	h.client.log(ctx, slog.LevelInfo, "absence_alert_updated", slog.Int("days", days))
	return h.fetchSettingsLocked(ctx)
}
