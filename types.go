package qivivo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DeviceType is the device category reported by the device list.
type DeviceType string

// Device types known to the client.
const (
	DeviceTypeThermostat     DeviceType = "thermostat"
	DeviceTypeGateway        DeviceType = "gateway"
	DeviceTypeWirelessModule DeviceType = "wireless-module"
)

// lastCommunicationLayout is the server's format for device dates.
const lastCommunicationLayout = "2006-01-02 15:04"

// DeviceSummary is an entry of the device list.
type DeviceSummary struct {
	UUID string     `json:"uuid"`
	Type DeviceType `json:"type"`
}

// deviceListResponse is the response from GET /devices.
type deviceListResponse struct {
	Devices []DeviceSummary `json:"devices"`
}

// DeviceInfo is the static and communication information of a device.
type DeviceInfo struct {
	Serial          string
	SoftwareVersion string
	// LastCommunication is when the device last reported to the servers.
	LastCommunication time.Time
	// CommunicationInterval is the time between two reports.
	CommunicationInterval time.Duration
}

// infoResponse is the wire format of the "info" field.
type infoResponse struct {
	// CurrentTimeBetweenCommunication is expressed in minutes.
	CurrentTimeBetweenCommunication float64 `json:"currentTimeBetweenCommunication"`
	LastCommunicationDate           string  `json:"lastCommunicationDate"`
	Serial                          string  `json:"serial"`
	SoftwareVersion                 string  `json:"softwareVersion"`
}

// toDeviceInfo converts the wire format, interpreting dates in loc.
func (r infoResponse) toDeviceInfo(loc *time.Location) (DeviceInfo, error) {
	last, err := time.ParseInLocation(lastCommunicationLayout, r.LastCommunicationDate, loc)
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("invalid lastCommunicationDate %q: %w", r.LastCommunicationDate, err)
	}
	interval := r.CurrentTimeBetweenCommunication * float64(time.Minute)
	if math.IsNaN(interval) || interval < 0 || interval >= math.MaxInt64 {
		return DeviceInfo{}, fmt.Errorf("invalid currentTimeBetweenCommunication %v", r.CurrentTimeBetweenCommunication)
	}
	return DeviceInfo{
		Serial:                r.Serial,
		SoftwareVersion:       r.SoftwareVersion,
		LastCommunication:     last,
		CommunicationInterval: time.Duration(interval),
	}, nil
}

type thermostatTemperatureResponse struct {
	Temperature             float64 `json:"temperature"`
	CurrentTemperatureOrder float64 `json:"current_temperature_order"`
}

type moduleTemperatureResponse struct {
	Temperature float64 `json:"temperature"`
}

type humidityResponse struct {
	Humidity float64 `json:"humidity"`
}

type presenceResponse struct {
	PresenceDetected flexBool `json:"presence_detected"`
}

type pilotWireOrderResponse struct {
	CurrentPilotWireOrder string `json:"current_pilot_wire_order"`
}

// temporaryInstruction is the body of POST temperature/temporary-instruction.
type temporaryInstruction struct {
	Temperature float64 `json:"temperature"`
	// Duration is in minutes.
	Duration int `json:"duration"`
}

type absenceRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type arrivalRequest struct {
	// Duration is in minutes.
	Duration int `json:"duration"`
}

// flexBool decodes a JSON boolean or its string form ("true"/"false").
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", s, err)
		}
		*b = flexBool(v)
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

// minutes rounds d to whole minutes, the unit of the API's durations.
func minutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}
