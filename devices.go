package qivivo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const devicesResource = "devices"

// Device is one of *Thermostat, *Gateway or *WirelessModule. Use a type
// switch to reach the operations specific to each kind.
type Device interface {
	// UUID returns the device identifier.
	UUID() string
	// Type returns the device category.
	Type() DeviceType
	// Info returns the device information, fetching it when the device's data
	// is stale or force is set.
	Info(ctx context.Context, force bool) (DeviceInfo, error)
	// IsFresh reports whether cached values can be served without a request.
	IsFresh() bool
	// Freshness returns a copy of the device's communication clock.
	Freshness() Freshness

	sealed()
}

// device holds the state shared by all device kinds. mu guards every cached
// field and is held across the requests that refresh them.
type device struct {
	client  *Client
	uuid    string
	kind    DeviceType
	subType string

	mu        sync.Mutex
	info      DeviceInfo
	freshness Freshness
}

func (d *device) UUID() string     { return d.uuid }
func (d *device) Type() DeviceType { return d.kind }
func (d *device) sealed()          {}

func (d *device) IsFresh() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freshness.FreshAt(d.client.clock.Now())
}

func (d *device) Freshness() Freshness {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freshness
}

func (d *device) Info(ctx context.Context, force bool) (DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refreshInfoLocked(ctx, force); err != nil {
		return DeviceInfo{}, err
	}
	return d.info, nil
}

func (d *device) resource(field string) resource {
	return resource{kind: devicesResource, subType: d.subType, uuid: d.uuid, field: field}
}

// refreshInfoLocked fetches "info" when stale or forced. Caller holds d.mu.
func (d *device) refreshInfoLocked(ctx context.Context, force bool) error {
	if !d.shouldFetch(ctx, "info", force) {
		return nil
	}
	return d.fetchInfoLocked(ctx)
}

// fetchInfoLocked reads "info" and advances the freshness clock. It is the
// only path that updates the clock. Caller holds d.mu.
func (d *device) fetchInfoLocked(ctx context.Context) error {
	res := d.resource("info")

	var resp infoResponse
	if err := d.client.getJSON(ctx, res, &resp); err != nil {
		return err
	}
	info, err := resp.toDeviceInfo(d.client.location)
	if err != nil {
		return &DecodeError{Resource: res.label(), Preview: resp.LastCommunicationDate, Err: err}
	}

	d.info = info
	d.freshness.observe(info.LastCommunication, info.CommunicationInterval)

	d.client.log(ctx, slog.LevelDebug, "device_info",
		slog.String("uuid", d.uuid),
		slog.Time("last_communication", d.freshness.LastCommunication),
		slog.Duration("interval", d.freshness.Interval),
	)
	return nil
}

// command performs a state-changing request on one of the device's fields.
func (d *device) command(ctx context.Context, method, field string, body any) error {
	err := d.client.send(ctx, method, d.resource(field), body)
	d.client.logDeviceCommand(ctx, d.uuid, method, field, err)
	return err
}

// Devices returns the account's device list. The list is fetched once and then
// served from the client cache; see WithCache and RefreshDevices.
func (c *Client) Devices(ctx context.Context) ([]DeviceSummary, error) {
	v, err := c.getCached(cacheKey(devicesResource), c.cacheConfig.DeviceListTTL, func() (any, error) {
		return c.fetchDevices(ctx)
	})
	if err != nil {
		return nil, err
	}
	devices := v.([]DeviceSummary)
	out := make([]DeviceSummary, len(devices))
	copy(out, devices)
	return out, nil
}

// RefreshDevices reloads the device list from the API.
func (c *Client) RefreshDevices(ctx context.Context) ([]DeviceSummary, error) {
	c.InvalidateCache(devicesResource)
	return c.Devices(ctx)
}

func (c *Client) fetchDevices(ctx context.Context) ([]DeviceSummary, error) {
	c.log(ctx, slog.LevelInfo, "device_list_refresh")

	var resp deviceListResponse
	if err := c.getJSON(ctx, resource{kind: devicesResource}, &resp); err != nil {
		return nil, err
	}
	if resp.Devices == nil {
		resp.Devices = []DeviceSummary{}
	}
	return resp.Devices, nil
}

// Device returns the device with the given UUID, typed after the category the
// device list reports for it, with its attributes loaded.
//
// Returns ErrDeviceNotFound if the UUID is not in the device list and an
// *UnsupportedDeviceTypeError if its category is unknown to the client.
func (c *Client) Device(ctx context.Context, deviceUUID string) (Device, error) {
	if deviceUUID == "" {
		return nil, ErrEmptyUUID
	}
	if _, err := uuid.Parse(deviceUUID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUUID, deviceUUID)
	}

	devices, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	summary := FindDevice(devices, deviceUUID)
	if summary == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceUUID)
	}

	c.log(ctx, slog.LevelInfo, "device_load",
		slog.String("uuid", summary.UUID),
		slog.String("type", string(summary.Type)),
	)
	return c.loadDevice(ctx, *summary)
}

// loadDevice builds the variant matching s.Type and performs its initial reads.
func (c *Client) loadDevice(ctx context.Context, s DeviceSummary) (Device, error) {
	switch s.Type {
	case DeviceTypeThermostat:
		t := newThermostat(c, s.UUID)
		if err := t.load(ctx); err != nil {
			return nil, err
		}
		return t, nil
	case DeviceTypeGateway:
		g := newGateway(c, s.UUID)
		if err := g.load(ctx); err != nil {
			return nil, err
		}
		return g, nil
	case DeviceTypeWirelessModule:
		m := newWirelessModule(c, s.UUID)
		if err := m.load(ctx); err != nil {
			return nil, err
		}
		return m, nil
	default:
		c.log(ctx, slog.LevelError, "unsupported_device",
			slog.String("uuid", s.UUID),
			slog.String("type", string(s.Type)),
		)
		return nil, &UnsupportedDeviceTypeError{UUID: s.UUID, Type: s.Type}
	}
}

// FindDevice returns the entry with the given UUID, or nil if not found.
func FindDevice(devices []DeviceSummary, deviceUUID string) *DeviceSummary {
	for i := range devices {
		if devices[i].UUID == deviceUUID {
			return &devices[i]
		}
	}
	return nil
}

// FilterByType returns the entries of the given category.
func FilterByType(devices []DeviceSummary, kind DeviceType) []DeviceSummary {
	result := make([]DeviceSummary, 0, len(devices))
	for _, d := range devices {
		if d.Type == kind {
			result = append(result, d)
		}
	}
	return result
}
