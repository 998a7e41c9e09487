package qivivo

import "context"

// API defines the account-level Qivivo operations.
// Client implements this interface, enabling mocking for tests.
type API interface {
	// ============================================================================
	// Device Operations
	// ============================================================================

	Devices(ctx context.Context) ([]DeviceSummary, error)
	RefreshDevices(ctx context.Context) ([]DeviceSummary, error)
	Device(ctx context.Context, deviceUUID string) (Device, error)
	PollDevices(ctx context.Context, devices []Device, force bool, cfg *BatchConfig) []PollResult

	// ============================================================================
	// Habitation Operations
	// ============================================================================

	Habitation() *Habitation

	// ============================================================================
	// Cache Operations
	// ============================================================================

	InvalidateCache(resourceType string, ids ...string)

	// ============================================================================
	// Token Operations
	// ============================================================================

	TokenManager() *TokenManager
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Ensure every device kind implements Device at compile time.
var (
	_ Device = (*Thermostat)(nil)
	_ Device = (*Gateway)(nil)
	_ Device = (*WirelessModule)(nil)
)
