// Package qivivo provides a Go client library for the Qivivo home-automation
// cloud API.
//
// The library covers the account's device list, thermostats, the gateway,
// wireless pilot-wire modules and the habitation settings.
//
// # Authentication
//
// The API uses the OAuth 2.0 client-credentials grant. The client obtains a
// bearer token on the first request and renews it before use once it is 30
// minutes old; the token is never persisted.
//
//	client, err := qivivo.NewClient("client-id", "client-secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Basic Usage
//
// List the devices of the account:
//
//	devices, err := client.Devices(ctx)
//	for _, d := range devices {
//	    fmt.Printf("%s (%s)\n", d.UUID, d.Type)
//	}
//
// Load a device and read its temperature:
//
//	dev, err := client.Device(ctx, uuid)
//	if t, ok := dev.(*qivivo.Thermostat); ok {
//	    temp, err := t.Temperature(ctx, false)
//	}
//
// # Freshness
//
// Devices talk to the Qivivo servers at a fixed cadence, reported in their
// info as the last communication date and the interval between
// communications. Attribute reads with force set to false are served from
// memory until the next expected communication, and fetched otherwise.
// A device's clock only advances when its info is read.
//
// # Error Handling
//
// Failures are reported as *AuthenticationError, *TransportError, *APIError,
// *DecodeError or *UnsupportedDeviceTypeError. Use the helper functions to
// check common cases:
//
//	if qivivo.IsNotFound(err) {
//	    // the device or resource does not exist
//	}
//	if qivivo.IsUnauthorized(err) {
//	    // credentials were rejected
//	}
//
// # Configuration
//
//	client, err := qivivo.NewClient(id, secret,
//	    qivivo.WithTimeout(10*time.Second),
//	    qivivo.WithLogger(logger),
//	    qivivo.WithRateLimit(2, 1),
//	    qivivo.WithMetrics(qivivo.NewMetrics(prometheus.DefaultRegisterer)),
//	)
package qivivo
