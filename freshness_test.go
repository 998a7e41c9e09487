package qivivo

import (
	"context"
	"testing"
	"time"
)

func TestFreshness_FreshAt(t *testing.T) {
	f := Freshness{LastCommunication: epoch, Interval: 10 * time.Minute}

	tests := []struct {
		name  string
		after time.Duration
		want  bool
	}{
		{"at last communication", 0, true},
		{"5 minutes later", 5 * time.Minute, true},
		{"at the deadline", 10 * time.Minute, false},
		{"11 minutes later", 11 * time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.FreshAt(epoch.Add(tt.after)); got != tt.want {
				t.Errorf("FreshAt(+%v) = %v, want %v", tt.after, got, tt.want)
			}
		})
	}

	t.Run("zero value is never fresh", func(t *testing.T) {
		var zero Freshness
		if zero.FreshAt(time.Time{}) {
			t.Error("zero Freshness reported fresh")
		}
		if zero.FreshAt(epoch) {
			t.Error("zero Freshness reported fresh")
		}
	})
}

func TestFreshness_observe(t *testing.T) {
	var f Freshness
	f.observe(epoch, 10*time.Minute)
	if !f.LastCommunication.Equal(epoch) || f.Interval != 10*time.Minute {
		t.Fatalf("after observe: %+v", f)
	}

	t.Run("older timestamp keeps the newer one", func(t *testing.T) {
		g := f
		g.observe(epoch.Add(-time.Hour), 5*time.Minute)
		if !g.LastCommunication.Equal(epoch) {
			t.Errorf("LastCommunication = %v, want %v", g.LastCommunication, epoch)
		}
		if g.Interval != 5*time.Minute {
			t.Errorf("Interval = %v, want 5m", g.Interval)
		}
	})

	t.Run("newer timestamp advances", func(t *testing.T) {
		g := f
		g.observe(epoch.Add(time.Minute), 10*time.Minute)
		if want := epoch.Add(time.Minute); !g.LastCommunication.Equal(want) {
			t.Errorf("LastCommunication = %v, want %v", g.LastCommunication, want)
		}
		if want := epoch.Add(11 * time.Minute); !g.Deadline().Equal(want) {
			t.Errorf("Deadline = %v, want %v", g.Deadline(), want)
		}
	})
}

func TestDevice_FreshnessGuard(t *testing.T) {
	temperatureRoute := "GET /devices/thermostats/" + thermostatUUID + "/temperature"
	infoRoute := "GET /devices/thermostats/" + thermostatUUID + "/info"

	setup := func(t *testing.T) (*fakeQivivo, *Thermostat, func(time.Duration)) {
		t.Helper()
		f := newFakeQivivo(t)
		f.withThermostat()
		clk := newFakeClock()
		client := f.client(clk)

		dev, err := client.Device(context.Background(), thermostatUUID)
		if err != nil {
			t.Fatalf("Device: %v", err)
		}
		return f, dev.(*Thermostat), clk.Step
	}

	t.Run("fresh read makes no request", func(t *testing.T) {
		f, th, step := setup(t)
		step(5 * time.Minute)

		before := f.count(temperatureRoute)
		temp, err := th.Temperature(context.Background(), false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if temp != 19.5 {
			t.Errorf("temperature = %v, want 19.5", temp)
		}
		if got := f.count(temperatureRoute); got != before {
			t.Errorf("temperature requests = %d, want %d", got, before)
		}
		if !th.IsFresh() {
			t.Error("IsFresh() = false at +5m")
		}
	})

	t.Run("stale read fetches the attribute and the info", func(t *testing.T) {
		f, th, step := setup(t)
		step(11 * time.Minute)
		if th.IsFresh() {
			t.Fatal("IsFresh() = true at +11m")
		}

		f.reply(infoRoute, infoPayload(epoch.Add(10*time.Minute), 10))
		beforeTemp, beforeInfo := f.count(temperatureRoute), f.count(infoRoute)

		if _, err := th.Temperature(context.Background(), false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.count(temperatureRoute); got != beforeTemp+1 {
			t.Errorf("temperature requests = %d, want %d", got, beforeTemp+1)
		}
		if got := f.count(infoRoute); got != beforeInfo+1 {
			t.Errorf("info requests = %d, want %d", got, beforeInfo+1)
		}
		if want := epoch.Add(20 * time.Minute); !th.Freshness().Deadline().Equal(want) {
			t.Errorf("Deadline = %v, want %v", th.Freshness().Deadline(), want)
		}
		if !th.IsFresh() {
			t.Error("IsFresh() = false after refresh")
		}
	})

	t.Run("force bypasses the guard", func(t *testing.T) {
		f, th, _ := setup(t)
		before := f.count(temperatureRoute)
		if _, err := th.Temperature(context.Background(), true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.count(temperatureRoute); got != before+1 {
			t.Errorf("temperature requests = %d, want %d", got, before+1)
		}
	})

	t.Run("attributes share one clock", func(t *testing.T) {
		f, th, step := setup(t)
		step(11 * time.Minute)
		f.reply(infoRoute, infoPayload(epoch.Add(10*time.Minute), 10))

		if _, err := th.Temperature(context.Background(), false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		humidityRoute := "GET /devices/thermostats/" + thermostatUUID + "/humidity"
		before := f.count(humidityRoute)
		if _, err := th.Humidity(context.Background(), false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.count(humidityRoute); got != before {
			t.Errorf("humidity requests = %d, want %d", got, before)
		}
	})
}
