package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds coordinate acquisition.
const DefaultTimeout = 10 * time.Second

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Location is a resolved position with a human-readable address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Locator acquires the device position.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// ReverseGeocoder turns coordinates into an address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// FormatCoordinates is the address used whenever reverse geocoding fails.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lon)
}

// Address reverse-geocodes lat/lon, falling back to the formatted coordinates.
// A nil geocoder always falls back.
func Address(ctx context.Context, geocoder ReverseGeocoder, lat, lon float64) string {
	if geocoder == nil {
		return FormatCoordinates(lat, lon)
	}
	addr, err := geocoder.Reverse(ctx, lat, lon)
	if err != nil || addr == "" {
		if err != nil {
			slog.Debug("reverse geocoding failed", "error", err)
		}
		return FormatCoordinates(lat, lon)
	}
	return addr
}

// StaticLocator reports fixed coordinates, for kiosks mounted at a known spot.
type StaticLocator struct {
	Coordinates Coordinates
}

func (l StaticLocator) Locate(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	return l.Coordinates, nil
}

// Resolver acquires coordinates then resolves the address.
type Resolver struct {
	locator  Locator
	geocoder ReverseGeocoder
	timeout  time.Duration
}

func NewResolver(locator Locator, geocoder ReverseGeocoder) *Resolver {
	return &Resolver{locator: locator, geocoder: geocoder, timeout: DefaultTimeout}
}

// WithTimeout overrides the acquisition timeout.
func (r *Resolver) WithTimeout(d time.Duration) *Resolver {
	r.timeout = d
	return r
}

// Resolve returns nil when no position can be obtained within the timeout;
// callers proceed without a location in that case.
func (r *Resolver) Resolve(ctx context.Context) *Location {
	if r == nil || r.locator == nil {
		return nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		coords Coordinates
		err    error
	}
	done := make(chan result, 1)
	go func() {
		c, err := r.locator.Locate(acquireCtx)
		done <- result{c, err}
	}()

	var coords Coordinates
	select {
	case res := <-done:
		if res.err != nil {
			slog.Info("location not acquired", "error", res.err)
			return nil
		}
		coords = res.coords
	case <-acquireCtx.Done():
		slog.Info("location acquisition timed out", "timeout", r.timeout)
		return nil
	}

	return &Location{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Address:   Address(ctx, r.geocoder, coords.Latitude, coords.Longitude),
	}
}
