package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locatorFunc func(ctx context.Context) (Coordinates, error)

func (f locatorFunc) Locate(ctx context.Context) (Coordinates, error) { return f(ctx) }

type geocoderFunc func(ctx context.Context, lat, lon float64) (string, error)

func (f geocoderFunc) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	return f(ctx, lat, lon)
}

func TestFormatCoordinates(t *testing.T) {
	assert.Equal(t, "14.554729, 121.024445", FormatCoordinates(14.5547289, 121.0244452))
	assert.Equal(t, "-6.200000, 106.816666", FormatCoordinates(-6.2, 106.816666))
}

func TestResolver_Resolve(t *testing.T) {
	loc := StaticLocator{Coordinates: Coordinates{Latitude: 14.5995, Longitude: 120.9842}}

	t.Run("address from geocoder", func(t *testing.T) {
		r := NewResolver(loc, geocoderFunc(func(context.Context, float64, float64) (string, error) {
			return "Ermita, Manila", nil
		}))

		got := r.Resolve(context.Background())

		require.NotNil(t, got)
		assert.Equal(t, "Ermita, Manila", got.Address)
		assert.Equal(t, 14.5995, got.Latitude)
	})

	t.Run("geocoder failure falls back to coordinates", func(t *testing.T) {
		r := NewResolver(loc, geocoderFunc(func(context.Context, float64, float64) (string, error) {
			return "", errors.New("503")
		}))

		got := r.Resolve(context.Background())

		require.NotNil(t, got)
		assert.Equal(t, "14.599500, 120.984200", got.Address)
	})

	t.Run("denied yields nil", func(t *testing.T) {
		r := NewResolver(locatorFunc(func(context.Context) (Coordinates, error) {
			return Coordinates{}, ErrPermissionDenied
		}), nil)

		assert.Nil(t, r.Resolve(context.Background()))
	})

	t.Run("timeout yields nil", func(t *testing.T) {
		r := NewResolver(locatorFunc(func(ctx context.Context) (Coordinates, error) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return Coordinates{Latitude: 1, Longitude: 1}, nil
		}), nil).WithTimeout(20 * time.Millisecond)

		assert.Nil(t, r.Resolve(context.Background()))
	})
}

func TestNominatim_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "14.599500", r.URL.Query().Get("lat"))
		assert.Equal(t, "ojt-kiosk", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"display_name":"Rizal Park, Manila"}`))
	}))
	defer srv.Close()

	addr, err := NewNominatim(srv.URL, "ojt-kiosk").Reverse(context.Background(), 14.5995, 120.9842)

	require.NoError(t, err)
	assert.Equal(t, "Rizal Park, Manila", addr)
}

func TestNominatim_ReverseErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "0.000000" {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	n := NewNominatim(srv.URL, "")

	_, err := n.Reverse(context.Background(), 0, 0)
	assert.ErrorContains(t, err, "Unable to geocode")

	_, err = n.Reverse(context.Background(), 1, 1)
	assert.ErrorContains(t, err, "429")

	assert.Equal(t, "1.000000, 1.000000", Address(context.Background(), n, 1, 1))
}
