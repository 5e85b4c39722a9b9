package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromReport(t *testing.T) {
	ctx := context.Background()

	t.Run("coordinates", func(t *testing.T) {
		c, err := FromReport(ClientReport{Location: &Coordinates{Latitude: -6.2, Longitude: 106.8}}).Locate(ctx)
		require.NoError(t, err)
		assert.Equal(t, -6.2, c.Latitude)
		assert.Equal(t, 106.8, c.Longitude)
	})

	t.Run("denied", func(t *testing.T) {
		_, err := FromReport(ClientReport{Error: "denied"}).Locate(ctx)
		assert.ErrorIs(t, err, ErrCapabilityDenied)
		assert.ErrorIs(t, err, ErrCapability)
	})

	t.Run("timeout is unavailable", func(t *testing.T) {
		_, err := FromReport(ClientReport{Error: "TIMEOUT"}).Locate(ctx)
		assert.ErrorIs(t, err, ErrCapabilityUnavailable)
	})

	t.Run("missing report", func(t *testing.T) {
		_, err := FromReport(ClientReport{}).Locate(ctx)
		assert.ErrorIs(t, err, ErrCapabilityUnavailable)
		assert.False(t, errors.Is(err, ErrCapabilityDenied))
	})
}

func TestClientReportValidate(t *testing.T) {
	assert.NoError(t, ClientReport{}.Validate())
	assert.NoError(t, ClientReport{Error: "denied"}.Validate())

	err := ClientReport{Error: "blocked"}.Validate()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "location_error")

	err = ClientReport{Location: &Coordinates{Latitude: 120, Longitude: 0}}.Validate()
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "location.latitude")
}

func TestWithTimeout(t *testing.T) {
	slow := ProviderFunc(func(ctx context.Context) (Coordinates, error) {
		<-ctx.Done()
		return Coordinates{}, ctx.Err()
	})

	_, err := WithTimeout(slow, 10*time.Millisecond).Locate(context.Background())
	assert.ErrorIs(t, err, ErrCapabilityUnavailable)

	fast := ProviderFunc(func(ctx context.Context) (Coordinates, error) {
		return Coordinates{Latitude: 1, Longitude: 2}, nil
	})
	c, err := WithTimeout(fast, time.Second).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Longitude)
}

func TestDistance(t *testing.T) {
	monas := Coordinates{Latitude: -6.175392, Longitude: 106.827153}
	assert.Zero(t, Distance(monas, monas))

	// One degree of latitude is roughly 111km.
	north := Coordinates{Latitude: monas.Latitude + 1, Longitude: monas.Longitude}
	assert.InDelta(t, 111195, Distance(monas, north), 100)
}
