package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightops/pkg/contracts/domain"
)

func TestDefaultFleetClassifier(t *testing.T) {
	c := DefaultFleetClassifier()

	tests := []struct {
		vehicle string
		want    domain.FleetGroup
	}{
		{"Trishul-07", FleetTrishul},
		{"TRISHUL alpha", FleetTrishul},
		{"my-trishul", FleetTrishul},
		{"Kamet-02", FleetKamet},
		{"Nanda-01", FleetKamet},
		{"", FleetKamet},
	}

	for _, tt := range tests {
		t.Run(tt.vehicle, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.vehicle))
		})
	}

	assert.Equal(t, []domain.FleetGroup{FleetTrishul, FleetKamet}, c.Fleets())
}

func TestNewFleetClassifier(t *testing.T) {
	t.Run("explicit mapping with unclassified bucket", func(t *testing.T) {
		c, err := NewFleetClassifier([]FleetRule{
			{Keyword: "Trishul", Fleet: "Trishul"},
			{Keyword: "kamet", Fleet: "Kamet"},
		}, "")
		require.NoError(t, err)

		assert.Equal(t, domain.FleetGroup("Trishul"), c.Classify("Trishul-07"))
		assert.Equal(t, domain.FleetGroup("Kamet"), c.Classify("Kamet-02"))
		assert.Equal(t, domain.FleetUnclassified, c.Classify("Nanda-01"))
		assert.Equal(t, []domain.FleetGroup{"Trishul", "Kamet", domain.FleetUnclassified}, c.Fleets())
		assert.True(t, c.Knows(domain.FleetUnclassified))
		assert.False(t, c.Knows("Nanda"))
	})

	t.Run("first rule wins", func(t *testing.T) {
		c, err := NewFleetClassifier([]FleetRule{
			{Keyword: "trishul", Fleet: "Trishul"},
			{Keyword: "tri", Fleet: "Other"},
		}, "Kamet")
		require.NoError(t, err)
		assert.Equal(t, domain.FleetGroup("Trishul"), c.Classify("trishul-tri"))
		assert.Equal(t, domain.FleetGroup("Other"), c.Classify("tri-2"))
	})

	invalid := []struct {
		name  string
		rules []FleetRule
	}{
		{"no rules", nil},
		{"empty keyword", []FleetRule{{Keyword: " ", Fleet: "A"}}},
		{"empty fleet", []FleetRule{{Keyword: "a", Fleet: ""}}},
		{"reserved fleet", []FleetRule{{Keyword: "a", Fleet: domain.FleetUnclassified}}},
		{"duplicate keyword", []FleetRule{{Keyword: "a", Fleet: "A"}, {Keyword: "A", Fleet: "B"}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewFleetClassifier(tt.rules, "Kamet")
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, ErrInvalidFleetMapping))
		})
	}
}
