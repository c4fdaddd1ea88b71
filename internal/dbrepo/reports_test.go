package dbrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvertisingShares(t *testing.T) {
	shares := advertisingShares(map[string]int64{"instagram": 2, "referral": 1}, 3)
	got := map[string]string{}
	for _, s := range shares {
		got[s.Name] = s.Value
	}
	assert.Len(t, shares, 5)
	assert.Equal(t, "66.67", got["instagram"])
	assert.Equal(t, "33.33", got["referral"])
	assert.Equal(t, "0.00", got["other"])

	for _, s := range advertisingShares(nil, 0) {
		assert.Equal(t, "0.00", s.Value)
	}
}
