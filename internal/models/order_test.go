package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatusDefaultsToReady(t *testing.T) {
	assert.Equal(t, OrderStatusReady, ParseOrderStatus("ready"))
	assert.Equal(t, OrderStatusDone, ParseOrderStatus("done"))
	assert.Equal(t, OrderStatusRemoved, ParseOrderStatus("removed"))
	assert.Equal(t, OrderStatusReady, ParseOrderStatus(""))
	assert.Equal(t, OrderStatusReady, ParseOrderStatus("garbled"))
}

func TestOrderExpired(t *testing.T) {
	o := Order{ExpiresAt: 1000}
	assert.False(t, o.Expired(999))
	assert.True(t, o.Expired(1000), "expiry boundary counts as expired")
	assert.True(t, o.Expired(1001))
}
