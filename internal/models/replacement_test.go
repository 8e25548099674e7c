package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionReplacement(t *testing.T) {
	cases := []struct {
		from    ReplacementStatus
		to      ReplacementStatus
		allowed bool
	}{
		{ReplacementPending, ReplacementApproved, true},
		{ReplacementPending, ReplacementRejected, true},
		{ReplacementPending, ReplacementAssigned, false},
		{ReplacementApproved, ReplacementAssigned, true},
		{ReplacementApproved, ReplacementCompleted, false},
		{ReplacementAssigned, ReplacementInProgress, true},
		{ReplacementInProgress, ReplacementRequired, true},
		{ReplacementInProgress, ReplacementCompleted, true},
		{ReplacementRequired, ReplacementCompleted, true},
		{ReplacementRequired, ReplacementInProgress, false},
		{ReplacementRejected, ReplacementPending, false},
		{ReplacementCompleted, ReplacementPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransitionReplacement(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminalReplacement(t *testing.T) {
	assert.True(t, IsTerminalReplacement(ReplacementRejected))
	assert.True(t, IsTerminalReplacement(ReplacementCompleted))
	assert.False(t, IsTerminalReplacement(ReplacementPending))
	assert.False(t, IsTerminalReplacement(ReplacementRequired))
}

func TestCanTransitionOrder(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderPlaced, OrderConfirmed, true},
		{OrderPlaced, OrderCancelled, true},
		{OrderPlaced, OrderDispatched, false},
		{OrderConfirmed, OrderDispatched, true},
		{OrderConfirmed, OrderCancelled, true},
		{OrderDispatched, OrderDelivered, true},
		{OrderDispatched, OrderCancelled, false},
		{OrderDelivered, OrderConfirmed, false},
		{OrderCancelled, OrderPlaced, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransitionOrder(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestWarrantyAtBoundary(t *testing.T) {
	soldAt := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	sale := &Sale{SoldAt: soldAt}

	expiry := soldAt.AddDate(0, 12, 0)
	assert.True(t, sale.WarrantyAt(expiry.Add(-time.Second), 12).InWarranty)
	// The warranty ends exactly at expiry, not after it.
	assert.False(t, sale.WarrantyAt(expiry, 12).InWarranty)
	assert.Equal(t, expiry, sale.WarrantyAt(time.Now(), 12).ExpiresAt)
}
