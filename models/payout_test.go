package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayoutStatusTokens(t *testing.T) {
	// Stored and serialized tokens are uppercase; history documents written
	// under these spellings must keep matching the transition table.
	assert.Equal(t, "SUBMITTED", PayoutStatusSubmitted)
	assert.Equal(t, "APPROVED", PayoutStatusApproved)
	assert.Equal(t, "IN_PROGRESS", PayoutStatusInProgress)
	assert.Equal(t, "PAID", PayoutStatusPaid)
	assert.Equal(t, "REJECTED", PayoutStatusRejected)
	assert.Equal(t, "DENIED", PayoutStatusDenied)

	assert.ElementsMatch(t, []string{"REJECTED", "DENIED"}, ExcludedPayoutStatuses)
}

func TestPayoutTransitionsEndInTerminalStates(t *testing.T) {
	_, fromPaid := ValidPayoutTransitions[PayoutStatusPaid]
	_, fromRejected := ValidPayoutTransitions[PayoutStatusRejected]
	_, fromDenied := ValidPayoutTransitions[PayoutStatusDenied]

	assert.False(t, fromPaid, "paid requests cannot move again")
	assert.False(t, fromRejected)
	assert.False(t, fromDenied)
	assert.Contains(t, ValidPayoutTransitions[PayoutStatusSubmitted], PayoutStatusApproved)
}
