package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorIsDeterministic(t *testing.T) {
	sim := Simulator{Seed: 42, Start: day(2024, time.January, 1), Months: 6}
	assert.Equal(t, sim.Generate("acc-1"), sim.Generate("acc-1"))
	assert.NotEqual(t, sim.Generate("acc-1"), sim.Generate("acc-2"))
}

func TestSimulatorProducesValidPostings(t *testing.T) {
	sim := Simulator{Seed: 5, Start: day(2024, time.January, 17), Months: 3}
	postings := sim.Generate("acc-5")
	require.NotEmpty(t, postings)
	assert.Equal(t, TypeOpeningBalance, postings[0].Type)
	assert.Equal(t, day(2024, time.January, 1), postings[0].Date)

	end := day(2024, time.April, 1)
	for _, p := range postings {
		require.NoError(t, p.Validate(), p.Description)
		assert.Equal(t, "acc-5", p.AccountID)
		assert.True(t, p.Date.Before(end), "posting %s dated %s", p.Description, p.Date)
	}
}

func TestSimulatorRefundsExactOverpayment(t *testing.T) {
	sim := Simulator{Seed: 9, Start: day(2024, time.January, 1), Months: 24}
	refunds := 0
	for _, account := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		postings := sim.Generate(account)
		plan := postings[1]
		require.Equal(t, TypeCharge, plan.Type)
		for i, p := range postings {
			if p.Description != "Overpayment refund" {
				continue
			}
			refunds++
			paid := postings[i-1]
			require.Equal(t, TypePayment, paid.Type)
			assert.True(t, p.Debit.IsPositive())
			assert.True(t, p.Debit.Equal(paid.Credit.Sub(plan.Debit)), "refund %s for payment %s", p.Debit, paid.Credit)
		}
	}
	assert.Positive(t, refunds)
}

func TestSimulatedStore(t *testing.T) {
	store := NewSimulatedStore(Simulator{Seed: 1, Start: day(2024, time.January, 1), Months: 2})
	postings, err := store.Postings(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.NotEmpty(t, postings)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Postings(ctx, "acc-1")
	assert.ErrorIs(t, err, context.Canceled)
}
