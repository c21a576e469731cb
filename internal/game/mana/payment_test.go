package mana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPay(t *testing.T) {
	pool := NewPool()
	pool.Add(White, 1)
	pool.Add(Blue, 2)
	pool.Add(Green, 1)

	cost, err := ParseCost("{1}{G}")
	require.NoError(t, err)

	payment, err := Pay(cost, pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, payment.Spent[Green])
	assert.Equal(t, 2, pool.Total())
	assert.Equal(t, 0, pool.Get(Green))
}

func TestPay_AllOrNothing(t *testing.T) {
	pool := NewPool()
	pool.Add(Green, 1)
	pool.Add(Red, 1)

	cost, err := ParseCost("{3}{G}")
	require.NoError(t, err)

	_, err = Pay(cost, pool, 0)
	require.Error(t, err)
	// A failed payment leaves the pool exactly as it was.
	assert.Equal(t, 1, pool.Get(Green))
	assert.Equal(t, 1, pool.Get(Red))
	assert.Equal(t, 2, pool.Total())
}

func TestPay_GenericPrefersColorless(t *testing.T) {
	pool := NewPool()
	pool.Add(Colorless, 2)
	pool.Add(White, 2)

	cost, err := ParseCost("{2}")
	require.NoError(t, err)

	payment, err := Pay(cost, pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, payment.Spent[Colorless])
	assert.Equal(t, 0, payment.Spent[White])
	assert.Equal(t, 2, pool.Get(White))
}

func TestPay_X(t *testing.T) {
	pool := NewPool()
	pool.Add(Red, 1)
	pool.Add(Colorless, 3)

	cost, err := ParseCost("{X}{R}")
	require.NoError(t, err)

	payment, err := Pay(cost, pool, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, payment.XValue)
	assert.Equal(t, 0, pool.Total())
}

func TestPay_Hybrid(t *testing.T) {
	pool := NewPool()
	pool.Add(Blue, 1)

	cost, err := ParseCost("{W/U}")
	require.NoError(t, err)

	payment, err := Pay(cost, pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, payment.Spent[Blue])
}

func TestPay_HybridGenericFallback(t *testing.T) {
	pool := NewPool()
	pool.Add(Green, 2)

	cost, err := ParseCost("{2/B}")
	require.NoError(t, err)

	payment, err := Pay(cost, pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, payment.Spent[Green])
	assert.Equal(t, 0, pool.Total())
}

func TestRefund(t *testing.T) {
	pool := NewPool()
	pool.Add(Black, 2)

	cost, err := ParseCost("{B}{B}")
	require.NoError(t, err)

	payment, err := Pay(cost, pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Total())

	payment.Refund(pool)
	assert.Equal(t, 2, pool.Get(Black))
}

func TestCanPay(t *testing.T) {
	pool := NewPool()
	pool.Add(Red, 2)

	cost, err := ParseCost("{1}{R}")
	require.NoError(t, err)
	assert.True(t, CanPay(cost, pool, 0))
	assert.Equal(t, 2, pool.Total(), "CanPay must not spend")

	bigger, err := ParseCost("{2}{R}")
	require.NoError(t, err)
	assert.False(t, CanPay(bigger, pool, 0))
}
