package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeWeightedAverage(t *testing.T) {
	testCases := []struct {
		name        string
		price       float64
		expectedAvg float64
	}{
		{name: "buy at zero", price: 0, expectedAvg: 9},
		{name: "buy below average", price: 10, expectedAvg: 14},
		{name: "buy above average", price: 20, expectedAvg: 19},
		{name: "buy far above average", price: 30, expectedAvg: 24},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pos := Position{Ticker: "ENBR3", Quantity: 10, AvgPrice: 18}

			merged := Merge(pos, 10, tc.price)

			assert.Equal(t, int64(20), merged.Quantity)
			assert.Equal(t, tc.expectedAvg, merged.AvgPrice)
		})
	}
}

func TestMergeEmptyPosition(t *testing.T) {
	testCases := []struct {
		name        string
		quantity    int64
		price       float64
		expectedAvg float64
	}{
		{name: "ten at ten", quantity: 10, price: 10, expectedAvg: 10},
		{name: "twenty at ten", quantity: 20, price: 10, expectedAvg: 10},
		{name: "nothing at all", quantity: 0, price: 0, expectedAvg: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			empty := Position{Ticker: "ENBR3"}

			merged := Merge(empty, tc.quantity, tc.price)

			assert.Equal(t, tc.quantity, merged.Quantity)
			assert.Equal(t, tc.expectedAvg, merged.AvgPrice)
		})
	}
}

func TestMergeDoesNotMutateOperand(t *testing.T) {
	pos := Position{Ticker: "BBAS3", Quantity: 5, AvgPrice: 30}

	_ = Merge(pos, 5, 10)

	assert.Equal(t, Position{Ticker: "BBAS3", Quantity: 5, AvgPrice: 30}, pos)
}

func TestMergeAverageStaysBounded(t *testing.T) {
	testCases := []struct {
		oldQty   int64
		oldAvg   float64
		quantity int64
		price    float64
	}{
		{oldQty: 1, oldAvg: 1, quantity: 1000, price: 99.99},
		{oldQty: 1000, oldAvg: 99.99, quantity: 1, price: 1},
		{oldQty: 3, oldAvg: 17.5, quantity: 7, price: 17.5},
		{oldQty: 250, oldAvg: 0, quantity: 1, price: 42},
	}

	for _, tc := range testCases {
		merged := Merge(Position{Ticker: "ITSA4", Quantity: tc.oldQty, AvgPrice: tc.oldAvg}, tc.quantity, tc.price)

		lo := math.Min(tc.oldAvg, tc.price)
		hi := math.Max(tc.oldAvg, tc.price)

		assert.GreaterOrEqual(t, merged.AvgPrice, lo)
		assert.LessOrEqual(t, merged.AvgPrice, hi)
		assert.Equal(t, tc.oldQty+tc.quantity, merged.Quantity)
	}
}

func TestPortfolioRoundTrip(t *testing.T) {
	portfolio := NewPortfolio(42)
	portfolio.Positions["ENBR3"] = Position{Ticker: "ENBR3", Quantity: 10, AvgPrice: 18.5}
	portfolio.Positions["BBAS3"] = Position{Ticker: "BBAS3", Quantity: 3, AvgPrice: 27.33}

	raw, err := json.Marshal(portfolio)
	require.NoError(t, err)

	restored := &Portfolio{}
	require.NoError(t, json.Unmarshal(raw, restored))

	assert.Equal(t, portfolio.ClientID, restored.ClientID)
	assert.Equal(t, portfolio.Positions, restored.Positions)
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "PETR4", NormalizeTicker(" petr4 "))
	assert.Equal(t, "", NormalizeTicker("   "))
}
