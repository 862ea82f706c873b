package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    Quantity
		wantErr bool
	}{
		{in: "3", want: 3000},
		{in: "2.5", want: 2500},
		{in: "0.001", want: 1},
		{in: "-1", want: -1000},
		{in: "0", want: 0},
		{in: "0.0001", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1e300", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuantity(json.Number(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantityFromFloat_RejectsNonFinite(t *testing.T) {
	_, err := QuantityFromFloat(math.NaN())
	assert.Error(t, err)
	_, err = QuantityFromFloat(math.Inf(1))
	assert.Error(t, err)
}

func TestQuantity_MulIsExact(t *testing.T) {
	assert.Equal(t, Units(15), Units(3).Mul(5))
	assert.Equal(t, Quantity(12500), Quantity(2500).Mul(5))
}

func TestQuantity_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Quantity{"a": Units(5), "b": 2500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":5,"b":2.5}`, string(b))

	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`1.25`), &q))
	assert.Equal(t, Quantity(1250), q)
}
