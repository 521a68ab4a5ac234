package fees

import (
	"errors"
	"testing"

	"github.com/xraph/crowdfund/types"
)

func TestValidateCreationFee(t *testing.T) {
	tests := []struct {
		name     string
		paid     types.Money
		required types.Money
		excess   types.Money
		err      error
	}{
		{"Exact", types.USD(100), types.USD(100), types.USD(0), nil},
		{"Overpaid", types.USD(200), types.USD(100), types.USD(100), nil},
		{"Overpaid by one", types.USD(101), types.USD(100), types.USD(1), nil},
		{"Underpaid", types.USD(99), types.USD(100), types.USD(0), ErrInsufficientFee},
		{"Zero required", types.USD(50), types.USD(0), types.USD(50), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			excess, err := ValidateCreationFee(tt.paid, tt.required)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err: got %v, want %v", err, tt.err)
			}
			if !excess.Equal(tt.excess) {
				t.Errorf("excess: got %v, want %v", excess, tt.excess)
			}
		})
	}
}

func TestValidateFeeBps(t *testing.T) {
	tests := []struct {
		name string
		bps  int64
		err  error
	}{
		{"Zero", 0, nil},
		{"Typical", 250, nil},
		{"At cap", MaxPlatformFeeBps, nil},
		{"Above cap", MaxPlatformFeeBps + 1, ErrFeeTooHigh},
		{"Negative", -1, ErrFeeTooHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateFeeBps(tt.bps); !errors.Is(err, tt.err) {
				t.Errorf("got %v, want %v", err, tt.err)
			}
		})
	}
}

func TestPlatformFee(t *testing.T) {
	tests := []struct {
		name   string
		amount types.Money
		bps    int64
		fee    types.Money
	}{
		{"Zero rate", types.USD(10000), 0, types.USD(0)},
		{"Whole", types.USD(10000), 250, types.USD(250)},
		{"Floors", types.USD(999), 250, types.USD(24)},
		{"Cap rate", types.USD(10000), MaxPlatformFeeBps, types.USD(1000)},
		{"One cent", types.USD(1), 250, types.USD(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := PlatformFee(tt.amount, tt.bps)
			if !fee.Equal(tt.fee) {
				t.Errorf("fee: got %v, want %v", fee, tt.fee)
			}

			net := NetAmount(tt.amount, tt.bps)
			if !net.Add(fee).Equal(tt.amount) {
				t.Errorf("fee + net != amount: %v + %v != %v", fee, net, tt.amount)
			}
			if net.IsNegative() {
				t.Errorf("net amount is negative: %v", net)
			}
		})
	}
}
