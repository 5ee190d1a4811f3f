package billing

import "testing"

func TestPlatformFeeCents(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   int64
	}{
		{"typical upgrade", 5000, 130},   // 2% of $50 + 30c
		{"ten dollars", 1000, 50},        // 20 + 30
		{"rounds percentage", 4975, 130}, // 99.5 rounds to 100, + 30
		{"one dollar", 100, 32},
		{"tiny amount capped at amount minus one", 10, 9},
		{"one cent", 1, 0},
		{"zero", 0, 0},
		{"negative", -500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlatformFeeCents(tt.amount); got != tt.want {
				t.Errorf("PlatformFeeCents(%d) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}

func TestPlatformFeeNeverConsumesWholeAmount(t *testing.T) {
	for amount := int64(1); amount <= 200; amount++ {
		fee := PlatformFeeCents(amount)
		if fee < 0 {
			t.Fatalf("fee for %d is negative: %d", amount, fee)
		}
		if fee >= amount {
			t.Fatalf("fee %d must stay below amount %d", fee, amount)
		}
	}
}
