package roulette

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSettle(t *testing.T) {
	tests := []struct {
		name   string
		choice string
		spin   int
		bet    int64
		want   int64
	}{
		{"red hit", "red", 32, 100, 200},
		{"red miss on black", "red", 22, 100, -100},
		{"red miss on zero", "red", 0, 100, -100},
		{"black hit", "black", 22, 100, 200},
		{"black miss", "black", 32, 100, -100},
		{"green hit", "green", 0, 100, 3500},
		{"green miss", "green", 17, 100, -100},
		{"number hit", "17", 17, 100, 3500},
		{"number miss", "17", 18, 100, -100},
		{"zero as number hit", "0", 0, 10, 350},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := extractChoice(map[string]any{"choice": tt.choice})
			require.NoError(t, err)
			assert.Equal(t, tt.want, settle(c, tt.spin, tt.bet))
		})
	}
}

func TestValidateBet(t *testing.T) {
	g := New(&Config{MaxBet: 500})

	tests := []struct {
		name    string
		bet     int64
		params  map[string]any
		wantErr error
	}{
		{"valid color", 100, map[string]any{"choice": "red"}, nil},
		{"valid number", 100, map[string]any{"choice": "36"}, nil},
		{"zero bet", 0, map[string]any{"choice": "red"}, ErrInvalidBet},
		{"negative bet", -5, map[string]any{"choice": "red"}, ErrInvalidBet},
		{"over max", 501, map[string]any{"choice": "red"}, ErrBetTooHigh},
		{"nil params", 100, nil, ErrMissingChoice},
		{"empty choice", 100, map[string]any{"choice": ""}, ErrMissingChoice},
		{"out of range number", 100, map[string]any{"choice": "37"}, ErrInvalidChoice},
		{"garbage choice", 100, map[string]any{"choice": "blue"}, ErrInvalidChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateBet(tt.bet, tt.params)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPlayWithRiggedSpin(t *testing.T) {
	g := New(nil)

	result, err := g.Play(context.Background(), 1, 100, map[string]any{
		"choice": "red",
		"spin":   32,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(200), result.Payout)
	assert.Equal(t, 32, result.Details["spin"])
	assert.Equal(t, "red", result.Details["color"])
	assert.Contains(t, result.Description, "won")
}

func TestPlayLossDescription(t *testing.T) {
	g := New(nil)

	result, err := g.Play(context.Background(), 1, 100, map[string]any{
		"choice": "black",
		"spin":   0,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(-100), result.Payout)
	assert.Equal(t, "green", result.Details["color"])
	assert.Contains(t, result.Description, "lost")
}

func TestSpinStaysOnWheel(t *testing.T) {
	g := New(&Config{Seed: 42})
	for i := 0; i < 1000; i++ {
		spin := g.spin(nil)
		assert.GreaterOrEqual(t, spin, 0)
		assert.LessOrEqual(t, spin, 36)
	}
}

func TestWheelHasEighteenOfEachColor(t *testing.T) {
	var red, black int
	for n := 1; n <= 36; n++ {
		switch pocketColor(n) {
		case "red":
			red++
		case "black":
			black++
		}
	}
	assert.Equal(t, 18, red)
	assert.Equal(t, 18, black)
	assert.Equal(t, "green", pocketColor(0))
}

// Net payouts only ever take one of three shapes regardless of the
// choice or the spin.
func TestSettlePayoutShapesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bet := rapid.Int64Range(1, 1000).Draw(t, "bet")
		spin := rapid.IntRange(0, 36).Draw(t, "spin")

		var raw string
		if rapid.Bool().Draw(t, "colorBet") {
			raw = rapid.SampledFrom([]string{"red", "black", "green"}).Draw(t, "color")
		} else {
			raw = strconv.Itoa(rapid.IntRange(0, 36).Draw(t, "number"))
		}

		c, err := extractChoice(map[string]any{"choice": raw})
		if err != nil {
			t.Fatalf("unexpected choice error: %v", err)
		}

		payout := settle(c, spin, bet)
		switch payout {
		case -bet, bet * ColorMultiplier, bet * NumberMultiplier:
		default:
			t.Fatalf("payout %d not a valid multiple of bet %d", payout, bet)
		}

		if c.color == "red" || c.color == "black" {
			won := pocketColor(spin) == c.color
			if won != (payout > 0) {
				t.Fatalf("color bet %q on spin %d: won=%v payout=%d", raw, spin, won, payout)
			}
		}
	})
}
