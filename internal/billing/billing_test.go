package billing

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/oolio-pos/internal/domain/cart"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []cart.Line
		want  decimal.Decimal
	}{
		{
			name: "empty cart",
			want: d("0"),
		},
		{
			name:  "two idly",
			lines: []cart.Line{{ID: 1, Name: "Idly", Price: d("30"), Quantity: 2}},
			want:  d("60.00"),
		},
		{
			name: "mixed lines",
			lines: []cart.Line{
				{ID: 1, Price: d("30"), Quantity: 2},
				{ID: 3, Price: d("25"), Quantity: 1},
				{ID: 4, Price: d("10"), Quantity: 1},
			},
			want: d("95.00"),
		},
		{
			name: "rounds the sum, not each line",
			lines: []cart.Line{
				{ID: 1, Price: d("0.333"), Quantity: 1},
				{ID: 2, Price: d("0.333"), Quantity: 1},
				{ID: 3, Price: d("0.334"), Quantity: 1},
			},
			// per-line rounding would give 0.33+0.33+0.33 = 0.99
			want: d("1.00"),
		},
		{
			name:  "half rounds up",
			lines: []cart.Line{{ID: 1, Price: d("0.125"), Quantity: 1}},
			want:  d("0.13"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotal(tt.lines)
			assert.True(t, tt.want.Equal(got.Total), "expected %s, got %s", tt.want, got.Total)
		})
	}
}

func TestComputeTotal_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for range 50 {
		lines := make([]cart.Line, 1+rng.IntN(8))
		for i := range lines {
			lines[i] = cart.Line{
				ID:       i + 1,
				Price:    decimal.New(rng.Int64N(100000), -3),
				Quantity: 1 + rng.IntN(9),
			}
		}
		want := ComputeTotal(lines).Total

		rng.Shuffle(len(lines), func(i, j int) { lines[i], lines[j] = lines[j], lines[i] })
		got := ComputeTotal(lines).Total
		assert.True(t, want.Equal(got), "permutation changed total: %s vs %s", want, got)

		sum := decimal.Zero
		for _, l := range lines {
			sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		assert.True(t, sum.Round(2).Equal(got))
	}
}

func TestBuildPaymentRequest(t *testing.T) {
	got := BuildPaymentRequest(Bill{Total: d("95.5")}, "TXN1700000000000", Payee{MerchantID: "shop@upi"})
	assert.Equal(t,
		"upi://pay?pa=shop@upi&pn=Restaurant&am=95.5&tn=Bill-TXN1700000000000&cu=INR",
		got,
	)
}

func TestBuildPaymentRequest_CustomPayee(t *testing.T) {
	got := BuildPaymentRequest(Bill{Total: d("60")}, "TXN1", Payee{
		MerchantID: "cafe@okbank",
		Name:       "Annapurna Cafe",
		Currency:   "USD",
	})
	assert.Equal(t, "upi://pay?pa=cafe@okbank&pn=Annapurna+Cafe&am=60&tn=Bill-TXN1&cu=USD", got)
}

func TestNewTransactionID(t *testing.T) {
	now := time.UnixMilli(1760500000123)
	assert.Equal(t, "TXN1760500000123", NewTransactionID(now))
}
