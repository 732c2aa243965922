package screen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/smsledger/internal/screen"
)

func TestHasAmount(t *testing.T) {
	type testCase struct {
		name string
		text string
		want bool
	}

	tests := []testCase{
		{name: "rupee code with separators", text: "Rs 1,500.00 debited from a/c XX12", want: true},
		{name: "rupee code with dot", text: "Rs.250 spent on card", want: true},
		{name: "inr prefix", text: "INR 2,999.00 debited from A/c XX1234", want: true},
		{name: "rupee symbol", text: "₹499 paid to Zomato", want: true},
		{name: "verb qualified", text: "Your a/c is debited by 120.50 on 01-02-24", want: true},
		{name: "dollar symbol", text: "You spent $12.99 at Netflix", want: true},
		{name: "euro suffix", text: "Payment of 15,00 EUR received", want: true},
		{name: "pound code", text: "GBP 40 sent to John", want: true},
		{name: "rupee decimal comma", text: "Rs 12,50 debited at Shop", want: true},
		{name: "otp only", text: "Your OTP is 482913. Do not share.", want: false},
		{name: "no digits", text: "Your statement is ready", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, screen.HasAmount(tc.text))
		})
	}
}

func TestIsDebitTransaction(t *testing.T) {
	type testCase struct {
		name string
		text string
		want bool
	}

	tests := []testCase{
		{name: "debited", text: "Rs 100 DEBITED from a/c", want: true},
		{name: "spent", text: "You spent Rs 20", want: true},
		{name: "payment", text: "Payment of Rs 300 successful", want: true},
		{name: "sent", text: "Rs 50 sent to friend", want: true},
		{name: "dr abbreviation", text: "A/c XX12 Dr Rs 45", want: true},
		{name: "credit only", text: "Rs 500 credited to your account", want: false},
		{name: "offer", text: "Get 10% cashback on your next order", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, screen.IsDebitTransaction(tc.text))
		})
	}
}
