package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"what is 15 + 27?", "15 + 27 = 42"},
		{"10 - 3", "10 - 3 = 7"},
		{"10-3", "10 - 3 = 7"},
		{"10 -3", "10 - 3 = 7"},
		{"-5 plus 3", "-5 + 3 = -2"},
		{"subtract 2 from 9", "2 - 9 = -7"},
		{"6 x 7", "6 × 7 = 42"},
		{"6 * 7", "6 × 7 = 42"},
		{"multiply 1.5 by 4", "1.5 × 4 = 6"},
		{"2 ** 10", "2 to the power of 10 = 1024"},
		{"2 ^ 3", "2 to the power of 3 = 8"},
		{"10 / 4", "10 ÷ 4 = 2.5000"},
		{"10 divided by 3", "10 ÷ 3 = 3.3333"},
		{"divide 10 by 0", MsgDivideByZero},
		{"average of 10, 20, 30", "Average of 10, 20, 30 = 20.0000"},
		{"mean of 1 and 2", "Average of 1, 2 = 1.5000"},
		{"sum of 1, 2, 3.5", "Sum of 1, 2, 3.5 = 6.5"},
		{"total 4 4 4", "Sum of 4, 4, 4 = 12"},
		{"square root of 16", "Square root of 16 = 4.0000"},
		{"sqrt -4", MsgNegativeSqrt},
		{"factorial of 5", "Factorial of 5 = 120"},
		{"factorial of 0", "Factorial of 0 = 1"},
		{"factorial of 20", "Factorial of 20 = 2432902008176640000"},
		{"factorial of 25", MsgFactorialArgs},
		{"factorial of 2.5", MsgFactorialArgs},
		{"10 to the power of 400", "Calculation error: result is not a finite number"},
		{"0 times -1", "0 × -1 = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Evaluate(tt.input)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_NoCalculation(t *testing.T) {
	for _, input := range []string{
		"hello there",
		"calculate 5",
		"a well-known 3 and 4",
		"explain 3 things",
		"add 5",
		"sometimes 3 4",
	} {
		t.Run(input, func(t *testing.T) {
			_, ok := Evaluate(input)
			assert.False(t, ok)
		})
	}
}

func TestEvaluate_OperatorPriority(t *testing.T) {
	// Addition is checked before multiplication.
	got, ok := Evaluate("2 + 3 * 4")
	assert.True(t, ok)
	assert.Equal(t, "2 + 3 = 5", got)
}

func TestExtractNumbers(t *testing.T) {
	assert.Equal(t, []string{"10", "3"}, extractNumbers("10-3"))
	assert.Equal(t, []string{"-10", "3.25"}, extractNumbers("-10 and 3.25"))
	assert.Equal(t, []string{"5", "-3"}, extractNumbers("5 minus -3"))
	assert.Empty(t, extractNumbers("no digits"))
}

func TestSingleStar(t *testing.T) {
	assert.True(t, singleStar("3 * 4"))
	assert.False(t, singleStar("3 ** 4"))
	assert.True(t, singleStar("3 ** 4 * 2"))
}
