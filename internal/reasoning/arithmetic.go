package reasoning

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Messages returned in place of a result when an operation is undefined.
const (
	MsgDivideByZero  = "Cannot divide by zero"
	MsgNegativeSqrt  = "Cannot compute square root of negative number"
	MsgFactorialArgs = "Factorial only works with non-negative integers up to 20"

	maxFactorial = 20
)

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// operand is a number as written in the input and its value.
type operand struct {
	text  string
	value float64
}

type matcher func(text string) bool

// operation is one row of the operator table. minOperands is the number of
// operands the operation needs; variadic operations use all of them.
type operation struct {
	name        string
	matchers    []matcher
	minOperands int
	eval        func(ops []operand) string
}

// operations is checked in order; the first operation whose trigger is
// present and whose operand count is satisfied wins.
var operations = []operation{
	{
		name:        "add",
		matchers:    []matcher{word("plus"), word("add"), symbol("+")},
		minOperands: 2,
		eval: func(ops []operand) string {
			return binary(ops, "+", ops[0].value+ops[1].value)
		},
	},
	{
		name:        "subtract",
		matchers:    []matcher{word("minus"), word("subtract"), minusOperator},
		minOperands: 2,
		eval: func(ops []operand) string {
			return binary(ops, "-", ops[0].value-ops[1].value)
		},
	},
	{
		name:        "multiply",
		matchers:    []matcher{word("times"), word("multiply"), word("x"), singleStar, symbol("×")},
		minOperands: 2,
		eval: func(ops []operand) string {
			return binary(ops, "×", ops[0].value*ops[1].value)
		},
	},
	{
		name:        "divide",
		matchers:    []matcher{word("divided by"), word("divide"), symbol("/"), symbol("÷")},
		minOperands: 2,
		eval: func(ops []operand) string {
			if ops[1].value == 0 {
				return MsgDivideByZero
			}
			r := ops[0].value / ops[1].value
			if !finite(r) {
				return notFinite()
			}
			return fmt.Sprintf("%s ÷ %s = %.4f", ops[0].text, ops[1].text, r)
		},
	},
	{
		name:        "power",
		matchers:    []matcher{word("power"), word("to the power"), symbol("**"), symbol("^")},
		minOperands: 2,
		eval: func(ops []operand) string {
			r := math.Pow(ops[0].value, ops[1].value)
			if !finite(r) {
				return notFinite()
			}
			return fmt.Sprintf("%s to the power of %s = %s", ops[0].text, ops[1].text, formatNumber(r))
		},
	},
	{
		name:        "average",
		matchers:    []matcher{word("average"), word("mean")},
		minOperands: 2,
		eval: func(ops []operand) string {
			r := lo.SumBy(ops, operandValue) / float64(len(ops))
			if !finite(r) {
				return notFinite()
			}
			return fmt.Sprintf("Average of %s = %.4f", joinOperands(ops), r)
		},
	},
	{
		name:        "sum",
		matchers:    []matcher{word("sum"), word("total")},
		minOperands: 2,
		eval: func(ops []operand) string {
			r := lo.SumBy(ops, operandValue)
			if !finite(r) {
				return notFinite()
			}
			return fmt.Sprintf("Sum of %s = %s", joinOperands(ops), formatNumber(r))
		},
	},
	{
		name:        "sqrt",
		matchers:    []matcher{word("square root"), word("sqrt")},
		minOperands: 1,
		eval: func(ops []operand) string {
			if ops[0].value < 0 {
				return MsgNegativeSqrt
			}
			return fmt.Sprintf("Square root of %s = %.4f", ops[0].text, math.Sqrt(ops[0].value))
		},
	},
	{
		name:        "factorial",
		matchers:    []matcher{word("factorial")},
		minOperands: 1,
		eval: func(ops []operand) string {
			n := ops[0].value
			if n < 0 || n != math.Trunc(n) || n > maxFactorial {
				return MsgFactorialArgs
			}
			result := int64(1)
			for i := int64(2); i <= int64(n); i++ {
				result *= i
			}
			return fmt.Sprintf("Factorial of %d = %d", int64(n), result)
		},
	},
}

// Evaluate looks for an arithmetic request in cleaned input and computes
// it. ok is false when the input holds no number or no operator with
// enough operands. Undefined operations and malformed numbers produce an
// explanatory message with ok true; they are never errors.
func Evaluate(text string) (result string, ok bool) {
	tokens := extractNumbers(text)
	if len(tokens) == 0 {
		return "", false
	}

	for _, op := range operations {
		if len(tokens) < op.minOperands || !matchesAny(text, op.matchers) {
			continue
		}

		operands, err := parseOperands(tokens)
		if err != nil {
			return "Calculation error: " + err.Error(), true
		}
		return op.eval(operands), true
	}

	return "", false
}

// extractNumbers returns the numeric tokens of text. A minus sign directly
// after a number, possibly across spaces, is the subtraction operator and
// not part of the following token.
func extractNumbers(text string) []string {
	locs := numberPattern.FindAllStringIndex(text, -1)
	tokens := make([]string, 0, len(locs))
	for _, loc := range locs {
		tok := text[loc[0]:loc[1]]
		if tok[0] == '-' && digitBefore(text, loc[0]) {
			tok = tok[1:]
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func parseOperands(tokens []string) ([]operand, error) {
	ops := make([]operand, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, err
		}
		ops[i] = operand{text: tok, value: v}
	}
	return ops, nil
}

func binary(ops []operand, symbol string, r float64) string {
	if !finite(r) {
		return notFinite()
	}
	return fmt.Sprintf("%s %s %s = %s", ops[0].text, symbol, ops[1].text, formatNumber(r))
}

// formatNumber prints integral values without a fraction and others with
// the shortest exact representation.
func formatNumber(f float64) string {
	if f == 0 {
		f = 0 // normalize negative zero
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func notFinite() string {
	return "Calculation error: result is not a finite number"
}

func operandValue(o operand) float64 { return o.value }

func joinOperands(ops []operand) string {
	return strings.Join(lo.Map(ops, func(o operand, _ int) string { return o.text }), ", ")
}

func matchesAny(text string, matchers []matcher) bool {
	for _, m := range matchers {
		if m(text) {
			return true
		}
	}
	return false
}

// word matches w as a whole word or phrase.
func word(w string) matcher {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	return re.MatchString
}

func symbol(s string) matcher {
	return func(text string) bool { return strings.Contains(text, s) }
}

// singleStar matches a "*" that is not part of "**".
func singleStar(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] != '*' {
			continue
		}
		if (i == 0 || text[i-1] != '*') && (i+1 == len(text) || text[i+1] != '*') {
			return true
		}
	}
	return false
}

// minusOperator matches a "-" that follows a number or stands alone
// between spaces. Hyphens inside words and leading signs do not count.
func minusOperator(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] != '-' {
			continue
		}
		if digitBefore(text, i) {
			return true
		}
		if i > 0 && text[i-1] == ' ' && i+1 < len(text) && text[i+1] == ' ' {
			return true
		}
	}
	return false
}

// digitBefore reports whether the last non-space byte before i is a digit.
func digitBefore(text string, i int) bool {
	j := i - 1
	for j >= 0 && text[j] == ' ' {
		j--
	}
	return j >= 0 && text[j] >= '0' && text[j] <= '9'
}
