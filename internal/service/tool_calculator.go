package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/Strob0t/StatForge/internal/domain/tool"
)

const calculatorDescription = `Perform mathematical calculations.

Arguments:
- operation (required): one of average, sum, min, max, win_percentage, percent_change, divide, expression
- values (required): numbers to work on
  - average/sum/min/max: a list of numbers, e.g. [280, 310, 295]
  - win_percentage: {"wins": X, "losses": Y} with optional "ties" (counted as half a win)
  - percent_change: {"old": X, "new": Y}
  - divide: [numerator, denominator]
  - expression: an arithmetic string; abs, round, min, max and pow are available

Examples:
- {"tool": "calculator", "arguments": {"operation": "average", "values": [280, 310, 295, 340]}}
- {"tool": "calculator", "arguments": {"operation": "win_percentage", "values": {"wins": 8, "losses": 2}}}
- {"tool": "calculator", "arguments": {"operation": "expression", "values": "324 / 18"}}`

// Calculator operations.
const (
	opAverage       = "average"
	opSum           = "sum"
	opMin           = "min"
	opMax           = "max"
	opWinPercentage = "win_percentage"
	opPercentChange = "percent_change"
	opDivide        = "divide"
	opExpression    = "expression"
)

// CalculatorTool does arithmetic on numbers gathered by other tools.
type CalculatorTool struct{}

// NewCalculatorTool creates the calculator tool.
func NewCalculatorTool() *CalculatorTool { return &CalculatorTool{} }

func (t *CalculatorTool) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "calculator",
		Description: calculatorDescription,
		Params: []tool.Param{
			{Name: "operation", Type: "string", Required: true, Description: "average, sum, min, max, win_percentage, percent_change, divide or expression"},
			{Name: "values", Type: "any", Required: true, Description: "list, object or expression string depending on the operation"},
		},
	}
}

type calculatorArgs struct {
	Operation string
	Values    any
}

func parseCalculatorArgs(args map[string]any) (calculatorArgs, error) {
	a := calculatorArgs{
		Operation: strings.ToLower(argString(args, "operation")),
		Values:    args["values"],
	}
	if a.Operation == "" {
		return a, errors.New("operation is required")
	}
	return a, nil
}

func (t *CalculatorTool) Execute(_ context.Context, args map[string]any) tool.Result {
	a, err := parseCalculatorArgs(args)
	if err != nil {
		return tool.Fail(err.Error())
	}
	v, err := calculate(a.Operation, a.Values)
	if err != nil {
		return tool.Fail(err.Error())
	}
	return tool.OK(tool.CalcResult{Result: v, Operation: a.Operation})
}

func calculate(op string, values any) (float64, error) {
	switch op {
	case opAverage, opSum, opMin, opMax:
		nums, err := toNumbers(values)
		if err != nil {
			return 0, err
		}
		if len(nums) == 0 {
			if op == opSum {
				return 0, nil
			}
			return 0, errors.New("No values provided")
		}
		return roundTo(aggregate(op, nums), 2), nil

	case opWinPercentage:
		m, err := toNamedNumbers(values, "wins", "losses", "ties")
		if err != nil {
			return 0, err
		}
		games := m["wins"] + m["losses"] + m["ties"]
		if games <= 0 {
			return 0, nil
		}
		return roundTo((m["wins"]+m["ties"]/2)/games*100, 1), nil

	case opPercentChange:
		m, err := toNamedNumbers(values, "old", "new")
		if err != nil {
			return 0, err
		}
		if m["old"] == 0 {
			return 0, errors.New("Cannot calculate percent change from 0")
		}
		return roundTo((m["new"]-m["old"])/m["old"]*100, 1), nil

	case opDivide:
		nums, err := toNumbers(values)
		if err != nil {
			return 0, err
		}
		if len(nums) != 2 {
			return 0, errors.New("Divide requires exactly 2 values")
		}
		if nums[1] == 0 {
			return 0, errors.New("Cannot divide by zero")
		}
		return roundTo(nums[0]/nums[1], 2), nil

	case opExpression:
		if f, ok := toFloat(values); ok {
			if _, isString := values.(string); !isString {
				return roundTo(f, 2), nil
			}
		}
		src, ok := values.(string)
		if !ok || strings.TrimSpace(src) == "" {
			return 0, errors.New("expression must be a non-empty string")
		}
		v, err := evalExpression(src)
		if err != nil {
			return 0, err
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, errors.New("expression result is not a finite number")
		}
		return roundTo(v, 2), nil
	}
	return 0, errors.New("Unknown operation: " + op)
}

func aggregate(op string, nums []float64) float64 {
	out := nums[0]
	switch op {
	case opSum, opAverage:
		out = 0
		for _, n := range nums {
			out += n
		}
		if op == opAverage {
			out /= float64(len(nums))
		}
	case opMin:
		for _, n := range nums[1:] {
			out = math.Min(out, n)
		}
	case opMax:
		for _, n := range nums[1:] {
			out = math.Max(out, n)
		}
	}
	return out
}
