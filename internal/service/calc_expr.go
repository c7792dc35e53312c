package service

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"strings"
)

var errDivisionByZero = errors.New("division by zero")

// evalExpression evaluates arithmetic over number literals. Only + - * / %,
// parentheses and the functions abs, round, min, max and pow are accepted.
func evalExpression(src string) (float64, error) {
	if strings.Contains(src, "**") {
		return 0, errors.New("the ** operator is not supported, use pow(x, y)")
	}
	node, err := parser.ParseExpr(src)
	if err != nil {
		return 0, fmt.Errorf("invalid expression %q", src)
	}
	return evalNode(node)
}

func evalNode(n ast.Expr) (float64, error) {
	switch e := n.(type) {
	case *ast.BasicLit:
		switch e.Kind {
		case token.INT:
			i, err := strconv.ParseInt(e.Value, 0, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid number %s", e.Value)
			}
			return float64(i), nil
		case token.FLOAT:
			return strconv.ParseFloat(e.Value, 64)
		}
		return 0, fmt.Errorf("unsupported literal %s", e.Value)

	case *ast.ParenExpr:
		return evalNode(e.X)

	case *ast.UnaryExpr:
		x, err := evalNode(e.X)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return -x, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", e.Op)

	case *ast.BinaryExpr:
		x, err := evalNode(e.X)
		if err != nil {
			return 0, err
		}
		y, err := evalNode(e.Y)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, errDivisionByZero
			}
			return x / y, nil
		case token.REM:
			if y == 0 {
				return 0, errDivisionByZero
			}
			return math.Mod(x, y), nil
		}
		return 0, fmt.Errorf("unsupported operator %s", e.Op)

	case *ast.CallExpr:
		return evalCall(e)
	}
	return 0, fmt.Errorf("unsupported expression")
}

func evalCall(e *ast.CallExpr) (float64, error) {
	fn, ok := e.Fun.(*ast.Ident)
	if !ok || e.Ellipsis.IsValid() {
		return 0, fmt.Errorf("unsupported function call")
	}
	args := make([]float64, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := evalNode(a)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
	}

	switch fn.Name {
	case "abs":
		if len(args) != 1 {
			return 0, errors.New("abs takes exactly 1 argument")
		}
		return math.Abs(args[0]), nil
	case "round":
		switch len(args) {
		case 1:
			return math.RoundToEven(args[0]), nil
		case 2:
			return roundTo(args[0], int(args[1])), nil
		}
		return 0, errors.New("round takes 1 or 2 arguments")
	case "pow":
		if len(args) != 2 {
			return 0, errors.New("pow takes exactly 2 arguments")
		}
		return math.Pow(args[0], args[1]), nil
	case "min", "max":
		if len(args) == 0 {
			return 0, fmt.Errorf("%s needs at least 1 argument", fn.Name)
		}
		out := args[0]
		for _, v := range args[1:] {
			if fn.Name == "min" {
				out = math.Min(out, v)
			} else {
				out = math.Max(out, v)
			}
		}
		return out, nil
	}
	return 0, fmt.Errorf("name %q is not allowed", fn.Name)
}

// roundTo rounds half to even at the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}
