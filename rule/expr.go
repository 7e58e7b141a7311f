package rule

import (
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is what rule expressions see: every leaf child of the fragment by
// element name, plus "attr" (the fragment root attributes) and "id".
type Env map[string]any

func NewEnv(values map[string]any, id string, attrs map[string]any) Env {
	env := make(Env, len(values)+2)
	for k, v := range values {
		env[k] = v
	}
	env["attr"] = attrs
	env["id"] = id
	return env
}

func exprOpts() []expr.Option {
	return []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Function("present", func(params ...any) (any, error) {
			return params[0] != nil, nil
		},
			new(func(any) bool)),
	}
}

func compileCond(src string) (*vm.Program, error) {
	return expr.Compile(src, append(exprOpts(), expr.AsBool())...)
}

func compileValue(src string) (*vm.Program, error) {
	return expr.Compile(src, exprOpts()...)
}

// scalar renders an expression result as element text. Booleans follow the
// 1/0 convention of the documents being patched.
func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return fmt.Sprint(v), true
}
