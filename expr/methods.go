package expr

import (
	"fmt"
	"reflect"
	"strings"
)

// method describes a callable the AST knows how to evaluate. Instance calls
// receive the receiver as args[0].
type method struct {
	arity  int
	result Type
	eval   func(args []any) (any, error)
}

var methods = map[string]method{
	"Contains":   {arity: 2, result: TypeBool, eval: evalContains},
	"StartsWith": {arity: 2, result: TypeBool, eval: stringPred(strings.HasPrefix)},
	"EndsWith":   {arity: 2, result: TypeBool, eval: stringPred(strings.HasSuffix)},
	"ToLower":    {arity: 1, result: TypeString, eval: stringFunc(strings.ToLower)},
	"ToUpper":    {arity: 1, result: TypeString, eval: stringFunc(strings.ToUpper)},
	"Len":        {arity: 1, result: TypeInt, eval: evalLen},
}

func lookupMethod(name string) (method, bool) {
	m, ok := methods[name]
	return m, ok
}

func callArity(recv NodeID, args []NodeID) int {
	if recv != NoNode {
		return len(args) + 1
	}
	return len(args)
}

// MethodArity returns the operand count of a registered method, receiver
// included, and false when name is unknown.
func MethodArity(name string) (int, bool) {
	m, ok := methods[name]
	return m.arity, ok
}

// HasMethod reports whether name is a registered method.
func HasMethod(name string) bool {
	_, ok := methods[name]
	return ok
}

func evalContains(args []any) (any, error) {
	switch c := args[0].(type) {
	case nil:
		return false, nil
	case string:
		s, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("Contains: want string argument, got %T", args[1])
		}
		return strings.Contains(c, s), nil
	case *List:
		return c.Contains(args[1]), nil
	}
	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if Equal(rv.Index(i).Interface(), args[1]) {
				return true, nil
			}
		}
		return false, nil
	}
	return nil, fmt.Errorf("Contains: unsupported receiver %T", args[0])
}

func stringPred(f func(s, affix string) bool) func([]any) (any, error) {
	return func(args []any) (any, error) {
		if args[0] == nil {
			return false, nil
		}
		s, ok1 := args[0].(string)
		a, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("want string operands, got %T and %T", args[0], args[1])
		}
		return f(s, a), nil
	}
}

func stringFunc(f func(string) string) func([]any) (any, error) {
	return func(args []any) (any, error) {
		if args[0] == nil {
			return nil, nil
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("want string receiver, got %T", args[0])
		}
		return f(s), nil
	}
}

func evalLen(args []any) (any, error) {
	switch v := args[0].(type) {
	case nil:
		return int64(0), nil
	case string:
		return int64(len(v)), nil
	case *List:
		return int64(v.Len()), nil
	}
	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return int64(rv.Len()), nil
	}
	return nil, fmt.Errorf("Len: unsupported receiver %T", args[0])
}
