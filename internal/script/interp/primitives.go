package interp

import (
	"strings"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/value"
)

// primitiveMember resolves a.field for a primitive receiver (string,
// vector, map) to a bound FnPrimitiveMember value. The receiver is
// captured by the returned closure rather than passed as an explicit self
// argument, since primitives have no Scope to bind "self" into.
func primitiveMember(recv *value.Value, field string) (*value.Value, error) {
	var fn func(args []*value.Value) (*value.Value, error)

	switch recv.Kind {
	case value.KindString:
		fn = stringMember(recv, field)
	case value.KindVec:
		fn = vecMember(recv, field)
	case value.KindMap:
		fn = mapMember(recv, field)
	}

	if fn == nil {
		return nil, berr.New(berr.Script, "%s has no member %q", recv.TypeStr(), field)
	}
	return &value.Value{
		Kind: value.KindFn,
		Fn:   &value.Fn{FnKind: value.FnPrimitiveMember, Name: field, Extern: fn},
	}, nil
}

func stringMember(recv *value.Value, field string) func([]*value.Value) (*value.Value, error) {
	switch field {
	case "len":
		return func(args []*value.Value) (*value.Value, error) {
			return value.NewInt(int64(len([]rune(recv.Str)))), nil
		}
	case "upper":
		return func(args []*value.Value) (*value.Value, error) {
			return value.NewString(strings.ToUpper(recv.Str)), nil
		}
	case "lower":
		return func(args []*value.Value) (*value.Value, error) {
			return value.NewString(strings.ToLower(recv.Str)), nil
		}
	case "trim":
		return func(args []*value.Value) (*value.Value, error) {
			return value.NewString(strings.TrimSpace(recv.Str)), nil
		}
	case "split":
		return func(args []*value.Value) (*value.Value, error) {
			sep, err := stringArg(args, 0, "split")
			if err != nil {
				return nil, err
			}
			parts := strings.Split(recv.Str, sep)
			elems := make([]*value.Value, len(parts))
			for i, part := range parts {
				elems[i] = value.NewString(part)
			}
			return value.NewVec(elems), nil
		}
	case "contains":
		return func(args []*value.Value) (*value.Value, error) {
			sub, err := stringArg(args, 0, "contains")
			if err != nil {
				return nil, err
			}
			return value.NewBool(strings.Contains(recv.Str, sub)), nil
		}
	case "replace":
		return func(args []*value.Value) (*value.Value, error) {
			if len(args) != 2 {
				return nil, berr.New(berr.Script, "replace expects 2 arguments, got %d", len(args))
			}
			old, err := stringArg(args, 0, "replace")
			if err != nil {
				return nil, err
			}
			newStr, err := stringArg(args, 1, "replace")
			if err != nil {
				return nil, err
			}
			return value.NewString(strings.ReplaceAll(recv.Str, old, newStr)), nil
		}
	default:
		return nil
	}
}

func vecMember(recv *value.Value, field string) func([]*value.Value) (*value.Value, error) {
	switch field {
	case "len":
		return func(args []*value.Value) (*value.Value, error) {
			return value.NewInt(int64(len(recv.Vec))), nil
		}
	case "push":
		return func(args []*value.Value) (*value.Value, error) {
			if len(args) != 1 {
				return nil, berr.New(berr.Script, "push expects 1 argument, got %d", len(args))
			}
			recv.Vec = append(recv.Vec, args[0])
			return recv, nil
		}
	case "pop":
		return func(args []*value.Value) (*value.Value, error) {
			if len(recv.Vec) == 0 {
				return nil, berr.New(berr.Script, "pop on empty vector")
			}
			last := recv.Vec[len(recv.Vec)-1]
			recv.Vec = recv.Vec[:len(recv.Vec)-1]
			return last, nil
		}
	case "contains":
		return func(args []*value.Value) (*value.Value, error) {
			if len(args) != 1 {
				return nil, berr.New(berr.Script, "contains expects 1 argument, got %d", len(args))
			}
			for _, e := range recv.Vec {
				if value.Eq(e, args[0]) {
					return value.NewBool(true), nil
				}
			}
			return value.NewBool(false), nil
		}
	default:
		return nil
	}
}

func mapMember(recv *value.Value, field string) func([]*value.Value) (*value.Value, error) {
	switch field {
	case "len":
		return func(args []*value.Value) (*value.Value, error) {
			return value.NewInt(int64(len(recv.Map))), nil
		}
	case "keys":
		return func(args []*value.Value) (*value.Value, error) {
			keys := make([]*value.Value, len(recv.Map))
			for i, e := range recv.Map {
				keys[i] = e.Key
			}
			return value.NewVec(keys), nil
		}
	case "values":
		return func(args []*value.Value) (*value.Value, error) {
			vals := make([]*value.Value, len(recv.Map))
			for i, e := range recv.Map {
				vals[i] = e.Val
			}
			return value.NewVec(vals), nil
		}
	case "has":
		return func(args []*value.Value) (*value.Value, error) {
			if len(args) != 1 {
				return nil, berr.New(berr.Script, "has expects 1 argument, got %d", len(args))
			}
			for _, e := range recv.Map {
				if value.Eq(e.Key, args[0]) {
					return value.NewBool(true), nil
				}
			}
			return value.NewBool(false), nil
		}
	default:
		return nil
	}
}

func stringArg(args []*value.Value, i int, member string) (string, error) {
	if i >= len(args) {
		return "", berr.New(berr.Script, "%s expects a string argument at position %d", member, i)
	}
	if args[i].Kind != value.KindString {
		return "", berr.New(berr.Script, "%s expects a string argument, got %s", member, args[i].TypeStr())
	}
	return args[i].Str, nil
}
