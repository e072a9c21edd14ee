package vm

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// NewString allocates a String.
func (vm *VM) NewString(s string) Value {
	defer vm.enter()()
	return vm.alloc(&StringObject{header: header{class: vm.StringClass}, Content: s})
}

// StringContent returns the Go string held by v and whether v is a String.
func (vm *VM) StringContent(v Value) (string, bool) {
	s := vm.StringObjectOf(v)
	if s == nil {
		return "", false
	}
	return s.Content, true
}

func (vm *VM) mustString(v Value) *StringObject {
	s, ok := vm.deref(v).(*StringObject)
	if !ok {
		vm.Raise(vm.TypeErrorClass, "%s is not a String", vm.describe(v))
	}
	return s
}

func reverseRunes(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// ---------------------------------------------------------------------------
// String Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerStringPrimitives() {
	c := vm.StringClass

	// String#initialize(str = "")
	c.AddVariadicMethod(vm.Selectors, "initialize", func(v *VM, recv Value, args []Value) Value {
		if len(args) > 1 {
			v.Raise(v.ArgumentErrorClass, "wrong number of arguments (given %d, expected 0..1)", len(args))
		}
		if len(args) == 1 {
			v.mustString(recv).Content = v.stringArg(args[0])
		}
		return Nil
	})

	// Queries
	length := func(v *VM, recv Value) Value {
		return FromSmallInt(int64(utf8.RuneCountInString(v.mustString(recv).Content)))
	}
	c.AddMethod0(vm.Selectors, "length", length)
	c.AddMethod0(vm.Selectors, "size", length)
	c.AddMethod0(vm.Selectors, "bytesize", func(v *VM, recv Value) Value {
		return FromSmallInt(int64(len(v.mustString(recv).Content)))
	})
	c.AddMethod0(vm.Selectors, "empty?", func(v *VM, recv Value) Value {
		return FromBool(v.mustString(recv).Content == "")
	})
	c.AddMethod1(vm.Selectors, "include?", func(v *VM, recv Value, arg Value) Value {
		return FromBool(strings.Contains(v.mustString(recv).Content, v.stringArg(arg)))
	})
	c.AddMethod1(vm.Selectors, "start_with?", func(v *VM, recv Value, arg Value) Value {
		return FromBool(strings.HasPrefix(v.mustString(recv).Content, v.stringArg(arg)))
	})
	c.AddMethod1(vm.Selectors, "end_with?", func(v *VM, recv Value, arg Value) Value {
		return FromBool(strings.HasSuffix(v.mustString(recv).Content, v.stringArg(arg)))
	})

	// Equality
	equal := func(v *VM, recv Value, arg Value) Value {
		other, ok := v.StringContent(arg)
		return FromBool(ok && v.mustString(recv).Content == other)
	}
	c.AddMethod1(vm.Selectors, "==", equal)
	c.AddMethod1(vm.Selectors, "eql?", equal)

	// Transformations returning new strings
	transform := func(name string, fn func(string) string) {
		c.AddMethod0(vm.Selectors, name, func(v *VM, recv Value) Value {
			return v.NewString(fn(v.mustString(recv).Content))
		})
	}
	transform("reverse", reverseRunes)
	transform("upcase", strings.ToUpper)
	transform("downcase", strings.ToLower)
	transform("strip", strings.TrimSpace)
	transform("dup", func(s string) string { return s })

	c.AddMethod1(vm.Selectors, "+", func(v *VM, recv Value, arg Value) Value {
		return v.NewString(v.mustString(recv).Content + v.stringArg(arg))
	})

	c.AddMethod1(vm.Selectors, "*", func(v *VM, recv Value, arg Value) Value {
		n := v.intArg(arg)
		if n < 0 {
			v.Raise(v.ArgumentErrorClass, "negative argument")
		}
		return v.NewString(strings.Repeat(v.mustString(recv).Content, int(n)))
	})

	// String#[](index) - single character, nil when out of range
	c.AddMethod1(vm.Selectors, "[]", func(v *VM, recv Value, arg Value) Value {
		runes := []rune(v.mustString(recv).Content)
		i := v.intArg(arg)
		if i < 0 {
			i += int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return Nil
		}
		return v.NewString(string(runes[i]))
	})

	// Mutation
	concat := func(v *VM, recv Value, arg Value) Value {
		v.checkFrozen(recv)
		s := v.mustString(recv)
		s.Content += v.stringArg(arg)
		return recv
	}
	c.AddMethod1(vm.Selectors, "<<", concat)
	c.AddMethod1(vm.Selectors, "concat", concat)

	c.AddMethod0(vm.Selectors, "reverse!", func(v *VM, recv Value) Value {
		v.checkFrozen(recv)
		s := v.mustString(recv)
		s.Content = reverseRunes(s.Content)
		return recv
	})

	// Conversions
	c.AddMethod0(vm.Selectors, "to_s", func(_ *VM, recv Value) Value {
		return recv
	})
	c.AddMethod0(vm.Selectors, "to_str", func(_ *VM, recv Value) Value {
		return recv
	})
	c.AddMethod0(vm.Selectors, "to_sym", func(v *VM, recv Value) Value {
		return v.Symbol(v.mustString(recv).Content)
	})
	c.AddMethod0(vm.Selectors, "inspect", func(v *VM, recv Value) Value {
		return v.NewString(strconv.Quote(v.mustString(recv).Content))
	})
	c.AddMethod0(vm.Selectors, "to_i", func(v *VM, recv Value) Value {
		n, _ := strconv.ParseInt(leadingInteger(v.mustString(recv).Content), 10, 64)
		return v.intResult(n)
	})
	c.AddMethod0(vm.Selectors, "to_f", func(v *VM, recv Value) Value {
		f, _ := strconv.ParseFloat(strings.TrimSpace(v.mustString(recv).Content), 64)
		return FromFloat64(f)
	})

	// String#split(sep = " ")
	c.AddVariadicMethod(vm.Selectors, "split", func(v *VM, recv Value, args []Value) Value {
		var sep Value
		v.ScanArgs(len(args), argvOf(args), "01", &sep)
		content := v.mustString(recv).Content
		var parts []string
		if sep == Nil || v.stringArg(sep) == " " {
			parts = strings.Fields(content)
		} else {
			parts = strings.Split(content, v.stringArg(sep))
		}
		vals := make([]Value, len(parts))
		for i, p := range parts {
			vals[i] = v.NewString(p)
		}
		return v.NewArray(vals)
	})
}

// leadingInteger returns the optional sign and digits at the start of s.
func leadingInteger(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// argvOf returns the splat-convention pointer for args.
func argvOf(args []Value) *Value {
	if len(args) == 0 {
		return nil
	}
	return &args[0]
}
