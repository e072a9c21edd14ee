package bridge

import (
	"testing"
)

type point struct {
	X, Y  int
	Label Value
}

func TestUnrootedValueIsCollected(t *testing.T) {
	setup(t)

	s := NewString("temporary")
	if s.Value().Type() != TypeString {
		t.Fatal("fresh string has the wrong type")
	}
	GC()
	if got := s.Value().Type(); got != TypeNone {
		t.Errorf("Type() after GC = %s, want none", got)
	}
	if IsLive(s.Value()) {
		t.Error("IsLive should report the collected string")
	}
	if !IsLive(NewInteger(1).Value()) {
		t.Error("immediates are always live")
	}
}

func TestRootKeepsValueAlive(t *testing.T) {
	setup(t)

	root := NewRoot(NewString("kept"))
	GC()
	if got := root.Get().String(); got != "kept" {
		t.Fatalf("rooted string = %q", got)
	}

	old := root.Get()
	root.Set(NewString("replacement"))
	GC()
	if old.Value().Type() != TypeNone {
		t.Error("value replaced in the root should be collected")
	}
	if got := root.Get().String(); got != "replacement" {
		t.Errorf("rooted string = %q", got)
	}

	kept := root.Get()
	root.Release()
	root.Release()
	GC()
	if kept.Value().Type() != TypeNone {
		t.Error("released root should no longer protect its value")
	}
	if n := Current().RootCount(); n != 0 {
		t.Errorf("RootCount = %d", n)
	}
}

func TestForeignReachableValueSurvives(t *testing.T) {
	setup(t)

	holder := ObjectClass().New()
	ObjectClass().SetConst("HOLDER", holder)
	item := NewString("held")
	holder.InstanceVariableSet("@item", item)
	arr := NewArray(NewString("in array"))
	holder.InstanceVariableSet("@arr", arr)

	stats := GC()
	if item.Value().Type() != TypeString || arr.Value().Type() != TypeArray {
		t.Fatal("values reachable from a constant were collected")
	}
	if stats.Runs == 0 {
		t.Error("GC stats not updated")
	}
	elems := arr.Elements()
	if len(elems) != 1 || elems[0].Value().Type() != TypeString {
		t.Error("array element collected")
	}
}

func TestDataMarkKeepsReferencesAlive(t *testing.T) {
	setup(t)

	label := NewString("origin")
	p := &point{X: 1, Y: 2, Label: label.Value()}
	box := WrapData(nil, p, func(p *point, mark func(Value)) {
		mark(p.Label)
	})
	root := NewRoot(box)

	GC()
	if label.Value().Type() != TypeString {
		t.Fatal("mark function did not keep the label alive")
	}
	got := root.Get().Get()
	if got != p || got.X != 1 {
		t.Errorf("boxed data = %+v", got)
	}
	if box.Class().Name() != "Data" {
		t.Errorf("class = %s", box.Class().Name())
	}

	root.Release()
	GC()
	if box.Value().Type() != TypeNone || label.Value().Type() != TypeNone {
		t.Error("unreachable box and label should be collected")
	}
	if box.Get() != nil {
		t.Error("Get on a collected box should return nil")
	}
}

func TestDataInCustomClass(t *testing.T) {
	setup(t)

	data := DataClass()
	c := DefineClass("Point", &data)
	box := WrapData(&c, &point{X: 3}, nil)
	if box.Class().Name() != "Point" {
		t.Errorf("class = %s", box.Class().Name())
	}
	c.DefineMethod0("x", func(self AnyObject) Object {
		d, err := TryConvertTo[RData[point]](self)
		if err != nil {
			RaiseError(err)
		}
		return NewInteger(int64(d.Get().X))
	})
	if got := box.Send("x").Inspect(); got != "3" {
		t.Errorf("x = %s", got)
	}
}

func TestValuesSurviveDuringNativeCall(t *testing.T) {
	m := setup(t)

	c := DefineClass("Churner", nil)
	c.DefineMethod0("churn", func(AnyObject) Object {
		s := NewString("local")
		GC()
		if s.Value().Type() != TypeString {
			t.Error("value allocated inside a native method collected mid-call")
		}
		return s
	})
	res := c.New().Send("churn")
	if res.Value().Type() != TypeString {
		t.Error("result collected before return")
	}
	if m.Depth() != 0 {
		t.Error("frames leaked")
	}
}
