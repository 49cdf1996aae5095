package safejson

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePrimitives(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(nil, Sanitize(nil))
	assert.Equal(true, Sanitize(true))
	assert.Equal(int64(42), Sanitize(42))
	assert.Equal(3.5, Sanitize(3.5))
	assert.Equal("hello", Sanitize("hello"))
}

func TestSanitizeCycles(t *testing.T) {
	assert := assert.New(t)

	m := map[string]any{"name": "root"}
	m["self"] = m

	out, ok := Sanitize(m).(map[string]any)
	assert.True(ok)
	assert.Equal("root", out["name"])
	assert.Equal(CircularRef, out["self"])

	// cycle through a slice
	l := []any{"a"}
	l = append(l, nil)
	l[1] = l
	_, err := Marshal(l)
	assert.NoError(err)

	// mutual cycle between two maps
	a := map[string]any{}
	b := map[string]any{"a": a}
	a["b"] = b
	raw, err := Marshal(a)
	assert.NoError(err)
	assert.Contains(string(raw), CircularRef)
}

func TestSanitizeSharedNonCyclic(t *testing.T) {
	assert := assert.New(t)

	// a DAG (shared node, no cycle) must not trip the cycle detector
	shared := map[string]any{"k": "v"}
	root := map[string]any{"one": shared, "two": shared}
	out := Sanitize(root).(map[string]any)
	assert.Equal(map[string]any{"k": "v"}, out["one"])
	assert.Equal(map[string]any{"k": "v"}, out["two"])
}

func TestSanitizeNonSerializable(t *testing.T) {
	assert := assert.New(t)

	out := Sanitize(map[string]any{"fn": func() {}}).(map[string]any)
	assert.Equal("<non-serializable: func()>", out["fn"])

	out = Sanitize(map[string]any{"ch": make(chan int)}).(map[string]any)
	assert.Equal("<non-serializable: chan int>", out["ch"])
}

func TestSanitizeStructs(t *testing.T) {
	assert := assert.New(t)

	type inner struct {
		Hidden string `json:"-"`
		Keep   string `json:"keep"`
	}
	type outer struct {
		Name  string `json:"name"`
		Count int    `json:"count,omitempty"`
		In    inner  `json:"in"`
	}
	out := Sanitize(outer{Name: "x", In: inner{Hidden: "no", Keep: "yes"}}).(map[string]any)
	assert.Equal("x", out["name"])
	assert.NotContains(out, "count") // omitempty on zero
	assert.Equal(map[string]any{"keep": "yes"}, out["in"])
}

func TestSanitizeTime(t *testing.T) {
	assert := assert.New(t)

	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal("2024-05-01T12:30:00Z", Sanitize(ts))
}

func TestSanitizeIdempotent(t *testing.T) {
	assert := assert.New(t)

	inputs := []any{
		nil,
		"str",
		12,
		[]any{1, "two", map[string]any{"three": 3.0}},
		map[string]any{"t": time.Now(), "fn": func() {}},
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		assert.Equal(once, twice)
	}

	// cyclic input: sanitize once, then again; output stable
	m := map[string]any{}
	m["m"] = m
	once := Sanitize(m)
	assert.Equal(once, Sanitize(once))
}

func TestMarshalAlwaysValidJSON(t *testing.T) {
	assert := assert.New(t)

	m := map[string]any{"bad": func() {}, "n": 1}
	m["cycle"] = m
	raw, err := Marshal(m)
	assert.NoError(err)
	assert.True(json.Valid(raw))
}

func TestIsCircularRef(t *testing.T) {
	assert := assert.New(t)
	assert.True(IsCircularRef(CircularRef))
	assert.True(IsCircularRef("<circular ref>"))
	assert.False(IsCircularRef("ok"))
	assert.False(IsCircularRef(7))
}
