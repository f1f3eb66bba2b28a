package exam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindText
	KindBool
)

// Value holds an answer or answer key: null, a string or a boolean.
// Its JSON form is the bare JSON value.
type Value struct {
	kind ValueKind
	text string
	b    bool
}

func Null() Value               { return Value{} }
func Text(s string) Value       { return Value{kind: KindText, text: s} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Equal is strict: a string never equals a boolean.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Null()
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = Text(t)
	case bool:
		*v = Bool(t)
	default:
		return fmt.Errorf("value must be string, boolean or null, got %s", string(b))
	}
	return nil
}

// FromRaw converts a decoded JSON value (string, bool or nil).
// Any other type is reported as not ok.
func FromRaw(raw interface{}) (Value, bool) {
	switch t := raw.(type) {
	case nil:
		return Null(), true
	case string:
		return Text(t), true
	case bool:
		return Bool(t), true
	case Value:
		return t, true
	default:
		return Value{}, false
	}
}
