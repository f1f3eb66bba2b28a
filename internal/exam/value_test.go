package exam

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValueJSON(t *testing.T) {
	cases := []struct {
		in   string
		want Value
	}{
		{`"B"`, Text("B")},
		{`true`, Bool(true)},
		{`null`, Null()},
		{` "" `, Text("")},
	}
	for _, c := range cases {
		var v Value
		if err := json.Unmarshal([]byte(c.in), &v); err != nil {
			t.Fatalf("%s: %v", c.in, err)
		}
		if !v.Equal(c.want) {
			t.Fatalf("%s: got %v (kind %d)", c.in, v, v.Kind())
		}
	}
	for _, bad := range []string{`3`, `["A"]`, `{"a":1}`} {
		var v Value
		if err := json.Unmarshal([]byte(bad), &v); err == nil {
			t.Fatalf("%s decoded as %v", bad, v)
		}
	}

	// A missing field stays null inside a struct.
	var q Question
	if err := json.Unmarshal([]byte(`{"type":"essay"}`), &q); err != nil {
		t.Fatal(err)
	}
	if !q.CorrectAnswer.IsNull() {
		t.Fatalf("missing key decoded as %v", q.CorrectAnswer)
	}
	b, _ := json.Marshal(UserAnswer{Answer: Bool(false)})
	if !strings.Contains(string(b), `"answer":false`) || !strings.Contains(string(b), `"isCorrect":null`) {
		t.Fatalf("marshal: %s", b)
	}
}

func TestValueEqualIsStrict(t *testing.T) {
	if Text("true").Equal(Bool(true)) {
		t.Fatal(`"true" must not equal true`)
	}
	if Text("b").Equal(Text("B")) {
		t.Fatal("text comparison must be case-sensitive")
	}
	if !Null().Equal(Value{}) {
		t.Fatal("zero Value is null")
	}
	if _, ok := FromRaw(1.5); ok {
		t.Fatal("numbers are not answers")
	}
}

func TestQuestionValidate(t *testing.T) {
	ok := []Question{
		{Type: TypeMultipleChoice, Content: "c", Points: 1, Options: []string{"A", "B"}, CorrectAnswer: Text("A")},
		{Type: TypeTrueFalse, Content: "c", Points: 3, CorrectAnswer: Bool(false)},
		{Type: TypeEssay, Content: "c", Points: 5, AcceptedAnswers: []string{"x"}},
	}
	for _, q := range ok {
		if err := q.Validate(); err != nil {
			t.Fatalf("%s: %v", q.Type, err)
		}
	}

	bad := map[string]struct {
		q    Question
		want ValidationReason
	}{
		"no content":       {Question{Type: TypeEssay, Points: 1}, InvalidQuestion},
		"zero points":      {Question{Type: TypeEssay, Content: "c"}, InvalidQuestion},
		"key not option":   {Question{Type: TypeMultipleChoice, Content: "c", Points: 1, Options: []string{"A", "B"}, CorrectAnswer: Text("C")}, InvalidQuestion},
		"too many options": {Question{Type: TypeMultipleChoice, Content: "c", Points: 1, Options: []string{"1", "2", "3", "4", "5", "6", "7"}, CorrectAnswer: Text("1")}, InvalidQuestion},
		"tf text key":      {Question{Type: TypeTrueFalse, Content: "c", Points: 1, CorrectAnswer: Text("true")}, InvalidQuestion},
		"essay with key":   {Question{Type: TypeEssay, Content: "c", Points: 1, CorrectAnswer: Text("x")}, InvalidQuestion},
		"unknown type":     {Question{Type: "matching", Content: "c", Points: 1}, UnknownType},
	}
	for name, c := range bad {
		err := c.q.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Reason != c.want {
			t.Fatalf("%s: got %v, want %s", name, err, c.want)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: not ErrValidation", name)
		}
	}
}

func TestAccessCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := NewAccessCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != AccessCodeLen || strings.ContainsAny(code, "01IO") || code != strings.ToUpper(code) {
			t.Fatalf("bad code %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Fatalf("only %d distinct codes out of 200", len(seen))
	}
	if got := NormalizeAccessCode("  ab3k9x\n"); got != "AB3K9X" {
		t.Fatalf("normalize = %q", got)
	}
}
