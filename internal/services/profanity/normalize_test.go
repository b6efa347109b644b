package profanity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "  \t \n ", want: ""},
		{name: "collapses whitespace", input: "  hello   world \n", want: "hello world"},
		{name: "lower cases", input: "HeLLo", want: "hello"},
		{name: "leetspeak digits", input: "h3ll0 w0r1d", want: "hello worid"},
		{name: "symbol stand-ins", input: "b@d $tuff", want: "bad stuff"},
		{name: "plus and bang", input: "no+ i!", want: "not ii"},
		{name: "persian digits", input: "ب۴د", want: "بaد"},
		{name: "mixed", input: "  B4D   w0rd ", want: "bad word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
