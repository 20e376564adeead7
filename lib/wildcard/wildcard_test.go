package wildcard

import "testing"

func TestWildCard(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"a*", "abc", true},
		{"a*c", "abc", true},
		{"a*c", "abd", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"a[bc]d", "abd", true},
		{"a[bc]d", "aed", false},
		{"a[a-c]d", "abd", true},
		{"a[^bc]d", "aed", true},
		{"a[^bc]d", "abd", false},
		{"**b", "aab", true},
		{"abc", "abc", true},
		{"abc", "abd", false},
	}
	for _, c := range cases {
		p := CompilePattern(c.pattern)
		if got := p.IsMatch(c.input); got != c.want {
			t.Errorf("pattern %q input %q: got %v want %v", c.pattern, c.input, got, c.want)
		}
	}
}
