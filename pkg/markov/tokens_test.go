package markov

import (
	"reflect"
	"testing"
)

func TestDefaultTokenizer(t *testing.T) {
	tokenizer := NewDefaultTokenizer()

	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "Kanji and hiragana runs", input: "私は元気です", want: []string{"私", "は", "元気", "です"}},
		{name: "Full-width punctuation", input: "元気？はい！", want: []string{"元気", "？", "はい", "！"}},
		{name: "Katakana with long vowel mark", input: "コーヒーを飲む", want: []string{"コーヒー", "を", "飲", "む"}},
		{name: "Laughter particle", input: "草ｗｗ", want: []string{"草", "ｗ", "ｗ"}},
		{name: "ASCII words", input: "Go is fun, isn't it", want: []string{"Go", "is", "fun", ",", "isn't", "it"}},
		{name: "Whitespace only", input: " \t\n", want: nil},
		{name: "Empty", input: "", want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tokenizer.Tokenize(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestDefaultTokenizerWithPattern(t *testing.T) {
	tokenizer := NewDefaultTokenizer(WithPattern(`.`))

	got := tokenizer.Tokenize("元気")
	if !reflect.DeepEqual(got, []string{"元", "気"}) {
		t.Errorf("expected one token per rune, got %q", got)
	}
}

func TestTokenizerIsDeterministic(t *testing.T) {
	tokenizer := NewDefaultTokenizer()
	const text = "今日はいい天気ですね。明日も晴れるかな？"

	first := tokenizer.Tokenize(text)
	for i := 0; i < 10; i++ {
		if got := tokenizer.Tokenize(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}

func TestTokenizerFunc(t *testing.T) {
	var called string
	f := TokenizerFunc(func(text string) []string {
		called = text
		return []string{text}
	})

	if got := f.Tokenize("abc"); !reflect.DeepEqual(got, []string{"abc"}) || called != "abc" {
		t.Errorf("TokenizerFunc did not delegate, got %q", got)
	}
}

func TestLockedChooser(t *testing.T) {
	inner := &scriptedChooser{picks: []int{3, 1}}
	c := NewLockedChooser(inner)

	if got := c.IntN(2); got != 1 {
		t.Errorf("IntN(2) = %d, want 1", got)
	}
	if got := c.IntN(5); got != 1 {
		t.Errorf("IntN(5) = %d, want 1", got)
	}
	if !reflect.DeepEqual(inner.asked, []int{2, 5}) {
		t.Errorf("inner chooser was asked %v", inner.asked)
	}
}
