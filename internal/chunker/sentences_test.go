package chunker

import (
	"reflect"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", " \n\t ", nil},
		{"single without terminator", "no terminator here", []string{"no terminator here"}},
		{"simple", "A. B. C. D.", []string{"A.", "B.", "C.", "D."}},
		{"mixed punctuation", "Really? Yes! Fine.", []string{"Really?", "Yes!", "Fine."}},
		{"newlines and runs of whitespace", "One.\n\nTwo.  \tThree.", []string{"One.", "Two.", "Three."}},
		{"trailing whitespace dropped", "End. ", []string{"End."}},
		{"punctuation without whitespace", "v1.2 is out.Next", []string{"v1.2 is out.Next"}},
		{"abbreviation is split", "Dr. Smith arrived.", []string{"Dr.", "Smith arrived."}},
		{"ellipsis", "Wait... What?", []string{"Wait...", "What?"}},
		{"leading whitespace kept", "  Lead. Tail", []string{"  Lead.", "Tail"}},
		{"unicode whitespace", "Один.\u00a0Два.", []string{"Один.", "Два."}},
		{"multibyte sentences", "Café crème. Über alles! Ça va?", []string{"Café crème.", "Über alles!", "Ça va?"}},
		{"only terminators", ". ! ?", []string{".", "!", "?"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
