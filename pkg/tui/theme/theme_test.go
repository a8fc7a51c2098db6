package theme

import (
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
)

func TestContrast(t *testing.T) {
	tests := map[string]string{
		"#ffffff": "#000000",
		"#f6d32d": "#000000",
		"#000000": "#ffffff",
		"#0078d4": "#ffffff",
	}
	for hex, want := range tests {
		c, err := colorful.Hex(hex)
		if err != nil {
			t.Fatal(err)
		}
		if got := contrast(c); got != want {
			t.Errorf("contrast(%s) = %s, want %s", hex, got, want)
		}
	}
}

func TestNewFallsBackOnInvalidAccent(t *testing.T) {
	bad := New("not-a-color", true)
	def := Default()
	if bad.Header.Title.GetForeground() != def.Header.Title.GetForeground() {
		t.Fatal("expected the default accent for an invalid color")
	}
}
