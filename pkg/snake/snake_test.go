package snake

import "testing"

func TestParseBool(t *testing.T) {
	tests := map[string]bool{
		"on":   true,
		"Yes":  true,
		"TRUE": true,
		"1":    true,
		"off":  false,
		"no":   false,
		" F ":  false,
		"0":    false,
	}
	for in, want := range tests {
		got, err := ParseBool(in)
		if err != nil {
			t.Fatalf("ParseBool(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseBool(%q) = %t, want %t", in, got, want)
		}
	}
	if _, err := ParseBool("maybe"); err == nil {
		t.Fatal("expected an error for maybe")
	}
}
