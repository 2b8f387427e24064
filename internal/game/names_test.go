package game

import "testing"

func TestFoldNameCanonicalizes(t *testing.T) {
	cases := []struct{ a, b string }{
		{"Vega", "vega"},
		{"  Vega  ", "VEGA"},
		{"Straße", "STRASSE"},
	}
	for _, tc := range cases {
		if foldName(tc.a) != foldName(tc.b) {
			t.Fatalf("foldName(%q) != foldName(%q)", tc.a, tc.b)
		}
	}
}

func TestDisplayNameKeepsChosenCasing(t *testing.T) {
	if got := displayName("vega"); got != "Vega" {
		t.Fatalf("displayName(vega) = %q, want Vega", got)
	}
	if got := displayName("McVega"); got != "McVega" {
		t.Fatalf("displayName(McVega) = %q, want McVega", got)
	}
	if got := displayName("  Vega  "); got != "Vega" {
		t.Fatalf("displayName trims = %q, want Vega", got)
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"Vega", "x", "Night-Hawk", "a123456789012345678901BC"}
	for _, name := range valid {
		if err := validateName(name); err != nil {
			t.Fatalf("validateName(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"", "   ", "two words", "a1234567890123456789012BC", "Account", "ACCOUNT"}
	for _, name := range invalid {
		if err := validateName(name); err == nil {
			t.Fatalf("validateName(%q) accepted an invalid name", name)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := validatePassword("secret"); err != nil {
		t.Fatalf("validatePassword rejected a six-character password: %v", err)
	}
	for _, pass := range []string{"", "short"} {
		if err := validatePassword(pass); err == nil {
			t.Fatalf("validatePassword(%q) accepted a weak password", pass)
		}
	}
}
