package dialog_test

import (
	"testing"

	"github.com/clemgrt/rendezvox/internal/dialog"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Bonjour", "bonjour"},
		{"Je m'appelle Chloé", "je m appelle chloe"},
		{"  Ça   va ?  ", "ca va"},
		{"C'est l'été!", "c est l ete"},
	}
	for _, tt := range tests {
		if got := dialog.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectPresentation(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"Je m'appelle Camille Dupont", true},
		{"je suis le responsable", true},
		{"Moi c'est Alex", true},
		{"Bonjour, comment allez-vous ?", false},
		// "suis" without "je" immediately before is not an introduction.
		{"nous suivons le dossier", false},
	}
	for _, tt := range tests {
		if got := dialog.DetectPresentation(tt.in); got != tt.want {
			t.Errorf("DetectPresentation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"pas d'adresse ici", ""},
		{"mon email est camille.dupont@example.fr merci", "camille.dupont@example.fr"},
		{"a+b_c%d@sub.domain.org", "a+b_c%d@sub.domain.org"},
		{"invalide@pas-de-tld", ""},
	}
	for _, tt := range tests {
		if got := dialog.ExtractEmail(tt.in); got != tt.want {
			t.Errorf("ExtractEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
