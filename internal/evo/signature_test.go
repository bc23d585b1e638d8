package evo

import (
	"testing"

	"heredity/internal/heredity"
)

func TestFingerprintDeterministic(t *testing.T) {
	a, _ := heredity.NewProjectedGenomeFrom([]float64{0.1, 0.2, 0.3})
	b, _ := heredity.NewProjectedGenomeFrom([]float64{0.1, 0.2, 0.3})
	fa, fb := Fingerprint(a), Fingerprint(b)
	if len(fa) != 16 {
		t.Fatalf("expected 16 hex chars, got=%q", fa)
	}
	if fa != fb {
		t.Fatalf("expected equal fingerprints: %s != %s", fa, fb)
	}
}

func TestFingerprintChangesWithParameters(t *testing.T) {
	a, _ := heredity.NewProjectedGenomeFrom([]float64{0.1, 0.2, 0.3})
	before := Fingerprint(a)
	a.SetParameter(1, 0.25)
	if Fingerprint(a) == before {
		t.Fatalf("expected fingerprint to change: %s", before)
	}
}
