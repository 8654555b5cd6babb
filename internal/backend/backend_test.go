package backend

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":       Auto,
		"  CPU ": CPU,
		"cuda":   CUDA,
		"Auto":   Auto,
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", in, err)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := Normalize("tpu"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
