package hash

import "testing"

func TestSHA256(t *testing.T) {
	// Known SHA256 of "hello".
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := SHA256([]byte("hello")); got != want {
		t.Errorf("SHA256() = %q, want %q", got, want)
	}
}

func TestSHA256Short(t *testing.T) {
	full := SHA256([]byte("hello"))

	if got := SHA256Short([]byte("hello"), 16); got != full[:16] {
		t.Errorf("SHA256Short(16) = %q, want %q", got, full[:16])
	}
	if got := SHA256Short([]byte("hello"), 1000); got != full {
		t.Errorf("SHA256Short(1000) = %q, want full hash", got)
	}
}

func TestRunFingerprintDeterministic(t *testing.T) {
	a := RunFingerprint([]byte("q1 Q0 d1 1 1.5 sys\n"))
	b := RunFingerprint([]byte("q1 Q0 d1 1 1.5 sys\n"))
	c := RunFingerprint([]byte("q1 Q0 d2 1 1.5 sys\n"))

	if a != b {
		t.Error("same input produced different fingerprints")
	}
	if a == c {
		t.Error("different inputs produced the same fingerprint")
	}
	if len(a) != 16 {
		t.Errorf("fingerprint length = %d, want 16", len(a))
	}
}
