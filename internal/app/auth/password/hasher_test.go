package password

import "testing"

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher("pepper")

	hash, err := h.Hash("Sup3rSecret")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "Sup3rSecret" || hash == "" {
		t.Fatal("hash must not echo the plaintext")
	}

	ok, err := h.Verify("Sup3rSecret", hash)
	if err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong", hash)
	if err != nil {
		t.Fatalf("mismatch must not error: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHasher_Salted(t *testing.T) {
	h := NewHasher("")

	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatal("two hashes of the same plaintext must differ")
	}
}

func TestHasher_PepperMatters(t *testing.T) {
	withPepper := NewHasher("pepper")
	without := NewHasher("")

	hash, _ := withPepper.Hash("pw")
	ok, err := without.Verify("pw", hash)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("hash must not verify without the pepper")
	}
}
