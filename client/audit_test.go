package client

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestComputeContentHashKeyOrderIndependent(t *testing.T) {
	a, err := ComputeContentHash(map[string]any{"b": 2, "a": 1, "c": "x"})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := ComputeContentHash(map[string]any{"c": "x", "a": 1, "b": 2})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a != b {
		t.Fatalf("hashes differ: %s vs %s", a, b)
	}
	if len(a) != 66 || a[:2] != "0x" {
		t.Fatalf("unexpected hash format: %s", a)
	}
}

func TestComputeContentHashCanonicalEncoding(t *testing.T) {
	got, err := ComputeContentHash(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	digest := sha256.Sum256([]byte(`{"a":1}`))
	want := "0x" + hex.EncodeToString(digest[:])
	if got != want {
		t.Fatalf("hash = %s, want %s", got, want)
	}
}

func TestVerifyProofLocally(t *testing.T) {
	// Four-leaf tree built with the same sorted-pair hashing as hashPair.
	leaves := make([][]byte, 4)
	for i := range leaves {
		digest := sha256.Sum256([]byte{byte(i)})
		leaves[i] = digest[:]
	}
	n01 := hashPair(leaves[0], leaves[1])
	n23 := hashPair(leaves[2], leaves[3])
	root := hashPair(n01, n23)

	for idx, leaf := range leaves {
		var path []string
		sibling := idx ^ 1
		path = append(path, hex.EncodeToString(leaves[sibling]))
		if idx < 2 {
			path = append(path, hex.EncodeToString(n23))
		} else {
			path = append(path, hex.EncodeToString(n01))
		}

		ok, err := VerifyProofLocally(hex.EncodeToString(leaf), path, idx, "0x"+hex.EncodeToString(root))
		if err != nil {
			t.Fatalf("leaf %d: %v", idx, err)
		}
		if !ok {
			t.Fatalf("leaf %d: valid proof rejected", idx)
		}
	}
}

func TestVerifyProofLocallyRejectsBadProof(t *testing.T) {
	leaf := sha256.Sum256([]byte("record"))
	other := sha256.Sum256([]byte("other"))
	root := hashPair(leaf[:], other[:])

	ok, err := VerifyProofLocally(
		hex.EncodeToString(leaf[:]),
		[]string{hex.EncodeToString(leaf[:])}, // wrong sibling
		0,
		hex.EncodeToString(root),
	)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("invalid proof accepted")
	}
}

func TestVerifyProofLocallyInvalidHex(t *testing.T) {
	if _, err := VerifyProofLocally("zzzz", nil, 0, "00"); err == nil {
		t.Fatal("invalid content hash accepted")
	}
}
