package helpers

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash equals plain text")
	}
	if !CompareHashAndPassword(hash, "password123") {
		t.Fatal("compare failed for correct password")
	}
	if CompareHashAndPassword(hash, "wrong-password") {
		t.Fatal("compare succeeded for wrong password")
	}
}
