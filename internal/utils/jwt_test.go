package utils

import "testing"

func TestAccessTokenRoundTrip(t *testing.T) {
    const secret = "test-secret"
    tok, err := NewAccessToken(secret, 42, "PLAYER", 15)
    if err != nil {
        t.Fatalf("issue token: %v", err)
    }
    claims, err := ParseAccessToken(secret, tok.Token)
    if err != nil {
        t.Fatalf("parse token: %v", err)
    }
    if claims.UserID != 42 || claims.Role != "PLAYER" {
        t.Errorf("claims = %+v, want user 42 role PLAYER", claims)
    }
    if _, err := ParseAccessToken("other-secret", tok.Token); err == nil {
        t.Error("token must not verify under a different secret")
    }
}

func TestPasswordHashing(t *testing.T) {
    hash, err := HashPassword("hunter2", 4)
    if err != nil {
        t.Fatalf("hash: %v", err)
    }
    if !VerifyPassword(hash, "hunter2") {
        t.Error("correct password rejected")
    }
    if VerifyPassword(hash, "hunter3") {
        t.Error("wrong password accepted")
    }

    // an out-of-range cost falls back to the bcrypt default
    hash, err = HashPassword("hunter2", 99)
    if err != nil {
        t.Fatalf("hash with out-of-range cost: %v", err)
    }
    if !VerifyPassword(hash, "hunter2") {
        t.Error("fallback-cost hash rejected its password")
    }
}
