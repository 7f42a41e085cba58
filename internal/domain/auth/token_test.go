package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hrledger/internal/domain/employee"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", Role: employee.RoleAdmin, Name: "Admin User", Email: "admin@company.com"}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	user := parsed.User()
	if user.UserID != "u1" || user.Role != employee.RoleAdmin || user.Email != claims.Email || !user.IsAdmin() {
		t.Fatalf("claims mismatch: %+v", user)
	}
	if parsed.Subject != "u1" || parsed.Issuer != Issuer {
		t.Fatalf("unexpected registered claims: %+v", parsed.RegisteredClaims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	secret := "test-secret"
	good := Claims{UserID: "u1", Role: employee.RoleEmployee}

	expired, err := GenerateToken(secret, good, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken(secret, expired); err == nil {
		t.Fatal("expected expired token to fail")
	}

	valid, err := GenerateToken(secret, good, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("other-secret", valid); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}

	badRole, err := GenerateToken(secret, Claims{UserID: "u1", Role: "hr"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken(secret, badRole); err == nil {
		t.Fatal("expected unknown role to fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: employee.RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("unsigned token error: %v", err)
	}
	if _, err := ParseToken(secret, unsigned); err == nil {
		t.Fatal("expected unsigned token to fail")
	}
}

func TestClaimsFor(t *testing.T) {
	e := employee.Employee{ID: "e1", Name: "John Doe", Email: "john.doe@company.com", Role: employee.RoleEmployee}
	c := ClaimsFor(e)
	if c.UserID != "e1" || c.Role != employee.RoleEmployee || c.Name != "John Doe" {
		t.Fatalf("unexpected claims: %+v", c)
	}
	if c.User().IsAdmin() {
		t.Fatal("employee must not be admin")
	}
}
