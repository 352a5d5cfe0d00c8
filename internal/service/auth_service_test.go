package service

import (
	"context"
	"errors"
	"testing"

	"oyakatsu/internal/models"
)

func TestRegistrationFlow(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000010"

	user := env.registerUser(t, target, "Taro")

	if user.PhoneNumber != target {
		t.Errorf("PhoneNumber = %q, want %q", user.PhoneNumber, target)
	}
	if user.DisplayName != "Taro" {
		t.Errorf("DisplayName = %q, want Taro", user.DisplayName)
	}
	if user.HasRole() {
		t.Error("freshly registered user should have no role")
	}
}

func TestVerifyCodeExistingUserGetsTokens(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000011"
	env.registerUser(t, target, "Taro")

	if _, _, err := env.verifications.Issue(context.Background(), target, models.CodeTypePhone); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	result, err := env.auth.VerifyCode(target, env.sender.lastCode)
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}
	if result.IsNewUser {
		t.Error("existing user should not be flagged as new")
	}
	if result.Tokens == nil || result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Error("existing user should receive a token pair")
	}
	if result.Tokens.ExpiresIn != 900 {
		t.Errorf("ExpiresIn = %d, want 900", result.Tokens.ExpiresIn)
	}
}

func TestVerifyCodeWrongCode(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000012"

	if _, _, err := env.verifications.Issue(context.Background(), target, models.CodeTypePhone); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	wrong := "000000"
	if wrong == env.sender.lastCode {
		wrong = "000001"
	}

	if _, err := env.auth.VerifyCode(target, wrong); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("VerifyCode(wrong) error = %v, want ErrInvalidCode", err)
	}
}

func TestRegisterRequiresConsumedCode(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000013"

	if _, _, err := env.verifications.Issue(context.Background(), target, models.CodeTypePhone); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Code was issued but never consumed via verify
	_, err := env.auth.Register(target, "", env.sender.lastCode, "", "Taro")
	if !errors.Is(err, ErrInvalidVerification) {
		t.Errorf("Register(unconsumed) error = %v, want ErrInvalidVerification", err)
	}
}

func TestRegisterDuplicateTarget(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000014"
	env.registerUser(t, target, "Taro")

	if _, _, err := env.verifications.Issue(context.Background(), target, models.CodeTypePhone); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	code := env.sender.lastCode
	if err := env.verifications.Consume(target, code); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	_, err := env.auth.Register(target, "", code, "", "Other Taro")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("Register(duplicate) error = %v, want ErrUserExists", err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	target := "hanako@example.com"

	if _, _, err := env.verifications.Issue(context.Background(), target, models.CodeTypeEmail); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	code := env.sender.lastCode
	if err := env.verifications.Consume(target, code); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if _, err := env.auth.Register("", target, code, "secret-password", "Hanako"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := env.auth.Login(target, "secret-password")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.Email != target {
		t.Errorf("Email = %q, want %q", result.User.Email, target)
	}

	if _, err := env.auth.Login(target, "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.auth.Login("nobody@example.com", "secret-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(unknown user) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginWithoutPassword(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000015"
	env.registerUser(t, target, "Taro") // phone account, no password

	if _, err := env.auth.Login(target, "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(passwordless account) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000016"
	user := env.registerUser(t, target, "Taro")

	pair, err := env.tokens.IssuePair(user.ID)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	result, err := env.auth.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if result.User.ID != user.ID {
		t.Errorf("refreshed user ID = %d, want %d", result.User.ID, user.ID)
	}
	if result.Tokens.RefreshToken == pair.RefreshToken {
		t.Error("rotation should mint a new refresh token")
	}

	// The consumed token never works again
	if _, err := env.auth.Refresh(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh(consumed token) error = %v, want ErrInvalidToken", err)
	}

	// The replacement still works
	if _, err := env.auth.Refresh(result.Tokens.RefreshToken); err != nil {
		t.Errorf("Refresh(replacement) error = %v", err)
	}
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000017"
	user := env.registerUser(t, target, "Taro")

	pair, err := env.tokens.IssuePair(user.ID)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if err := env.auth.Logout(user.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, err := env.auth.Refresh(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh(after logout) error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000018"
	user := env.registerUser(t, target, "Taro")

	pair, err := env.tokens.IssuePair(user.ID)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	resolved, err := env.auth.Authenticate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("resolved user ID = %d, want %d", resolved.ID, user.ID)
	}

	// A refresh token must not pass as an access token
	if _, err := env.auth.Authenticate(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate(refresh token) error = %v, want ErrInvalidToken", err)
	}

	if _, err := env.auth.Authenticate("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate(garbage) error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticateDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	target := "+819000000019"
	user := env.registerUser(t, target, "Taro")

	pair, err := env.tokens.IssuePair(user.ID)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if _, err := env.db.Exec("DELETE FROM users WHERE id = ?", user.ID); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	// The token is well-formed, so this is an authentication failure, not a
	// token defect
	if _, err := env.auth.Authenticate(pair.AccessToken); !errors.Is(err, ErrUserGone) {
		t.Errorf("Authenticate(deleted user) error = %v, want ErrUserGone", err)
	}

	// Refresh for the deleted user stays a token error
	if _, err := env.auth.Refresh(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh(deleted user) error = %v, want ErrInvalidToken", err)
	}
}
