package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"oyakatsu/internal/database"
	"oyakatsu/internal/models"
	"oyakatsu/internal/repository"
	"oyakatsu/internal/token"
)

// captureSender records delivered codes so tests can read them back, the
// way a client reads an SMS or email.
type captureSender struct {
	lastTarget string
	lastCode   string
}

func (s *captureSender) SendCode(ctx context.Context, target string, codeType models.CodeType, code string) error {
	s.lastTarget = target
	s.lastCode = code
	return nil
}

// testEnv wires the full service stack against a throwaway SQLite database
type testEnv struct {
	db            *database.DB
	sender        *captureSender
	verifications *VerificationService
	tokens        *TokenService
	auth          *AuthService
	families      *FamilyService
	users         *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_service.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	manager, err := token.NewManager("test-secret", 15*time.Minute, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}

	sender := &captureSender{}
	userRepo := repository.NewUserRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	verifications := NewVerificationService(verificationRepo, sender)
	tokens := NewTokenService(manager, tokenRepo)

	return &testEnv{
		db:            db,
		sender:        sender,
		verifications: verifications,
		tokens:        tokens,
		auth:          NewAuthService(userRepo, verifications, tokens),
		families:      NewFamilyService(familyRepo, "https://oyakatsu.app"),
		users:         NewUserService(userRepo, deviceRepo),
	}
}

// registerUser runs the full send-code/verify/register flow and returns the
// new user.
func (env *testEnv) registerUser(t *testing.T, target, displayName string) *models.User {
	t.Helper()

	if _, _, err := env.verifications.Issue(context.Background(), target, models.CodeTypePhone); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	code := env.sender.lastCode

	result, err := env.auth.VerifyCode(target, code)
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}
	if !result.IsNewUser {
		t.Fatal("VerifyCode() for unknown target should signal new user")
	}

	result, err = env.auth.Register(target, "", code, "", displayName)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return result.User
}

// registerUserWithRole registers a user and sets their role
func (env *testEnv) registerUserWithRole(t *testing.T, target, displayName string, role models.Role) *models.User {
	t.Helper()

	user := env.registerUser(t, target, displayName)
	updated, err := env.users.SetRole(user.ID, role)
	if err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	return updated
}
