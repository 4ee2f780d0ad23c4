package service

import (
	"context"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
	"github.com/JoyBrar2001/advanced-auth/internal/core/ports"
)

type stubAccountRepo struct {
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = strconv.Itoa(r.nextID)
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAccountRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *stubAccountRepo) SaveResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetPasswordToken = token
	u.ResetPasswordExpiresAt = &expiresAt
	return nil
}

func (r *stubAccountRepo) ConsumeVerificationToken(_ context.Context, code string, now time.Time) (*domain.User, error) {
	for _, u := range r.users {
		if u.VerificationToken == code && u.VerificationTokenExpiresAt != nil && u.VerificationTokenExpiresAt.After(now) {
			u.IsVerified = true
			u.VerificationToken = ""
			u.VerificationTokenExpiresAt = nil
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrTokenInvalid
}

func (r *stubAccountRepo) ConsumeResetToken(_ context.Context, token, passwordHash string, now time.Time) (*domain.User, error) {
	for _, u := range r.users {
		if u.ResetPasswordToken == token && u.ResetPasswordExpiresAt != nil && u.ResetPasswordExpiresAt.After(now) {
			u.PasswordHash = passwordHash
			u.ResetPasswordToken = ""
			u.ResetPasswordExpiresAt = nil
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrTokenInvalid
}

type recordingQueue struct {
	tasks []ports.MailTask
}

func (q *recordingQueue) Enqueue(task ports.MailTask) {
	q.tasks = append(q.tasks, task)
}

func newTestService() (*AccountService, *stubAccountRepo, *recordingQueue) {
	repo := newStubAccountRepo()
	queue := &recordingQueue{}
	issuer := NewSessionIssuer("secret", time.Hour)
	svc := NewAccountService(repo, queue, issuer, "http://localhost:5173/", zerolog.Nop())
	return svc, repo, queue
}

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestAccountService_Signup_Success(t *testing.T) {
	svc, repo, queue := newTestService()

	user, token, err := svc.Signup(context.Background(), "a@x.com", "pw123456", "A")
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	if user.IsVerified {
		t.Fatalf("new account must start unverified")
	}
	if user.PasswordHash == "pw123456" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw123456")); err != nil {
		t.Fatalf("stored hash does not verify against password: %v", err)
	}
	if !sixDigits.MatchString(user.VerificationToken) {
		t.Fatalf("expected 6-digit verification code, got %q", user.VerificationToken)
	}
	if user.VerificationTokenExpiresAt == nil {
		t.Fatalf("verification expiry not set")
	}

	uid, err := svc.sessions.Validate(token)
	if err != nil || uid != user.ID {
		t.Fatalf("session token does not validate to new user: %v (uid=%q)", err, uid)
	}

	if len(queue.tasks) != 1 {
		t.Fatalf("expected 1 queued mail, got %d", len(queue.tasks))
	}
	task := queue.tasks[0]
	if task.Kind != ports.MailVerification || task.Email != "a@x.com" || !sixDigits.MatchString(task.Code) {
		t.Fatalf("unexpected verification task: %+v", task)
	}

	if _, err := repo.FindByEmail(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
}

func TestAccountService_Signup_Validation(t *testing.T) {
	svc, _, queue := newTestService()

	if _, _, err := svc.Signup(context.Background(), "", "pw", "A"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), "a@x.com", "", "A"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), "a@x.com", "pw", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(queue.tasks) != 0 {
		t.Fatalf("validation failure must not queue mail")
	}
}

func TestAccountService_Signup_Duplicate(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.Signup(context.Background(), "a@x.com", "pw123456", "A"); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), "a@x.com", "other", "B"); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAccountService_Login_Success(t *testing.T) {
	svc, _, _ := newTestService()
	created, _, _ := svc.Signup(context.Background(), "carol@x.com", "s3cret", "Carol")

	user, token, err := svc.Login(context.Background(), "carol@x.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("wrong user returned")
	}
	if user.LastLogin == nil {
		t.Fatalf("last login not stamped")
	}

	uid, err := svc.sessions.Validate(token)
	if err != nil || uid != created.ID {
		t.Fatalf("session token invalid: %v", err)
	}
}

// Unknown email and wrong password must be indistinguishable: same error
// value, same message.
func TestAccountService_Login_NoEnumeration(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, _ = svc.Signup(context.Background(), "dave@x.com", "goodpass", "Dave")

	_, _, errWrongPass := svc.Login(context.Background(), "dave@x.com", "badpass")
	_, _, errNoUser := svc.Login(context.Background(), "ghost@x.com", "whatever")

	if errWrongPass != domain.ErrInvalidCredentials || errNoUser != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", errWrongPass, errNoUser)
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Fatalf("messages differ: %q vs %q", errWrongPass, errNoUser)
	}
}

func TestAccountService_Login_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.Login(context.Background(), "", "pw"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "a@x.com", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAccountService_VerifyEmail_Success(t *testing.T) {
	svc, _, queue := newTestService()
	created, _, _ := svc.Signup(context.Background(), "eve@x.com", "pw123456", "Eve")
	code := created.VerificationToken

	user, err := svc.VerifyEmail(context.Background(), code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !user.IsVerified {
		t.Fatalf("account not marked verified")
	}
	if user.VerificationPending() {
		t.Fatalf("verification fields not cleared")
	}

	last := queue.tasks[len(queue.tasks)-1]
	if last.Kind != ports.MailWelcome || last.Email != "eve@x.com" || last.Name != "Eve" {
		t.Fatalf("unexpected welcome task: %+v", last)
	}
}

// A redeemed code is single-use: the atomic consume clears it, so the same
// code never matches twice.
func TestAccountService_VerifyEmail_Reuse(t *testing.T) {
	svc, _, _ := newTestService()
	created, _, _ := svc.Signup(context.Background(), "frank@x.com", "pw123456", "Frank")
	code := created.VerificationToken

	if _, err := svc.VerifyEmail(context.Background(), code); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if _, err := svc.VerifyEmail(context.Background(), code); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid on reuse, got %v", err)
	}
}

func TestAccountService_VerifyEmail_ExpiryBoundary(t *testing.T) {
	svc, _, _ := newTestService()
	created, _, _ := svc.Signup(context.Background(), "gina@x.com", "pw123456", "Gina")
	code := created.VerificationToken
	expiresAt := *created.VerificationTokenExpiresAt

	// One second before expiry: still valid.
	svc.now = func() time.Time { return expiresAt.Add(-time.Second) }
	if _, err := svc.VerifyEmail(context.Background(), code); err != nil {
		t.Fatalf("verify at expiresAt-1s failed: %v", err)
	}

	// Fresh account, clock one second past expiry: must fail.
	created2, _, _ := svc.Signup(context.Background(), "hank@x.com", "pw123456", "Hank")
	svc.now = func() time.Time { return created2.VerificationTokenExpiresAt.Add(time.Second) }
	if _, err := svc.VerifyEmail(context.Background(), created2.VerificationToken); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid at expiresAt+1s, got %v", err)
	}
}

func TestAccountService_VerifyEmail_WrongCode(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, _ = svc.Signup(context.Background(), "iris@x.com", "pw123456", "Iris")

	if _, err := svc.VerifyEmail(context.Background(), "000000"); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.VerifyEmail(context.Background(), ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty code, got %v", err)
	}
}

// forgotPassword reveals account existence while login does not. Asymmetric
// on purpose; this test documents the behavior rather than fixing it.
func TestAccountService_ForgotPassword_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.ForgotPassword(context.Background(), "ghost@x.com"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAccountService_ForgotPassword_Success(t *testing.T) {
	svc, repo, queue := newTestService()
	created, _, _ := svc.Signup(context.Background(), "judy@x.com", "pw123456", "Judy")

	if err := svc.ForgotPassword(context.Background(), "judy@x.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), created.ID)
	if !stored.ResetPending() {
		t.Fatalf("reset fields not set")
	}
	if len(stored.ResetPasswordToken) != 40 {
		t.Fatalf("expected 40-char hex token, got %q", stored.ResetPasswordToken)
	}

	last := queue.tasks[len(queue.tasks)-1]
	if last.Kind != ports.MailReset {
		t.Fatalf("expected reset mail task, got %+v", last)
	}
	want := "http://localhost:5173/reset-password/" + stored.ResetPasswordToken
	if last.URL != want {
		t.Fatalf("reset url mismatch: got %q want %q", last.URL, want)
	}
}

func TestAccountService_ResetPassword_Flow(t *testing.T) {
	svc, repo, queue := newTestService()
	created, _, _ := svc.Signup(context.Background(), "kate@x.com", "oldpass", "Kate")
	_ = svc.ForgotPassword(context.Background(), "kate@x.com")
	stored, _ := repo.FindByID(context.Background(), created.ID)
	token := stored.ResetPasswordToken

	if err := svc.ResetPassword(context.Background(), token, "newpw"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "kate@x.com", "newpw"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "kate@x.com", "oldpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password still accepted: %v", err)
	}

	// Token is single-use.
	if err := svc.ResetPassword(context.Background(), token, "again"); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid on reuse, got %v", err)
	}

	last := queue.tasks[len(queue.tasks)-1]
	if last.Kind != ports.MailResetSuccess || last.Email != "kate@x.com" {
		t.Fatalf("unexpected reset-success task: %+v", last)
	}
}

// The reset sub-machine is orthogonal to verification: consuming a reset token
// leaves a pending verification untouched, and vice versa.
func TestAccountService_ResetIndependentOfVerification(t *testing.T) {
	svc, repo, _ := newTestService()
	created, _, _ := svc.Signup(context.Background(), "lena@x.com", "pw123456", "Lena")
	_ = svc.ForgotPassword(context.Background(), "lena@x.com")
	stored, _ := repo.FindByID(context.Background(), created.ID)

	if err := svc.ResetPassword(context.Background(), stored.ResetPasswordToken, "fresh"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	after, _ := repo.FindByID(context.Background(), created.ID)
	if !after.VerificationPending() {
		t.Fatalf("verification fields were disturbed by reset")
	}
	if after.IsVerified {
		t.Fatalf("reset must not verify the account")
	}
	if _, err := svc.VerifyEmail(context.Background(), after.VerificationToken); err != nil {
		t.Fatalf("verification after reset failed: %v", err)
	}
}

func TestAccountService_ResetPassword_InvalidToken(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.ResetPassword(context.Background(), "deadbeef", "pw"); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if err := svc.ResetPassword(context.Background(), "", "pw"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAccountService_CheckAuth(t *testing.T) {
	svc, _, _ := newTestService()
	created, _, _ := svc.Signup(context.Background(), "mia@x.com", "pw123456", "Mia")

	user, err := svc.CheckAuth(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("check auth failed: %v", err)
	}
	if user.Email != "mia@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.CheckAuth(context.Background(), "missing"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
