package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/feedline/auth-server/internal/metrics"
	"github.com/feedline/auth-server/internal/mocks"
	"github.com/feedline/auth-server/internal/model"
	"github.com/feedline/auth-server/internal/testutil"
	"github.com/feedline/auth-server/internal/token"
)

// passthroughTx runs the callback without any real transaction.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type authFixture struct {
	users    *mocks.UserStore
	tokens   *mocks.RefreshTokenStore
	verifier *mocks.CredentialVerifier
	issuer   *mocks.TokenIssuer
	auth     *Auth
}

func newAuthFixture(t *testing.T) *authFixture {
	f := &authFixture{
		users:    mocks.NewUserStore(t),
		tokens:   mocks.NewRefreshTokenStore(t),
		verifier: mocks.NewCredentialVerifier(t),
		issuer:   mocks.NewTokenIssuer(t),
	}
	f.auth = NewAuth(
		f.users, f.tokens, f.verifier, f.issuer, passthroughTx{},
		metrics.New(prometheus.NewRegistry()), testutil.MakeNoopLogger(),
		Windows{Default: 7 * 24 * time.Hour, Extended: 30 * 24 * time.Hour},
	)
	return f
}

func TestAuth_Login_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := model.User{ID: uuid.New(), Email: "a@b.c", PasswordEpoch: 3}

	f.users.On("GetByEmail", mock.Anything, "a@b.c").Return(user, nil)
	f.verifier.On("VerifyPassword", mock.Anything, user.ID, "correct horse").Return(nil)
	f.issuer.On("IssueAccessToken", user.ID, 3).Return("at", int64(900), nil)
	f.issuer.On("IssueRefreshSecret").Return("secret", nil)
	f.tokens.On("Insert", mock.Anything, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.UserID == user.ID && rt.ParentID == nil
	})).Return(nil)
	f.verifier.On("ResetFailureCounter", mock.Anything, user.ID).Return(nil)

	sess, err := f.auth.Login(ctx, "a@b.c", "correct horse", false)
	require.NoError(t, err)
	assert.Equal(t, "at", sess.AccessToken)
	assert.Equal(t, "secret", sess.RefreshSecret)
	assert.Equal(t, int64(900), sess.ExpiresIn)
	assert.False(t, sess.MustChangePassword)
}

func TestAuth_Login_RememberMeExtendsWindow(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := model.User{ID: uuid.New(), Email: "a@b.c"}

	f.users.On("GetByEmail", mock.Anything, "a@b.c").Return(user, nil)
	f.verifier.On("VerifyPassword", mock.Anything, user.ID, "pw").Return(nil)
	f.issuer.On("IssueAccessToken", user.ID, 0).Return("at", int64(900), nil)
	f.issuer.On("IssueRefreshSecret").Return("secret", nil)
	f.tokens.On("Insert", mock.Anything, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.Window() > 29*24*time.Hour
	})).Return(nil)
	f.verifier.On("ResetFailureCounter", mock.Anything, user.ID).Return(nil)

	_, err := f.auth.Login(ctx, "a@b.c", "pw", true)
	require.NoError(t, err)
}

func TestAuth_Login_UnknownEmailIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.users.On("GetByEmail", mock.Anything, "ghost@b.c").Return(model.User{}, model.ErrNotFound)
	// The verifier still gets called with the zero id so the timing matches.
	f.verifier.On("VerifyPassword", mock.Anything, uuid.Nil, "pw").Return(model.ErrInvalidCredentials)

	_, err := f.auth.Login(ctx, "ghost@b.c", "pw", false)
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := model.User{ID: uuid.New(), Email: "a@b.c"}

	f.users.On("GetByEmail", mock.Anything, "a@b.c").Return(user, nil)
	f.verifier.On("VerifyPassword", mock.Anything, user.ID, "wrong").Return(model.ErrInvalidCredentials)

	_, err := f.auth.Login(ctx, "a@b.c", "wrong", false)
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Login_LockedAccount(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := model.User{ID: uuid.New(), Email: "a@b.c"}

	f.users.On("GetByEmail", mock.Anything, "a@b.c").Return(user, nil)
	f.verifier.On("VerifyPassword", mock.Anything, user.ID, "pw").Return(model.ErrAccountLocked)

	_, err := f.auth.Login(ctx, "a@b.c", "pw", false)
	assert.ErrorIs(t, err, model.ErrAccountLocked)
}

func TestAuth_Login_EmptyInput(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.auth.Login(ctx, "", "pw", false)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.auth.Login(ctx, "a@b.c", "", false)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAuth_Login_StoreFailureWrapped(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.users.On("GetByEmail", mock.Anything, "a@b.c").Return(model.User{}, errors.New("connection refused"))

	_, err := f.auth.Login(ctx, "a@b.c", "pw", false)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.NotContains(t, err.Error(), "pw")
}

func TestAuth_Login_MustChangePasswordFlag(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := model.User{ID: uuid.New(), Email: "a@b.c", MustChangePassword: true}

	f.users.On("GetByEmail", mock.Anything, "a@b.c").Return(user, nil)
	f.verifier.On("VerifyPassword", mock.Anything, user.ID, "pw").Return(nil)
	f.issuer.On("IssueAccessToken", user.ID, 0).Return("at", int64(900), nil)
	f.issuer.On("IssueRefreshSecret").Return("secret", nil)
	f.tokens.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.verifier.On("ResetFailureCounter", mock.Anything, user.ID).Return(nil)

	sess, err := f.auth.Login(ctx, "a@b.c", "pw", false)
	require.NoError(t, err)
	assert.True(t, sess.MustChangePassword)
}

func TestAuth_Refresh_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := model.User{ID: uuid.New(), PasswordEpoch: 1}
	now := time.Now()
	parent := model.RefreshToken{
		ID:        model.NewTokenID(),
		UserID:    user.ID,
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(47 * time.Hour),
	}

	f.tokens.On("TryConsume", mock.Anything, token.HashSecret("old-secret")).Return(parent, nil)
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.issuer.On("IssueAccessToken", user.ID, 1).Return("at2", int64(900), nil)
	f.issuer.On("IssueRefreshSecret").Return("new-secret", nil)
	f.tokens.On("Insert", mock.Anything, mock.MatchedBy(func(rt model.RefreshToken) bool {
		// Child inherits the parent's full window, measured from now.
		return rt.ParentID != nil && *rt.ParentID == parent.ID &&
			rt.Window() == parent.Window()
	})).Return(nil)

	sess, err := f.auth.Refresh(ctx, "old-secret")
	require.NoError(t, err)
	assert.Equal(t, "at2", sess.AccessToken)
	assert.Equal(t, "new-secret", sess.RefreshSecret)
}

func TestAuth_Refresh_UnknownTokenMerged(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.tokens.On("TryConsume", mock.Anything, mock.Anything).Return(model.RefreshToken{}, model.ErrNotFound)

	_, err := f.auth.Refresh(ctx, "no-such-secret")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestAuth_Refresh_ExpiredTokenMerged(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.tokens.On("TryConsume", mock.Anything, mock.Anything).Return(model.RefreshToken{}, model.ErrTokenExpired)

	_, err := f.auth.Refresh(ctx, "expired-secret")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestAuth_Refresh_RevokedTokenMerged(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.tokens.On("TryConsume", mock.Anything, mock.Anything).Return(model.RefreshToken{}, model.ErrTokenRevoked)

	_, err := f.auth.Refresh(ctx, "revoked-secret")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestAuth_Refresh_ReplayRevokesFamily(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	owner := uuid.New()
	spent := model.RefreshToken{ID: model.NewTokenID(), UserID: owner, Used: true}

	f.tokens.On("TryConsume", mock.Anything, mock.Anything).Return(spent, model.ErrTokenUsed)
	f.tokens.On("RevokeAllForUser", mock.Anything, owner).Return(int64(4), nil)

	_, err := f.auth.Refresh(ctx, "replayed-secret")
	assert.ErrorIs(t, err, model.ErrTokenReplayDetected)
}

func TestAuth_Refresh_ReplayResponseIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	owner := uuid.New()
	spent := model.RefreshToken{ID: model.NewTokenID(), UserID: owner, Used: true}

	f.tokens.On("TryConsume", mock.Anything, mock.Anything).Return(spent, model.ErrTokenUsed).Twice()
	f.tokens.On("RevokeAllForUser", mock.Anything, owner).Return(int64(4), nil).Once()
	f.tokens.On("RevokeAllForUser", mock.Anything, owner).Return(int64(0), nil).Once()

	_, err := f.auth.Refresh(ctx, "replayed-secret")
	assert.ErrorIs(t, err, model.ErrTokenReplayDetected)
	_, err = f.auth.Refresh(ctx, "replayed-secret")
	assert.ErrorIs(t, err, model.ErrTokenReplayDetected)
}

func TestAuth_Refresh_EmptySecret(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.auth.Refresh(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAuth_Refresh_InsertFailureAborts(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := model.User{ID: uuid.New()}
	parent := model.RefreshToken{ID: model.NewTokenID(), UserID: user.ID, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}

	f.tokens.On("TryConsume", mock.Anything, mock.Anything).Return(parent, nil)
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.issuer.On("IssueAccessToken", user.ID, 0).Return("at", int64(900), nil)
	f.issuer.On("IssueRefreshSecret").Return("s", nil)
	f.tokens.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := f.auth.Refresh(ctx, "secret")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestAuth_ChangePassword_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	id := uuid.New()

	f.verifier.On("VerifyPassword", mock.Anything, id, "old-pw").Return(nil)
	f.verifier.On("SetPassword", mock.Anything, id, "new-pw-longer-12").Return(nil)
	f.tokens.On("RevokeAllForUser", mock.Anything, id).Return(int64(2), nil)

	require.NoError(t, f.auth.ChangePassword(ctx, id, "old-pw", "new-pw-longer-12"))
}

func TestAuth_ChangePassword_WrongCurrent(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	id := uuid.New()

	f.verifier.On("VerifyPassword", mock.Anything, id, "wrong").Return(model.ErrInvalidCredentials)

	err := f.auth.ChangePassword(ctx, id, "wrong", "new-pw-longer-12")
	assert.ErrorIs(t, err, model.ErrInvalidCurrentPassword)
}

func TestAuth_ChangePassword_WeakNewPassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	id := uuid.New()

	f.verifier.On("VerifyPassword", mock.Anything, id, "old-pw").Return(nil)
	f.verifier.On("SetPassword", mock.Anything, id, "short").Return(model.ErrWeakPassword)

	err := f.auth.ChangePassword(ctx, id, "old-pw", "short")
	assert.ErrorIs(t, err, model.ErrWeakPassword)
}

func TestAuth_ChangePassword_Locked(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	id := uuid.New()

	f.verifier.On("VerifyPassword", mock.Anything, id, "old-pw").Return(model.ErrAccountLocked)

	err := f.auth.ChangePassword(ctx, id, "old-pw", "new-pw-longer-12")
	assert.ErrorIs(t, err, model.ErrAccountLocked)
}

func TestAuth_ChangePassword_NilUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	err := f.auth.ChangePassword(ctx, uuid.Nil, "old", "new-pw-longer-12")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAuth_ChangePassword_RevokeFailureAborts(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	id := uuid.New()

	f.verifier.On("VerifyPassword", mock.Anything, id, "old-pw").Return(nil)
	f.verifier.On("SetPassword", mock.Anything, id, "new-pw-longer-12").Return(nil)
	f.tokens.On("RevokeAllForUser", mock.Anything, id).Return(int64(0), errors.New("connection reset"))

	err := f.auth.ChangePassword(ctx, id, "old-pw", "new-pw-longer-12")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}
