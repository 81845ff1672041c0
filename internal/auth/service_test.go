package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/siriwatk/bookstore-backend/internal/auth"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, u *auth.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, p auth.Profile) error {
	args := m.Called(ctx, id, p)
	return args.Error(0)
}

func (m *MockUserRepository) StoreRefreshToken(ctx context.Context, t *auth.RefreshToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockUserRepository) GetRefreshToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.RefreshToken), args.Error(1)
}

func (m *MockUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func newTestService() (auth.Service, *MockUserRepository, *auth.TokenManager) {
	repo := new(MockUserRepository)
	tokens := auth.NewTokenManager("test-secret", time.Minute, time.Hour)
	return auth.NewService(repo, tokens), repo, tokens
}

func hashedUser(t *testing.T, email, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        email,
		PasswordHash: string(hash),
		Role:         auth.RoleCustomer,
	}
}

func TestService_Register_HashesPassword(t *testing.T) {
	svc, repo, _ := newTestService()

	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
		if u.Email != "somchai@example.com" || u.Role != auth.RoleCustomer {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")) == nil
	})).Return(nil).Once()

	u, err := svc.Register(context.Background(), "somchai@example.com", "s3cret-pass")

	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", u.PasswordHash)
	repo.AssertExpectations(t)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc, repo, _ := newTestService()

	repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*auth.User")).
		Return(auth.ErrEmailExists).
		Once()

	_, err := svc.Register(context.Background(), "somchai@example.com", "s3cret-pass")

	require.ErrorIs(t, err, auth.ErrEmailExists)
}

func TestService_Login_Success(t *testing.T) {
	svc, repo, tokens := newTestService()

	u := hashedUser(t, "somchai@example.com", "s3cret-pass")
	repo.On("GetByEmail", mock.Anything, u.Email).Return(u, nil).Once()
	repo.On("StoreRefreshToken", mock.Anything, mock.MatchedBy(func(rt *auth.RefreshToken) bool {
		return rt.UserID == u.ID && rt.Token != ""
	})).Return(nil).Once()

	got, pair, err := svc.Login(context.Background(), u.Email, "s3cret-pass")

	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	claims, err := tokens.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID.String(), claims.UserID)

	refreshClaims, err := tokens.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, u.ID.String(), refreshClaims.UserID)
	repo.AssertExpectations(t)
}

func TestService_Login_WrongPassword(t *testing.T) {
	svc, repo, _ := newTestService()

	u := hashedUser(t, "somchai@example.com", "s3cret-pass")
	repo.On("GetByEmail", mock.Anything, u.Email).Return(u, nil).Once()

	_, _, err := svc.Login(context.Background(), u.Email, "wrong-pass")

	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	repo.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything)
}

func TestService_Login_UnknownEmail(t *testing.T) {
	svc, repo, _ := newTestService()

	repo.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, auth.ErrNotFound).
		Once()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret-pass")

	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_Refresh_Success(t *testing.T) {
	svc, repo, tokens := newTestService()

	u := hashedUser(t, "somchai@example.com", "s3cret-pass")
	refreshToken, expiresAt, err := tokens.IssueRefreshToken(u.ID)
	require.NoError(t, err)

	repo.On("GetRefreshToken", mock.Anything, refreshToken).
		Return(&auth.RefreshToken{Token: refreshToken, UserID: u.ID, ExpiresAt: expiresAt}, nil).
		Once()
	repo.On("GetByID", mock.Anything, u.ID).Return(u, nil).Once()

	accessToken, err := svc.Refresh(context.Background(), refreshToken)

	require.NoError(t, err)

	claims, err := tokens.ParseAccessToken(accessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID.String(), claims.UserID)
}

func TestService_Refresh_RevokedToken(t *testing.T) {
	svc, repo, _ := newTestService()

	repo.On("GetRefreshToken", mock.Anything, "revoked-token").
		Return(nil, auth.ErrTokenRevoked).
		Once()

	_, err := svc.Refresh(context.Background(), "revoked-token")

	require.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestService_Refresh_UserMismatchRevokesToken(t *testing.T) {
	svc, repo, tokens := newTestService()

	tokenOwner := uuid.Must(uuid.NewV4())
	storedOwner := uuid.Must(uuid.NewV4())
	refreshToken, expiresAt, err := tokens.IssueRefreshToken(tokenOwner)
	require.NoError(t, err)

	repo.On("GetRefreshToken", mock.Anything, refreshToken).
		Return(&auth.RefreshToken{Token: refreshToken, UserID: storedOwner, ExpiresAt: expiresAt}, nil).
		Once()
	repo.On("DeleteRefreshToken", mock.Anything, refreshToken).Return(nil).Once()

	_, err = svc.Refresh(context.Background(), refreshToken)

	require.ErrorIs(t, err, auth.ErrInvalidToken)
	repo.AssertExpectations(t)
}

func TestService_Logout_EmptyTokenIsNoOp(t *testing.T) {
	svc, repo, _ := newTestService()

	err := svc.Logout(context.Background(), "")

	require.NoError(t, err)
	repo.AssertNotCalled(t, "DeleteRefreshToken", mock.Anything, mock.Anything)
}
