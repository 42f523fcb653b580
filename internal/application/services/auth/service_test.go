package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"github.com/swapspot/swapspot/internal/infrastructure/sign"
)

type fakeUserRepo struct {
	nextID uint
	byID   map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uint]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range r.byID {
		if u.Email == user.Email {
			return apperr.Conflict("email %s already registered", user.Email)
		}
	}
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.byID[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return apperr.NotFound("user not found")
	}
	stored := *user
	r.byID[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := r.byID[id]; !ok {
		return apperr.NotFound("user not found")
	}
	delete(r.byID, id)
	return nil
}

func newAuthService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	jwt := sign.NewJWTManager("test-secret", time.Hour)
	return NewService(repo, jwt, logger.NewNop()), repo
}

func TestRegisterAndLogin(t *testing.T) {
	service, repo := newAuthService()
	ctx := context.Background()

	resp, err := service.RegisterUser(ctx, RegisterRequest{
		Email:    "anna@example.com",
		Password: "hunter2hunter2",
		Name:     "Anna",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotZero(t, resp.User.ID)

	stored, err := repo.GetByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash, "password must be hashed")

	login, err := service.Login(ctx, LoginRequest{Email: "anna@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _ := newAuthService()
	ctx := context.Background()

	req := RegisterRequest{Email: "anna@example.com", Password: "hunter2hunter2", Name: "Anna"}
	_, err := service.RegisterUser(ctx, req)
	require.NoError(t, err)

	_, err = service.RegisterUser(ctx, req)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service, _ := newAuthService()
	ctx := context.Background()

	_, err := service.RegisterUser(ctx, RegisterRequest{
		Email:    "anna@example.com",
		Password: "hunter2hunter2",
		Name:     "Anna",
	})
	require.NoError(t, err)

	_, err = service.Login(ctx, LoginRequest{Email: "anna@example.com", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	// An unknown email reads the same as a bad password.
	_, err = service.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}

func TestCheckTokenNeverErrors(t *testing.T) {
	service, _ := newAuthService()
	ctx := context.Background()

	resp, err := service.RegisterUser(ctx, RegisterRequest{
		Email:    "anna@example.com",
		Password: "hunter2hunter2",
		Name:     "Anna",
	})
	require.NoError(t, err)

	valid, err := service.CheckToken(ctx, TokenRequest{Token: resp.Token})
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = service.CheckToken(ctx, TokenRequest{Token: "not.a.token"})
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = service.CheckToken(ctx, TokenRequest{})
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestRegisterValidatesInput(t *testing.T) {
	service, _ := newAuthService()

	_, err := service.RegisterUser(context.Background(), RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
		Name:     "A",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(err))
}
