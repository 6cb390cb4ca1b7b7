package user

import (
	"context"
	"testing"

	"maggram/internal/apperr"
	"maggram/internal/common"
	"maggram/internal/dbmysql"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newServiceWithMocks(t *testing.T) (UserService, *MockUserRepository, *MockFollowRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	userRepo := NewMockUserRepository(ctrl)
	followRepo := NewMockFollowRepository(ctrl)
	return NewUserService(userRepo, followRepo), userRepo, followRepo
}

func TestRegisterUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		handle   string
		email    string
		password string
	}{
		{"handle too short", "ab", "a@b.com", "secret123"},
		{"handle with spaces", "bad handle", "a@b.com", "secret123"},
		{"password too short", "gopher", "a@b.com", "12345"},
		{"invalid email", "gopher", "not-an-email", "secret123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newServiceWithMocks(t)
			_, _, err := svc.RegisterUser(context.Background(), tt.handle, tt.email, tt.password)
			require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
		})
	}
}

func TestRegisterUser_DuplicateHandle(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	userRepo.EXPECT().CheckUserExists(gomock.Any(), "gopher").Return(true, nil)

	_, _, err := svc.RegisterUser(context.Background(), "gopher", "a@b.com", "secret123")
	require.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(err))
}

func TestRegisterUser_Success(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	userRepo.EXPECT().CheckUserExists(gomock.Any(), "gopher").Return(false, nil)
	userRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *dbmysql.User) error {
			u.UserID = 7
			return nil
		})

	user, token, err := svc.RegisterUser(context.Background(), "gopher", "a@b.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.EqualValues(t, 7, user.UserID)
	require.Equal(t, "active", user.Status)

	// Password is stored hashed, never in the clear.
	require.NotEqual(t, "secret123", user.PasswordHash)
	require.NoError(t, common.CheckPassword("secret123", user.PasswordHash))
}

func TestLoginUser_UnknownHandle(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	userRepo.EXPECT().GetUserByHandle(gomock.Any(), "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := svc.LoginUser(context.Background(), "ghost", "whatever1")
	require.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	// Same message as a wrong password, so handle existence leaks nothing.
	require.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginUser_WrongPassword(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	hash, err := common.HashPassword("correct-horse")
	require.NoError(t, err)
	userRepo.EXPECT().GetUserByHandle(gomock.Any(), "gopher").
		Return(&dbmysql.User{UserID: 7, Handle: "gopher", PasswordHash: hash}, nil)

	_, _, err = svc.LoginUser(context.Background(), "gopher", "wrong-horse")
	require.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	require.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginUser_Success(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	hash, err := common.HashPassword("correct-horse")
	require.NoError(t, err)
	userRepo.EXPECT().GetUserByHandle(gomock.Any(), "gopher").
		Return(&dbmysql.User{UserID: 7, Handle: "gopher", PasswordHash: hash}, nil)

	user, token, err := svc.LoginUser(context.Background(), "gopher", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.EqualValues(t, 7, user.UserID)

	claims, err := common.ValidToken(token)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims.UserID)
	require.Equal(t, "gopher", claims.Handle)
}

func TestGetProfile_NotFound(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	userRepo.EXPECT().GetUserByID(gomock.Any(), uint64(42)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetProfile(context.Background(), 42)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestUpdateProfile(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	stored := &dbmysql.User{UserID: 7, Handle: "gopher", Email: "old@b.com"}
	userRepo.EXPECT().GetUserByID(gomock.Any(), uint64(7)).Return(stored, nil)
	userRepo.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *dbmysql.User) error {
			require.Equal(t, "new@b.com", u.Email)
			require.Equal(t, "hello", u.Bio)
			return nil
		})

	err := svc.UpdateProfile(context.Background(), 7, "new@b.com", "hello")
	require.NoError(t, err)
}

func TestUpdateProfile_InvalidEmail(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	userRepo.EXPECT().GetUserByID(gomock.Any(), uint64(7)).
		Return(&dbmysql.User{UserID: 7, Handle: "gopher"}, nil)

	err := svc.UpdateProfile(context.Background(), 7, "not-an-email", "")
	require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestFollowUser_SelfFollow(t *testing.T) {
	svc, _, _ := newServiceWithMocks(t)

	err := svc.FollowUser(context.Background(), 7, 7)
	require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestFollowUser_FolloweeMissing(t *testing.T) {
	svc, userRepo, _ := newServiceWithMocks(t)

	userRepo.EXPECT().GetUserByID(gomock.Any(), uint64(9)).Return(nil, gorm.ErrRecordNotFound)

	err := svc.FollowUser(context.Background(), 7, 9)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestFollowUser_Success(t *testing.T) {
	svc, userRepo, followRepo := newServiceWithMocks(t)

	userRepo.EXPECT().GetUserByID(gomock.Any(), uint64(9)).
		Return(&dbmysql.User{UserID: 9, Handle: "other"}, nil)
	followRepo.EXPECT().Follow(gomock.Any(), uint64(7), uint64(9)).Return(nil)

	require.NoError(t, svc.FollowUser(context.Background(), 7, 9))
}

func TestUnfollowUser(t *testing.T) {
	svc, _, followRepo := newServiceWithMocks(t)

	followRepo.EXPECT().Unfollow(gomock.Any(), uint64(7), uint64(9)).Return(nil)

	require.NoError(t, svc.UnfollowUser(context.Background(), 7, 9))
}

func TestListFollowers(t *testing.T) {
	svc, _, followRepo := newServiceWithMocks(t)

	followRepo.EXPECT().ListFollowers(gomock.Any(), uint64(7)).
		Return([]*dbmysql.User{{UserID: 9, Handle: "other"}}, nil)

	users, err := svc.ListFollowers(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "other", users[0].Handle)
}
