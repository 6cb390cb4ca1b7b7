package user

import (
	"context"
	"errors"

	"maggram/internal/apperr"
	"maggram/internal/common"
	"maggram/internal/dbmysql"

	"gorm.io/gorm"
)

type UserService interface {
	RegisterUser(ctx context.Context, handle, email, password string) (*dbmysql.User, string, error)
	LoginUser(ctx context.Context, handle, password string) (*dbmysql.User, string, error)
	GetProfile(ctx context.Context, userID uint64) (*dbmysql.User, error)
	UpdateProfile(ctx context.Context, userID uint64, email, bio string) error
	FollowUser(ctx context.Context, followerID, followeeID uint64) error
	UnfollowUser(ctx context.Context, followerID, followeeID uint64) error
	ListFollowers(ctx context.Context, userID uint64) ([]*dbmysql.User, error)
	ListFollowing(ctx context.Context, userID uint64) ([]*dbmysql.User, error)
}

type userService struct {
	userRepo   UserRepository
	followRepo FollowRepository
}

func NewUserService(userRepo UserRepository, followRepo FollowRepository) UserService {
	return &userService{userRepo: userRepo, followRepo: followRepo}
}

func (s *userService) RegisterUser(ctx context.Context, handle, email, password string) (*dbmysql.User, string, error) {
	if err := common.ValidateHandle(handle); err != nil {
		return nil, "", apperr.InvalidArg(err.Error())
	}
	if err := common.ValidateEmail(email); err != nil {
		return nil, "", apperr.InvalidArg(err.Error())
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, "", apperr.InvalidArg(err.Error())
	}

	exists, err := s.userRepo.CheckUserExists(ctx, handle)
	if err != nil {
		return nil, "", apperr.Internal("user lookup failed", err)
	}
	if exists {
		return nil, "", apperr.AlreadyExists("handle already exists")
	}

	hashed, err := common.HashPassword(password)
	if err != nil {
		return nil, "", apperr.Internal("password hashing failed", err)
	}

	user := &dbmysql.User{
		Handle:       handle,
		Email:        email,
		PasswordHash: hashed,
		Status:       "active",
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, "", apperr.Internal("user create failed", err)
	}

	token, err := common.GenerateToken(user.UserID, user.Handle)
	if err != nil {
		return nil, "", apperr.Internal("token generation failed", err)
	}

	return user, token, nil
}

func (s *userService) LoginUser(ctx context.Context, handle, password string) (*dbmysql.User, string, error) {
	if handle == "" || password == "" {
		return nil, "", apperr.InvalidArg("handle and password required")
	}

	user, err := s.userRepo.GetUserByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.Unauthorized("invalid credentials")
		}
		return nil, "", apperr.Internal("user lookup failed", err)
	}

	if err := common.CheckPassword(password, user.PasswordHash); err != nil {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}

	token, err := common.GenerateToken(user.UserID, user.Handle)
	if err != nil {
		return nil, "", apperr.Internal("token generation failed", err)
	}
	return user, token, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint64) (*dbmysql.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("user lookup failed", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint64, email, bio string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if email != "" {
		if err := common.ValidateEmail(email); err != nil {
			return apperr.InvalidArg(err.Error())
		}
		user.Email = email
	}
	if bio != "" {
		user.Bio = bio
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return apperr.Internal("profile update failed", err)
	}
	return nil
}

func (s *userService) FollowUser(ctx context.Context, followerID, followeeID uint64) error {
	if followerID == followeeID {
		return apperr.InvalidArg("cannot follow yourself")
	}

	if _, err := s.GetProfile(ctx, followeeID); err != nil {
		return err
	}

	if err := s.followRepo.Follow(ctx, followerID, followeeID); err != nil {
		return apperr.Internal("follow failed", err)
	}
	return nil
}

func (s *userService) UnfollowUser(ctx context.Context, followerID, followeeID uint64) error {
	if err := s.followRepo.Unfollow(ctx, followerID, followeeID); err != nil {
		return apperr.Internal("unfollow failed", err)
	}
	return nil
}

func (s *userService) ListFollowers(ctx context.Context, userID uint64) ([]*dbmysql.User, error) {
	users, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("follower query failed", err)
	}
	return users, nil
}

func (s *userService) ListFollowing(ctx context.Context, userID uint64) ([]*dbmysql.User, error) {
	users, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("following query failed", err)
	}
	return users, nil
}
