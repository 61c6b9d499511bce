// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"stress-guru-go/internal/adaptive"
	"stress-guru-go/internal/model"
	"stress-guru-go/internal/repository"
	"stress-guru-go/pkg/hash"
	"stress-guru-go/pkg/log"
	"stress-guru-go/pkg/token"
)

const minPasswordLength = 6

// LoginResult 是登录成功后返回的令牌与用户名。
type LoginResult struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
}

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(ctx context.Context, email, username, password string) (*model.User, error)
	Login(email, password string) (*LoginResult, error)
	ResetPassword(email, newPassword string) error
	GetProfile(userID uint) (*model.User, error)
	Logout(ctx context.Context, tokenString string) error
	IsTokenRevoked(ctx context.Context, tokenString string) (bool, error)
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	kbRepo     repository.KnowledgeBaseRepository
	jwtManager *token.JWTManager
	rdb        *redis.Client
	now        func() time.Time
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, kbRepo repository.KnowledgeBaseRepository, jwtManager *token.JWTManager, rdb *redis.Client) UserService {
	return &userService{
		userRepo:   userRepo,
		kbRepo:     kbRepo,
		jwtManager: jwtManager,
		rdb:        rdb,
		now:        time.Now,
	}
}

// Register 处理用户注册：校验输入、保存用户，并为其初始化自适应知识库。
// 知识库初始化失败时删除刚创建的用户，注册整体失败。
func (s *userService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, invalid("Invalid email format")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("Password must be at least 6 characters long")
	}

	// 1. 检查邮箱是否已注册
	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}
	newUser := &model.User{
		Email:    email,
		Username: username,
		Password: hashedPassword,
		Role:     model.RoleUser,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}

	// 3. 初始化知识库
	if _, err := s.kbRepo.Insert(ctx, adaptive.SeedKnowledgeBase(KnowledgeBaseID(newUser.ID), s.now())); err != nil {
		log.Errorf("[UserService] 初始化知识库失败, email: %s, error: %v", email, err)
		if delErr := s.userRepo.Delete(newUser.ID); delErr != nil {
			log.Errorf("[UserService] 回滚用户失败, email: %s, error: %v", email, delErr)
		}
		return nil, fmt.Errorf("初始化知识库失败: %w", err)
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(email, password string) (*LoginResult, error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	accessToken, refreshToken, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken, Username: user.Username}, nil
}

// ResetPassword 在不需要旧密码的情况下重置密码，新密码不能与旧密码相同。
func (s *userService) ResetPassword(email, newPassword string) error {
	email = strings.TrimSpace(email)
	if email == "" || newPassword == "" {
		return invalid("Email and new_password are required.")
	}
	if len(newPassword) < minPasswordLength {
		return invalid("Password must be at least 6 characters long")
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if hash.CheckPasswordHash(newPassword, user.Password) {
		return invalid("New password must not match the old password.")
	}

	hashedPassword, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	return s.userRepo.Update(user)
}

// GetProfile 根据用户 ID 获取用户详细信息。
func (s *userService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return ErrInvalidToken
	}
	// token 的剩余有效期作为 Redis key 的过期时间
	expiration := claims.TTL(s.now())
	if expiration <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blacklistKey(tokenString), "true", expiration).Err()
}

// IsTokenRevoked 检查 token 是否已在黑名单中。
func (s *userService) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistKey(tokenString)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	// 1. 验证 refresh token 是否有效
	claims, err := s.jwtManager.VerifyRefreshToken(refreshTokenString)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return "", "", ErrUserNotFound
	}

	// 3. 签发新的 token
	return s.issue(user)
}

func (s *userService) issue(user *model.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func blacklistKey(tokenString string) string {
	return "blacklist:" + tokenString
}
