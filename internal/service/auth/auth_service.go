// Package auth 提供用户注册、密码校验和 JWT 令牌签发
package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/i18n"
	"github.com/weiwangfds/notebox/internal/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxUsernameLength = 150
	// bcrypt 不接受更长的输入
	maxPasswordBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// AuthService 认证服务接口
// 定义了账户和令牌相关的业务操作
type AuthService interface {
	// Register 注册用户，密码以 bcrypt 哈希保存
	// 参数:
	//   req - 注册请求
	// 返回:
	//   *UserResponse - 新用户（不含密码）
	//   error - 用户名重复或格式错误时为校验错误
	Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error)

	// Login 校验用户名和密码，签发新的令牌对
	// 返回:
	//   *TokenPair - access 与 refresh 令牌
	//   error - 凭证错误时为 ErrInvalidCredentials
	Login(ctx context.Context, req *LoginRequest) (*TokenPair, error)

	// Refresh 用 refresh 令牌换取新的 access 令牌
	Refresh(ctx context.Context, refreshToken string) (*AccessResponse, error)

	// Authenticate 将 access 令牌解析为当前用户，用户必须仍然存在
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)

	// GetUser 获取用户公开信息
	GetUser(ctx context.Context, userID uint) (*UserResponse, error)

	// DeleteUser 删除用户及其全部笔记和标签关联
	// 参数:
	//   username - 用户名
	// 返回:
	//   error - 用户不存在时为 ErrNotFound
	DeleteUser(ctx context.Context, username string) error
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,max=128"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// AccessResponse 刷新令牌响应
type AccessResponse struct {
	Access string `json:"access"`
}

// UserResponse 用户公开信息
type UserResponse struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	DateJoined time.Time `json:"date_joined"`
}

// Principal 已认证的调用方
type Principal struct {
	UserID   uint
	Username string
}

type authService struct {
	db         *gorm.DB
	tokens     *TokenManager
	bcryptCost int
}

// NewAuthService 创建认证服务实例
// 参数:
//   db - 数据库实例
//   tokens - 令牌管理器
//   bcryptCost - bcrypt 计算成本
// 返回:
//   AuthService - 认证服务接口实现
func NewAuthService(db *gorm.DB, tokens *TokenManager, bcryptCost int) AuthService {
	return &authService{
		db:         db,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func toUserResponse(u *database.User) *UserResponse {
	return &UserResponse{ID: u.ID, Username: u.Username, DateJoined: u.CreatedAt}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	tr := i18n.GetInstance()
	lang := tr.GetDefaultLanguage()

	verr := apperrors.Newf(apperrors.ErrValidation)
	switch {
	case req.Username == "":
		verr.WithField("username", tr.Translate("field_blank", lang))
	case len([]rune(req.Username)) > maxUsernameLength:
		verr.WithField("username", tr.Translatef("field_too_long", lang, maxUsernameLength))
	case !usernamePattern.MatchString(req.Username):
		verr.WithField("username", tr.Translate("username_invalid", lang))
	}
	switch {
	case req.Password == "":
		verr.WithField("password", tr.Translate("field_blank", lang))
	case len(req.Password) > maxPasswordBytes:
		verr.WithField("password", tr.Translatef("password_too_long", lang, maxPasswordBytes))
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&database.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}
	if count > 0 {
		return nil, apperrors.Validation("username", tr.Translate("username_taken", lang))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, "hash password", err)
	}

	user := &database.User{Username: req.Username, Password: string(hash)}
	if err := db.Create(user).Error; err != nil {
		// 与并发注册竞争失败
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Validation("username", tr.Translate("username_taken", lang))
		}
		return nil, apperrors.Internal(apperrors.ErrDatabaseInsert, err)
	}

	logger.WithField("user_id", user.ID).Infof("registered user %s", user.Username)
	return toUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*TokenPair, error) {
	var user database.User
	err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.Newf(apperrors.ErrInvalidCredentials)
		}
		return nil, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidCredentials)
	}

	pair, err := s.tokens.IssuePair(&user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, "sign token", err)
	}
	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AccessResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrTokenInvalid)
	}

	user, err := s.findByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, "sign token", err)
	}
	return &AccessResponse{Access: access}, nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.Parse(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrTokenInvalid)
	}

	user, err := s.findByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &Principal{UserID: user.ID, Username: user.Username}, nil
}

// findByID 用户不存在时返回 ErrTokenInvalid，调用方持有的是该用户的令牌
func (s *authService) findByID(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.Newf(apperrors.ErrTokenInvalid)
		}
		return nil, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}
	return &user, nil
}

func (s *authService) GetUser(ctx context.Context, userID uint) (*UserResponse, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.NotFound()
		}
		return nil, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}
	return toUserResponse(&user), nil
}

func (s *authService) DeleteUser(ctx context.Context, username string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user database.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return err
		}

		owned := tx.Model(&database.Note{}).Select("id").Where("owner_id = ?", user.ID)
		if err := tx.Where("note_id IN (?)", owned).Delete(&database.NoteTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", user.ID).Delete(&database.Note{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if database.IsNotFound(err) {
			return apperrors.NotFound()
		}
		return apperrors.Internal(apperrors.ErrDatabaseTransaction, err)
	}

	logger.Infof("deleted user %s", username)
	return nil
}
