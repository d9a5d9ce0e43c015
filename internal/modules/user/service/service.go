package user

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	userDto "github.com/haleyhq/pulseboard/internal/modules/user/dto"
	userRepo "github.com/haleyhq/pulseboard/internal/modules/user/repository"
	"github.com/haleyhq/pulseboard/pkg/apperror"
)

type AuthService interface {
	Login(ctx context.Context, req userDto.LoginRequest) (*userDto.LoginResponse, error)
}

type authService struct {
	userRepo    userRepo.UserRepository
	companyRepo companyRepo.CompanyRepository
	jwtSecret   string
	tokenTTL    time.Duration
}

func NewAuthService(userRepo userRepo.UserRepository, companyRepo companyRepo.CompanyRepository, jwtSecret string) AuthService {
	return &authService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		jwtSecret:   jwtSecret,
		tokenTTL:    24 * time.Hour,
	}
}

func (s *authService) Login(ctx context.Context, req userDto.LoginRequest) (*userDto.LoginResponse, error) {
	company, err := s.companyRepo.FindBySlug(ctx, req.CompanySlug)
	if err != nil {
		return nil, fmt.Errorf("unknown company: %w", apperror.ErrUnauthorized)
	}

	user, err := s.userRepo.FindByEmail(ctx, company.ID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        user.ID.String(),
		"company_id": user.CompanyID.String(),
		"role":       user.Role,
		"iat":        now.Unix(),
		"exp":        now.Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &userDto.LoginResponse{
		Token: token,
		User: userDto.UserResponse{
			ID:        user.ID.String(),
			Email:     user.Email,
			Name:      user.Name,
			Title:     user.Title,
			Role:      user.Role,
			AvatarURL: user.AvatarURL,
		},
	}, nil
}
