package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/novak29/thrive/internal/domain"
	"github.com/novak29/thrive/internal/repository"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCreds covers unknown email, wrong password and deactivated
	// accounts. Callers must not distinguish between them.
	ErrInvalidCreds = errors.New("invalid email or password")
	ErrUserNotFound = errors.New("user not found")
)

type AuthService struct {
	userRepo   repository.UserRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// NormalizeEmail lowercases and trims an address so lookups and the unique
// index are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := NormalizeEmail(input.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email, false)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Profile: domain.Profile{
			FullName: strings.TrimSpace(input.FullName),
		},
		MembershipPlan: domain.PlanFree,
		Preferences:    domain.DefaultPreferences(),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Phone != "" {
		phone := strings.TrimSpace(input.Phone)
		user.Profile.Phone = &phone
	}
	if input.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", input.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("parsing date of birth: %w", err)
		}
		user.Profile.DateOfBirth = &dob
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique index is the authority: a concurrent registration may
		// slip past the pre-check above.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	if err := s.touchLastLogin(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(input.Email), true)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCreds
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCreds
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	if err := s.touchLastLogin(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	user.EmailVerificationToken = ""
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

type UpdateProfileInput struct {
	FullName    *string          `json:"fullName"`
	AvatarURL   *string          `json:"avatarUrl"`
	Phone       *string          `json:"phone"`
	DateOfBirth *string          `json:"dateOfBirth"`
	Location    *domain.Location `json:"location"`
	Bio         *string          `json:"bio"`
	Interests   *[]string        `json:"interests"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	patch := domain.ProfilePatch{
		FullName:  input.FullName,
		AvatarURL: input.AvatarURL,
		Phone:     input.Phone,
		Location:  input.Location,
		Bio:       input.Bio,
		Interests: input.Interests,
	}
	if input.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *input.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("parsing date of birth: %w", err)
		}
		patch.DateOfBirth = &dob
	}

	if patch.IsEmpty() {
		return s.GetProfile(ctx, userID)
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) generateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(s.tokenTTL).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) touchLastLogin(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	user.LastLogin = &now
	return nil
}
