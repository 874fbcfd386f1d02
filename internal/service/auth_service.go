package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type authUserRepository interface {
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

type authStudentRepository interface {
	All(ctx context.Context) ([]models.Student, error)
}

// AuthConfig defines configuration for issued access tokens.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService resolves sign-in credentials to a role and landing page.
type AuthService struct {
	users     authUserRepository
	students  authStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, students authStudentRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{users: users, students: students, validator: validate, logger: logger, config: config}
}

// Authenticate checks the credentials against every admin and then every
// student. The selected role only affects the failure message.
func (s *AuthService) Authenticate(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "username and password are required")
	}
	role := req.Role
	if role == "" {
		role = models.LoginRoleStudent
	}

	admins, err := s.users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, appErrors.Internal(err, "could not connect to the credential store")
	}
	students, err := s.students.All(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "could not connect to the credential store")
	}

	for i := range admins {
		admin := &admins[i]
		if (strings.EqualFold(admin.Email, req.Username) || admin.Name == req.Username) && passwordMatches(admin.PasswordHash, req.Password) {
			return s.issue(&models.JWTClaims{UserID: admin.ID, Role: models.RoleAdmin, Name: admin.Name, Email: admin.Email}, &models.LoginResult{
				Role:     models.LoginRoleAdmin,
				Redirect: "/admin/hub",
			})
		}
	}

	for i := range students {
		st := &students[i]
		if st.ID == req.Username && passwordMatches(st.PasswordHash, req.Password) {
			claims := &models.JWTClaims{UserID: st.ID, Role: models.RoleStudent, Name: st.Name}
			if st.Email != nil {
				claims.Email = *st.Email
			}
			return s.issue(claims, &models.LoginResult{
				Role:       models.LoginRoleStudent,
				RedirectID: st.ID,
				Redirect:   "/dashboard/profile?id=" + st.ID,
			})
		}
	}

	s.logger.Info("login rejected", zap.String("username", req.Username), zap.String("role", role))
	return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, fmt.Sprintf("invalid username or password for %s role", role))
}

func (s *AuthService) issue(claims *models.JWTClaims, result *models.LoginResult) (*models.LoginResult, error) {
	token, err := s.generateAccessToken(claims)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	result.AccessToken = token
	result.ExpiresIn = int64(s.config.AccessTokenExpiry.Seconds())
	return result, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(claims *models.JWTClaims) (string, error) {
	issuedAt := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func passwordMatches(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
