package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkaraca/session-service/internal/user"
	"github.com/mkaraca/session-service/internal/utils"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// TokenPair is an access/refresh token set issued together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult carries the token pair plus the authenticated user.
type LoginResult struct {
	TokenPair
	User *user.User
}

type SessionService interface {
	LogIn(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	LogOut(ctx context.Context, refreshToken string) error
	CleanUpOldTokens(ctx context.Context, userID uint, maxTokens int) error
}

type sessionService struct {
	users           user.UserService
	records         RecordRepository
	logger          *zap.Logger
	accessSecret    string
	refreshSecret   string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	maxTokens       int
}

func NewSessionService(
	users user.UserService,
	records RecordRepository,
	logger *zap.Logger,
	cfg *utils.TokenConfig,
) SessionService {
	return &sessionService{
		users:           users,
		records:         records,
		logger:          logger,
		accessSecret:    cfg.AccessTokenSecret,
		refreshSecret:   cfg.RefreshTokenSecret,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		maxTokens:       cfg.MaxRefreshTokens,
	}
}

// LogIn verifies credentials and opens a fresh rotation family. Unknown
// email and wrong password return the same error, so callers cannot
// enumerate accounts.
func (s *sessionService) LogIn(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.ReadUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.users.CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}

	familyID := uuid.NewString()

	pair, err := s.generateTokenPair(u.ID)
	if err != nil {
		return nil, err
	}

	if err := s.CleanUpOldTokens(ctx, u.ID, s.maxTokens-1); err != nil {
		return nil, err
	}
	record := &RefreshTokenRecord{
		Token:     pair.RefreshToken,
		UserID:    u.ID,
		FamilyID:  familyID,
		IsRevoked: false,
		ExpiresAt: time.Now().Add(s.refreshTokenTTL),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	return &LoginResult{TokenPair: *pair, User: u}, nil
}

// Refresh rotates the presented refresh token: the stored record is revoked
// and a replacement is issued under the same family. Presenting an
// already-revoked token is treated as theft and revokes the whole family.
// Every failure surfaces as ErrInvalidRefreshToken.
func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := s.rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil, err
		}
		// fail closed: internal detail never leaks on the auth path
		s.logger.Error("refresh failed", zap.Error(err))
		return nil, ErrInvalidRefreshToken
	}
	return pair, nil
}

func (s *sessionService) rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if _, err := utils.ParseRefreshToken(refreshToken, s.refreshSecret); err != nil {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.records.ReadByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRecordNotFoundByGivenToken) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if stored.IsRevoked {
		// token reuse detected: the legitimate chain was already advanced
		// or compromised, so the whole family goes
		s.logger.Warn("refresh token reuse detected",
			zap.Uint("userID", stored.UserID),
			zap.String("familyID", stored.FamilyID),
		)
		if err := s.records.RevokeFamily(ctx, stored.FamilyID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.users.ReadUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	pair, err := s.generateTokenPair(u.ID)
	if err != nil {
		return nil, err
	}

	stored.IsRevoked = true
	if err := s.records.Save(ctx, stored); err != nil {
		return nil, err
	}

	if err := s.CleanUpOldTokens(ctx, u.ID, s.maxTokens-1); err != nil {
		return nil, err
	}
	record := &RefreshTokenRecord{
		Token:     pair.RefreshToken,
		UserID:    u.ID,
		FamilyID:  stored.FamilyID,
		IsRevoked: false,
		ExpiresAt: time.Now().Add(s.refreshTokenTTL),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	return pair, nil
}

// LogOut revokes the whole family of the supplied token. Missing or unknown
// tokens are a no-op; logout never fails the request over a bad token.
func (s *sessionService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	stored, err := s.records.ReadByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRecordNotFoundByGivenToken) {
			return nil
		}
		return err
	}
	return s.records.RevokeFamily(ctx, stored.FamilyID)
}

// CleanUpOldTokens walks the user's records from most-future expiry to
// soonest. The first maxTokens unrevoked, unexpired records are kept; every
// revoked, expired, or over-cap record is deleted on the spot. The walk
// direction retires the soonest-to-expire session last; the ordering is
// load-bearing for which session survives the cap.
func (s *sessionService) CleanUpOldTokens(ctx context.Context, userID uint, maxTokens int) error {
	records, err := s.records.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}

	active := 0
	now := time.Now()
	for i := range records {
		record := &records[i]
		if active >= maxTokens || record.IsRevoked || !record.ExpiresAt.After(now) {
			if err := s.records.Delete(ctx, record.ID); err != nil {
				return err
			}
			continue
		}
		active++
	}
	return nil
}

func (s *sessionService) generateTokenPair(userID uint) (*TokenPair, error) {
	subject := strconv.Itoa(int(userID))

	access, err := utils.IssueAccessToken(subject, s.accessSecret, s.accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.IssueRefreshToken(subject, uuid.NewString(), s.refreshSecret, s.refreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
