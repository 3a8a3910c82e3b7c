package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dan9191/tweet-service/internal/config"
	"github.com/Dan9191/tweet-service/internal/models"
	"github.com/Dan9191/tweet-service/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt can hash
const MaxPasswordBytes = 72

var (
	// ErrUnauthenticated means no credential was presented
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredential means the credential is malformed, expired or tampered
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnauthorized means the caller is known but may not perform the action
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict means the resource already exists
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput means the request failed validation
	ErrInvalidInput = errors.New("invalid input")
)

// InputError is an ErrInvalidInput carrying a client-facing reason
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidInput(reason string) error {
	return &InputError{Reason: reason}
}

// Store is the persistence the service depends on
type Store interface {
	Ping(ctx context.Context) error

	UserExists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserIDByUsername(ctx context.Context, username string) (int64, error)

	FollowsTweetAuthor(ctx context.Context, callerID, tweetID int64) (bool, error)
	Following(ctx context.Context, userID int64) ([]models.Person, error)
	Followers(ctx context.Context, userID int64) ([]models.Person, error)

	Feed(ctx context.Context, userID int64, limit int) ([]models.FeedItem, error)
	TweetStats(ctx context.Context, tweetID int64) (*models.TweetStats, error)
	UserTweets(ctx context.Context, userID int64) ([]models.TweetStats, error)
	TweetLikers(ctx context.Context, tweetID int64) ([]string, error)
	TweetReplies(ctx context.Context, tweetID int64) ([]models.ReplyView, error)
	CreateTweet(ctx context.Context, tweet *models.Tweet) error
	DeleteTweet(ctx context.Context, tweetID, userID int64) error
}

// Service handles business logic
type Service struct {
	repo   Store
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service
func NewService(repo Store, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{repo: repo, log: log, config: cfg}
}

// Health reports whether the backing store is reachable
func (s *Service) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// RegisterInput is the payload of a registration request
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, invalidInput("Username is required")
	}

	exists, err := s.repo.UserExists(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return nil, invalidInput("Password is too short")
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, invalidInput("Password is too long")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		PasswordHash: string(hashedPassword),
		Name:         in.Name,
		Gender:       in.Gender,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login authenticates a user and returns a signed token
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", invalidInput("Invalid user")
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", invalidInput("Invalid password")
	}

	token, err := s.issueToken(user.Username)
	if err != nil {
		return "", err
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return token, nil
}

// caller resolves the authenticated username to its numeric id
func (s *Service) caller(ctx context.Context, username string) (int64, error) {
	id, err := s.repo.UserIDByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrInvalidCredential
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Following lists the display names of the users the caller follows
func (s *Service) Following(ctx context.Context, username string) ([]models.Person, error) {
	id, err := s.caller(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repo.Following(ctx, id)
}

// Followers lists the display names of the caller's followers
func (s *Service) Followers(ctx context.Context, username string) ([]models.Person, error) {
	id, err := s.caller(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repo.Followers(ctx, id)
}
