package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zohouse/questbot/internal/models"
	"github.com/zohouse/questbot/internal/repository"
)

var (
	ErrWalletInvalid = errors.New("wallet address invalid")
	ErrBadUserRef    = errors.New("user reference is neither @username nor numeric id")
)

var walletPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Ensure(ctx context.Context, id int64, username, firstName, lastName string) (*models.User, bool, error) {
	user, created, err := s.users.Ensure(ctx, id, username, firstName, lastName)
	if err != nil {
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}
	return user, created, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// Lookup resolves an admin-supplied user reference, "@username" or a numeric
// Telegram ID, to the stored user. A missing user returns (nil, nil).
func (s *UserService) Lookup(ctx context.Context, ref string) (*models.User, error) {
	id, username, err := ParseUserRef(ref)
	if err != nil {
		return nil, err
	}
	if username != "" {
		return s.users.FindByUsername(ctx, username)
	}
	return s.users.FindByID(ctx, id)
}

// ParseUserRef splits a user reference into either a numeric ID or a
// username (without the @).
func ParseUserRef(ref string) (int64, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, "", ErrBadUserRef
	}
	if strings.HasPrefix(ref, "@") {
		username := strings.TrimPrefix(ref, "@")
		if username == "" {
			return 0, "", ErrBadUserRef
		}
		return 0, username, nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", ErrBadUserRef
	}
	return id, "", nil
}

// SetWallet validates and stores an EVM wallet address for the user.
func (s *UserService) SetWallet(ctx context.Context, id int64, raw string) (string, error) {
	wallet, ok := NormalizeWallet(raw)
	if !ok {
		return "", ErrWalletInvalid
	}
	if err := s.users.SetWallet(ctx, id, wallet); err != nil {
		return "", fmt.Errorf("set wallet: %w", err)
	}
	return wallet, nil
}

// NormalizeWallet strips surrounding noise from a pasted address and checks
// the 0x-prefixed 40-hex-digit form.
func NormalizeWallet(raw string) (string, bool) {
	wallet := strings.TrimSpace(raw)
	wallet = strings.Trim(wallet, `"'`)
	wallet = strings.TrimSuffix(wallet, ".")
	if !walletPattern.MatchString(wallet) {
		return "", false
	}
	return wallet, true
}
