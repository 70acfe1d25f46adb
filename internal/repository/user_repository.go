package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	supabase "github.com/nedpals/supabase-go"

	"github.com/zohouse/questbot/internal/models"
)

type UserRepository struct {
	client *supabase.Client
}

func NewUserRepository(client *supabase.Client) *UserRepository {
	return &UserRepository{client: client}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var results []models.User
	err := r.client.DB.From("users").Select("*").Eq("id", strconv.FormatInt(id, 10)).Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var results []models.User
	err := r.client.DB.From("users").Select("*").Eq("username", username).Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select user by username: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	// joined_at and total_points come from column defaults.
	row := map[string]interface{}{
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	}
	var results []models.User
	if err := r.client.DB.From("users").Insert(row).Execute(&results); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if len(results) > 0 {
		*user = results[0]
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, username, firstName, lastName string) error {
	patch := map[string]interface{}{
		"username":   username,
		"first_name": firstName,
		"last_name":  lastName,
	}
	err := r.client.DB.From("users").Update(patch).Eq("id", strconv.FormatInt(id, 10)).Execute(nil)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// Ensure returns the stored user, creating the row on first contact. The
// second return value reports whether a new row was created.
func (r *UserRepository) Ensure(ctx context.Context, id int64, username, firstName, lastName string) (*models.User, bool, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		if user.Username != username || user.FirstName != firstName || user.LastName != lastName {
			go func() {
				if err := r.UpdateProfile(context.Background(), id, username, firstName, lastName); err != nil {
					slog.Warn("refresh user profile", "user_id", id, "err", err)
				}
			}()
		}
		return user, false, nil
	}
	newUser := &models.User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := r.Create(ctx, newUser); err != nil {
		return nil, false, err
	}
	return newUser, true, nil
}

func (r *UserRepository) SetWallet(ctx context.Context, id int64, wallet string) error {
	patch := map[string]interface{}{"wallet_address": wallet}
	err := r.client.DB.From("users").Update(patch).Eq("id", strconv.FormatInt(id, 10)).Execute(nil)
	if err != nil {
		return fmt.Errorf("set wallet: %w", err)
	}
	return nil
}

// AddPoints increments total_points by delta and returns the new balance.
func (r *UserRepository) AddPoints(ctx context.Context, id int64, delta int) (int, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("user %d not found", id)
	}
	newTotal := user.TotalPoints + delta
	if newTotal < 0 {
		newTotal = 0
	}
	patch := map[string]interface{}{"total_points": newTotal}
	err = r.client.DB.From("users").Update(patch).Eq("id", strconv.FormatInt(id, 10)).Execute(nil)
	if err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return newTotal, nil
}

// Top returns up to limit users with positive points, ranked by points
// descending; ties go to the earliest joiner.
func (r *UserRepository) Top(ctx context.Context, limit int) ([]models.User, error) {
	var results []models.User
	err := r.client.DB.From("users").Select("*").Gt("total_points", "0").Execute(&results)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalPoints != results[j].TotalPoints {
			return results[i].TotalPoints > results[j].TotalPoints
		}
		return results[i].JoinedAt.Before(results[j].JoinedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
