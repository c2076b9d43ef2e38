package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dalvae/upworkinsights/internal/domain"
)

// GetProfile returns the singleton profile, or nil when none has been saved.
func (r *Repository) GetProfile(ctx context.Context) (*domain.UserProfile, error) {
	var (
		p              domain.UserProfile
		skills, tiers  string
		apiKey         sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, skills, hourly_rate, preferred_tiers, min_budget, api_key
		FROM user_profile WHERE id = 1`,
	).Scan(&p.ID, &skills, &p.HourlyRate, &tiers, &p.MinBudget, &apiKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return nil, fmt.Errorf("decode profile skills: %w", err)
	}
	if err := json.Unmarshal([]byte(tiers), &p.PreferredTiers); err != nil {
		return nil, fmt.Errorf("decode preferred tiers: %w", err)
	}
	p.APIKey = apiKey.String

	return &p, nil
}

// SaveProfile creates or replaces the singleton profile row.
func (r *Repository) SaveProfile(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	if profile.PreferredTiers == nil {
		profile.PreferredTiers = []domain.Tier{}
	}

	skills, err := json.Marshal(profile.Skills)
	if err != nil {
		return nil, fmt.Errorf("encode profile skills: %w", err)
	}
	tiers, err := json.Marshal(profile.PreferredTiers)
	if err != nil {
		return nil, fmt.Errorf("encode preferred tiers: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_profile (id, skills, hourly_rate, preferred_tiers, min_budget, api_key)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			skills = excluded.skills,
			hourly_rate = excluded.hourly_rate,
			preferred_tiers = excluded.preferred_tiers,
			min_budget = excluded.min_budget,
			api_key = excluded.api_key`,
		string(skills), profile.HourlyRate, string(tiers), profile.MinBudget,
		nullString(profile.APIKey),
	)
	if err != nil {
		return nil, err
	}

	profile.ID = 1
	return profile, nil
}
