package services

import (
	"context"
	"errors"
	"fmt"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/clan"
	"tapEmpireAPI/internal/types/referral"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateClan creates the clan and enrolls the owner as its first
// member. The owner is always a member; RemoveClanMember refuses to
// remove them. Migration passes the staged clan id so retries upsert
// the same row.
func (b *HostedBackend) CreateClan(ctx context.Context, req *clan.CreateClanRequest) (*clan.Clan, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("clan name is required")
	}

	clanID := uuid.New()
	if req.ID != nil {
		clanID = *req.ID
	}

	c := &clan.Clan{}
	query := `
	INSERT INTO clans (id, name, owner_id, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name
	RETURNING id, name, owner_id, created_at
	`
	err := b.db.QueryRow(ctx, query, clanID, req.Name, req.OwnerID).Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create clan: %w", err)
	}

	query = `
	INSERT INTO clan_members (clan_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (clan_id, user_id) DO NOTHING
	`
	if _, err := b.db.Exec(ctx, query, c.ID, req.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to enroll clan owner: %w", err)
	}

	return b.loadClanMembers(ctx, c)
}

func (b *HostedBackend) loadClanMembers(ctx context.Context, c *clan.Clan) (*clan.Clan, error) {
	rows, err := b.db.Query(ctx, `SELECT user_id FROM clan_members WHERE clan_id = $1 ORDER BY user_id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get clan members: %w", err)
	}
	defer rows.Close()

	c.Members = nil
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, fmt.Errorf("failed to scan clan member: %w", err)
		}
		c.Members = append(c.Members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read clan members: %w", err)
	}
	return c, nil
}

func (b *HostedBackend) GetClan(ctx context.Context, clanID string) (*clan.Clan, error) {
	id, err := uuid.Parse(clanID)
	if err != nil {
		return nil, fmt.Errorf("invalid clan id: %w", err)
	}

	c := &clan.Clan{}
	err = b.db.QueryRow(ctx, `SELECT id, name, owner_id, created_at FROM clans WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get clan: %w", err)
	}

	return b.loadClanMembers(ctx, c)
}

func (b *HostedBackend) AddClanMember(ctx context.Context, clanID, userID string) (*clan.Clan, error) {
	c, err := b.GetClan(ctx, clanID)
	if err != nil {
		return nil, err
	}

	query := `
	INSERT INTO clan_members (clan_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (clan_id, user_id) DO NOTHING
	`
	if _, err := b.db.Exec(ctx, query, c.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to add clan member: %w", err)
	}

	return b.loadClanMembers(ctx, c)
}

func (b *HostedBackend) RemoveClanMember(ctx context.Context, clanID, userID string) (*clan.Clan, error) {
	c, err := b.GetClan(ctx, clanID)
	if err != nil {
		return nil, err
	}

	if c.OwnerID == userID {
		return nil, fmt.Errorf("clan owner cannot leave their own clan")
	}

	if _, err := b.db.Exec(ctx, `DELETE FROM clan_members WHERE clan_id = $1 AND user_id = $2`, c.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove clan member: %w", err)
	}

	return b.loadClanMembers(ctx, c)
}

const referralColumns = "id, referrer_id, referred_id, status, created_at, completed_at"

func scanReferral(row pgx.Row) (*referral.Referral, error) {
	r := &referral.Referral{}
	err := row.Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.Status, &r.CreatedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateReferral records a referrer/referred pair in pending status.
// The pair is the de-duplication key: re-creating an existing pair
// (a retried migration does this) is a no-op that returns the
// existing row, whatever its status.
func (b *HostedBackend) CreateReferral(ctx context.Context, referrerID, referredID string) (*referral.Referral, error) {
	if referrerID == referredID {
		return nil, fmt.Errorf("users cannot refer themselves")
	}

	query := `
	INSERT INTO referrals (id, referrer_id, referred_id, status, created_at)
	VALUES ($1, $2, $3, 'pending', NOW())
	ON CONFLICT (referrer_id, referred_id) DO NOTHING
	`
	if _, err := b.db.Exec(ctx, query, uuid.New(), referrerID, referredID); err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	r, err := scanReferral(b.db.QueryRow(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE referrer_id = $1 AND referred_id = $2`,
		referrerID, referredID))
	if err != nil {
		return nil, fmt.Errorf("failed to read back referral: %w", err)
	}
	return r, nil
}

// CompleteReferral transitions a pending referral to completed. The
// transition happens exactly once; completing an already-completed
// referral returns the row unchanged.
func (b *HostedBackend) CompleteReferral(ctx context.Context, referralID string) (*referral.Referral, error) {
	id, err := uuid.Parse(referralID)
	if err != nil {
		return nil, fmt.Errorf("invalid referral id: %w", err)
	}

	query := `
	UPDATE referrals
	SET status = 'completed', completed_at = NOW()
	WHERE id = $1 AND status = 'pending'
	`
	if _, err := b.db.Exec(ctx, query, id); err != nil {
		return nil, fmt.Errorf("failed to complete referral: %w", err)
	}

	r, err := scanReferral(b.db.QueryRow(ctx, `SELECT `+referralColumns+` FROM referrals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read back referral: %w", err)
	}
	return r, nil
}

func (b *HostedBackend) GetReferrals(ctx context.Context, referrerID string) ([]*referral.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE referrer_id = $1 ORDER BY created_at`

	rows, err := b.db.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	defer rows.Close()

	var referrals []*referral.Referral
	for rows.Next() {
		r, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		referrals = append(referrals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read referrals: %w", err)
	}
	return referrals, nil
}
