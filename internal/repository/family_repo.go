package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"oyakatsu/internal/database"
	"oyakatsu/internal/models"
)

var (
	// ErrFamilyAtCapacity signals the active-member cap was hit inside the
	// join transaction.
	ErrFamilyAtCapacity = errors.New("family at capacity")
	// ErrMembershipExists signals the user already holds an active
	// membership, detected inside the join transaction.
	ErrMembershipExists = errors.New("active membership exists")
)

// FamilyRepository handles database operations for families and memberships
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
// Invite-code collisions surface this way and are retried by the caller.
func (r *FamilyRepository) IsUniqueViolation(err error) bool {
	return r.db.IsUniqueViolation(err)
}

// CreateFamily creates a family and its owner's parent membership in one
// transaction. A duplicate invite code surfaces as the driver's
// unique-violation error; callers retry with a fresh code.
func (r *FamilyRepository) CreateFamily(name, inviteCode string, createdBy int64) (*models.Family, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "INSERT INTO families (name, invite_code, created_by) VALUES (?, ?, ?)"
	familyID, err := tx.ExecReturningID(query, name, inviteCode, createdBy)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	query = "INSERT INTO family_members (family_id, user_id, role, status) VALUES (?, ?, ?, ?)"
	if _, err := tx.Exec(query, familyID, createdBy, string(models.RoleParent), string(models.MemberActive)); err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Family{
		ID:         familyID,
		Name:       name,
		InviteCode: inviteCode,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
	}, nil
}

const familyColumns = "id, name, COALESCE(icon_url, ''), invite_code, created_by, created_at"

// GetFamilyByID retrieves a family by ID
func (r *FamilyRepository) GetFamilyByID(familyID int64) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE id = ?"
	return r.scanFamily(r.db.QueryRow(query, familyID))
}

// GetFamilyByInviteCode retrieves a family by its invite code
func (r *FamilyRepository) GetFamilyByInviteCode(inviteCode string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE invite_code = ?"
	return r.scanFamily(r.db.QueryRow(query, inviteCode))
}

// UpdateInviteCode overwrites a family's invite code
func (r *FamilyRepository) UpdateInviteCode(familyID int64, inviteCode string) error {
	query := "UPDATE families SET invite_code = ? WHERE id = ?"
	if _, err := r.db.Exec(query, inviteCode, familyID); err != nil {
		if r.db.IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to update invite code: %w", err)
	}
	return nil
}

// GetActiveMembership retrieves a user's active membership in a specific family
func (r *FamilyRepository) GetActiveMembership(familyID, userID int64) (*models.FamilyMember, error) {
	query := `
		SELECT id, family_id, user_id, role, status, joined_at, left_at
		FROM family_members
		WHERE family_id = ? AND user_id = ? AND status = 'active'
	`
	return r.scanMember(r.db.QueryRow(query, familyID, userID))
}

// GetAnyActiveMembership retrieves a user's active membership in any family.
// At most one exists system-wide.
func (r *FamilyRepository) GetAnyActiveMembership(userID int64) (*models.FamilyMember, error) {
	query := `
		SELECT id, family_id, user_id, role, status, joined_at, left_at
		FROM family_members
		WHERE user_id = ? AND status = 'active'
		LIMIT 1
	`
	return r.scanMember(r.db.QueryRow(query, userID))
}

// CountActiveMembers counts a family's active members
func (r *FamilyRepository) CountActiveMembers(familyID int64) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM family_members WHERE family_id = ? AND status = 'active'"
	if err := r.db.QueryRow(query, familyID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// ListFamiliesForUser retrieves all families where the user holds an active
// membership, each with its live active-member count.
func (r *FamilyRepository) ListFamiliesForUser(userID int64) ([]models.FamilyWithCount, error) {
	query := `
		SELECT f.id, f.name, COALESCE(f.icon_url, ''), f.invite_code, f.created_by, f.created_at,
		       (SELECT COUNT(*) FROM family_members c WHERE c.family_id = f.id AND c.status = 'active')
		FROM families f
		INNER JOIN family_members fm ON f.id = fm.family_id
		WHERE fm.user_id = ? AND fm.status = 'active'
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	var families []models.FamilyWithCount
	for rows.Next() {
		var fc models.FamilyWithCount
		if err := rows.Scan(
			&fc.Family.ID,
			&fc.Family.Name,
			&fc.Family.IconURL,
			&fc.Family.InviteCode,
			&fc.Family.CreatedBy,
			&fc.Family.CreatedAt,
			&fc.MemberCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, fc)
	}

	return families, rows.Err()
}

// ListActiveMembers retrieves a family's active roster with user details
func (r *FamilyRepository) ListActiveMembers(familyID int64) ([]models.MemberWithUser, error) {
	query := `
		SELECT fm.id, fm.family_id, fm.user_id, fm.role, fm.status, fm.joined_at, fm.left_at,
		       u.id, COALESCE(u.phone_number, ''), COALESCE(u.email, ''), u.display_name,
		       COALESCE(u.avatar_url, ''), COALESCE(u.role, ''), u.created_at, u.updated_at
		FROM family_members fm
		INNER JOIN users u ON fm.user_id = u.id
		WHERE fm.family_id = ? AND fm.status = 'active'
		ORDER BY fm.joined_at ASC
	`
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.MemberWithUser
	for rows.Next() {
		var mw models.MemberWithUser
		var memberRole, memberStatus, userRole string
		var leftAt sql.NullTime
		if err := rows.Scan(
			&mw.Member.ID,
			&mw.Member.FamilyID,
			&mw.Member.UserID,
			&memberRole,
			&memberStatus,
			&mw.Member.JoinedAt,
			&leftAt,
			&mw.User.ID,
			&mw.User.PhoneNumber,
			&mw.User.Email,
			&mw.User.DisplayName,
			&mw.User.AvatarURL,
			&userRole,
			&mw.User.CreatedAt,
			&mw.User.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		mw.Member.Role = models.Role(memberRole)
		mw.Member.Status = models.MemberStatus(memberStatus)
		if leftAt.Valid {
			mw.Member.LeftAt = &leftAt.Time
		}
		mw.User.Role = models.Role(userRole)
		members = append(members, mw)
	}

	return members, rows.Err()
}

// JoinFamily adds a user to a family. The capacity check, the
// single-active-membership check and the insert share one transaction so
// concurrent joins cannot overfill a family or double-enroll a user.
func (r *FamilyRepository) JoinFamily(familyID, userID int64, role models.Role, maxMembers int) (*models.FamilyMember, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	query := "SELECT COUNT(*) FROM family_members WHERE user_id = ? AND status = 'active'"
	if err := tx.QueryRow(query, userID).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if existing > 0 {
		return nil, ErrMembershipExists
	}

	var count int
	query = "SELECT COUNT(*) FROM family_members WHERE family_id = ? AND status = 'active'"
	if err := tx.QueryRow(query, familyID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if count >= maxMembers {
		return nil, ErrFamilyAtCapacity
	}

	query = "INSERT INTO family_members (family_id, user_id, role, status) VALUES (?, ?, ?, ?)"
	id, err := tx.ExecReturningID(query, familyID, userID, string(role), string(models.MemberActive))
	if err != nil {
		return nil, fmt.Errorf("failed to add family member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.FamilyMember{
		ID:       id,
		FamilyID: familyID,
		UserID:   userID,
		Role:     role,
		Status:   models.MemberActive,
		JoinedAt: time.Now(),
	}, nil
}

// MarkMemberLeft flips a membership to left and stamps the departure time
func (r *FamilyRepository) MarkMemberLeft(memberID int64) error {
	query := "UPDATE family_members SET status = 'left', left_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, time.Now(), memberID); err != nil {
		return fmt.Errorf("failed to mark member left: %w", err)
	}
	return nil
}

func (r *FamilyRepository) scanFamily(row *sql.Row) (*models.Family, error) {
	family := &models.Family{}
	err := row.Scan(
		&family.ID,
		&family.Name,
		&family.IconURL,
		&family.InviteCode,
		&family.CreatedBy,
		&family.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}

	return family, nil
}

func (r *FamilyRepository) scanMember(row *sql.Row) (*models.FamilyMember, error) {
	member := &models.FamilyMember{}
	var role, status string
	var leftAt sql.NullTime
	err := row.Scan(
		&member.ID,
		&member.FamilyID,
		&member.UserID,
		&role,
		&status,
		&member.JoinedAt,
		&leftAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family member: %w", err)
	}

	member.Role = models.Role(role)
	member.Status = models.MemberStatus(status)
	if leftAt.Valid {
		member.LeftAt = &leftAt.Time
	}
	return member, nil
}
