package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitclub_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// MemberRepository defines the interface for member-related database operations.
type MemberRepository interface {
	CreateMember(executor SQLExecutor, member *models.Member) (int64, error)
	GetMemberByID(id int64) (*models.Member, error)
	GetMemberByUserID(userID int64) (*models.Member, error)
	GetMemberByQRCode(qrCode string) (*models.Member, error)
	GetMembers(page, pageSize int) ([]models.Member, int, error) // Members, total count, error
	GetActiveMembersWithUsers() ([]models.Member, error)
	GetActiveMembersWithPlans() ([]models.Member, error)
	UpdateMember(executor SQLExecutor, member *models.Member) error
	RecordCheckIn(executor SQLExecutor, memberID int64, at time.Time) error
	SetStripeCustomerID(executor SQLExecutor, memberID int64, customerID string) error
	CountActiveMembers() (int, error)
	CountMembersCheckedInSince(since time.Time) (int, error)
}

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new instance of MemberRepository.
func NewMemberRepository(db *sql.DB) MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, user_id, membership_plan_id, membership_status, membership_start_date, membership_end_date,
	date_of_birth, gender, address, emergency_contact_name, emergency_contact_phone,
	fitness_goals, medical_conditions, preferred_workout_time, qr_code, stripe_customer_id,
	total_check_ins, last_check_in, created_at, updated_at`

// scanMember scans a member row in memberColumns order. The scanner interface
// is satisfied by both *sql.Row and *sql.Rows.
func scanMember(s scanner, member *models.Member) error {
	var planID sql.NullInt64
	var startDate, endDate, dob, lastCheckIn sql.NullTime
	err := s.Scan(
		&member.ID, &member.UserID, &planID, &member.MembershipStatus, &startDate, &endDate,
		&dob, &member.Gender, &member.Address, &member.EmergencyContactName, &member.EmergencyContactPhone,
		&member.FitnessGoals, &member.MedicalConditions, &member.PreferredWorkoutTime, &member.QRCode, &member.StripeCustomerID,
		&member.TotalCheckIns, &lastCheckIn, &member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if planID.Valid {
		member.MembershipPlanID = &planID.Int64
	}
	if startDate.Valid {
		member.MembershipStartDate = &startDate.Time
	}
	if endDate.Valid {
		member.MembershipEndDate = &endDate.Time
	}
	if dob.Valid {
		member.DateOfBirth = &dob.Time
	}
	if lastCheckIn.Valid {
		member.LastCheckIn = &lastCheckIn.Time
	}
	return nil
}

// CreateMember inserts a new member profile into the database.
func (r *memberRepository) CreateMember(executor SQLExecutor, member *models.Member) (int64, error) {
	query := `INSERT INTO members (user_id, membership_plan_id, membership_status, membership_start_date, membership_end_date,
	            date_of_birth, gender, address, emergency_contact_name, emergency_contact_phone,
	            fitness_goals, medical_conditions, preferred_workout_time, qr_code,
	            total_check_ins, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	          RETURNING id`

	currentTime := time.Now()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = currentTime
	}
	if member.UpdatedAt.IsZero() {
		member.UpdatedAt = currentTime
	}

	var planID sql.NullInt64
	if member.MembershipPlanID != nil {
		planID = sql.NullInt64{Int64: *member.MembershipPlanID, Valid: true}
	}
	var startDate, endDate, dob sql.NullTime
	if member.MembershipStartDate != nil {
		startDate = sql.NullTime{Time: *member.MembershipStartDate, Valid: true}
	}
	if member.MembershipEndDate != nil {
		endDate = sql.NullTime{Time: *member.MembershipEndDate, Valid: true}
	}
	if member.DateOfBirth != nil {
		dob = sql.NullTime{Time: *member.DateOfBirth, Valid: true}
	}

	err := executor.QueryRow(query,
		member.UserID, planID, member.MembershipStatus, startDate, endDate,
		dob, member.Gender, member.Address, member.EmergencyContactName, member.EmergencyContactPhone,
		member.FitnessGoals, member.MedicalConditions, member.PreferredWorkoutTime, member.QRCode,
		member.TotalCheckIns, member.CreatedAt, member.UpdatedAt,
	).Scan(&member.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating member: %v", ErrDatabaseError, err)
	}
	return member.ID, nil
}

// GetMemberByID retrieves a member by their ID.
func (r *memberRepository) GetMemberByID(id int64) (*models.Member, error) {
	member := &models.Member{}
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	err := scanMember(r.db.QueryRow(query, id), member)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by ID %d: %v", ErrDatabaseError, id, err)
	}
	return member, nil
}

// GetMemberByUserID retrieves a member profile by the owning user's ID.
func (r *memberRepository) GetMemberByUserID(userID int64) (*models.Member, error) {
	member := &models.Member{}
	query := `SELECT ` + memberColumns + ` FROM members WHERE user_id = $1`

	err := scanMember(r.db.QueryRow(query, userID), member)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by user ID %d: %v", ErrDatabaseError, userID, err)
	}
	return member, nil
}

// GetMemberByQRCode retrieves a member by their check-in QR code.
func (r *memberRepository) GetMemberByQRCode(qrCode string) (*models.Member, error) {
	member := &models.Member{}
	query := `SELECT ` + memberColumns + ` FROM members WHERE qr_code = $1`

	err := scanMember(r.db.QueryRow(query, qrCode), member)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by QR code: %v", ErrDatabaseError, err)
	}
	return member, nil
}

// GetMembers retrieves a paginated list of members.
func (r *memberRepository) GetMembers(page, pageSize int) ([]models.Member, int, error) {
	members := []models.Member{}
	totalCount := 0

	query := `SELECT ` + memberColumns + `, COUNT(*) OVER() as total_count
	          FROM members ORDER BY id ASC LIMIT $1 OFFSET $2`

	offset := 0
	if page > 0 && pageSize > 0 {
		offset = (page - 1) * pageSize
	}

	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying members: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var member models.Member
		var planID sql.NullInt64
		var startDate, endDate, dob, lastCheckIn sql.NullTime
		if err := rows.Scan(
			&member.ID, &member.UserID, &planID, &member.MembershipStatus, &startDate, &endDate,
			&dob, &member.Gender, &member.Address, &member.EmergencyContactName, &member.EmergencyContactPhone,
			&member.FitnessGoals, &member.MedicalConditions, &member.PreferredWorkoutTime, &member.QRCode, &member.StripeCustomerID,
			&member.TotalCheckIns, &lastCheckIn, &member.CreatedAt, &member.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning member: %v", ErrDatabaseError, err)
		}
		if planID.Valid {
			member.MembershipPlanID = &planID.Int64
		}
		if startDate.Valid {
			member.MembershipStartDate = &startDate.Time
		}
		if endDate.Valid {
			member.MembershipEndDate = &endDate.Time
		}
		if dob.Valid {
			member.DateOfBirth = &dob.Time
		}
		if lastCheckIn.Valid {
			member.LastCheckIn = &lastCheckIn.Time
		}
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating member rows: %v", ErrDatabaseError, err)
	}

	return members, totalCount, nil
}

// GetActiveMembersWithUsers retrieves active members with the owning user
// joined in. Used by the engagement agent, which needs names and emails for
// outreach.
func (r *memberRepository) GetActiveMembersWithUsers() ([]models.Member, error) {
	query := `SELECT m.id, m.user_id, m.membership_plan_id, m.membership_status, m.membership_start_date, m.membership_end_date,
	            m.date_of_birth, m.gender, m.address, m.emergency_contact_name, m.emergency_contact_phone,
	            m.fitness_goals, m.medical_conditions, m.preferred_workout_time, m.qr_code, m.stripe_customer_id,
	            m.total_check_ins, m.last_check_in, m.created_at, m.updated_at,
	            u.id, u.email, u.full_name, u.phone, u.role, u.is_active, u.created_at, u.updated_at
	          FROM members m
	          JOIN users u ON m.user_id = u.id
	          WHERE m.membership_status = $1
	          ORDER BY m.id ASC`

	rows, err := r.db.Query(query, models.MembershipActive)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active members with users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var member models.Member
		var user models.User
		var planID sql.NullInt64
		var startDate, endDate, dob, lastCheckIn sql.NullTime
		if err := rows.Scan(
			&member.ID, &member.UserID, &planID, &member.MembershipStatus, &startDate, &endDate,
			&dob, &member.Gender, &member.Address, &member.EmergencyContactName, &member.EmergencyContactPhone,
			&member.FitnessGoals, &member.MedicalConditions, &member.PreferredWorkoutTime, &member.QRCode, &member.StripeCustomerID,
			&member.TotalCheckIns, &lastCheckIn, &member.CreatedAt, &member.UpdatedAt,
			&user.ID, &user.Email, &user.FullName, &user.Phone, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning member with user: %v", ErrDatabaseError, err)
		}
		if planID.Valid {
			member.MembershipPlanID = &planID.Int64
		}
		if startDate.Valid {
			member.MembershipStartDate = &startDate.Time
		}
		if endDate.Valid {
			member.MembershipEndDate = &endDate.Time
		}
		if dob.Valid {
			member.DateOfBirth = &dob.Time
		}
		if lastCheckIn.Valid {
			member.LastCheckIn = &lastCheckIn.Time
		}
		member.User = &user
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating member rows: %v", ErrDatabaseError, err)
	}
	return members, nil
}

// GetActiveMembersWithPlans retrieves active members that have a membership
// plan attached, with the plan joined in. Used by the financial agent for
// renewal campaigns.
func (r *memberRepository) GetActiveMembersWithPlans() ([]models.Member, error) {
	query := `SELECT m.id, m.user_id, m.membership_plan_id, m.membership_status, m.membership_start_date, m.membership_end_date,
	            m.date_of_birth, m.gender, m.address, m.emergency_contact_name, m.emergency_contact_phone,
	            m.fitness_goals, m.medical_conditions, m.preferred_workout_time, m.qr_code, m.stripe_customer_id,
	            m.total_check_ins, m.last_check_in, m.created_at, m.updated_at,
	            p.id, p.name, p.price, p.duration_days, p.is_active, p.created_at, p.updated_at
	          FROM members m
	          JOIN membership_plans p ON m.membership_plan_id = p.id
	          WHERE m.membership_status = $1
	          ORDER BY m.id ASC`

	rows, err := r.db.Query(query, models.MembershipActive)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active members with plans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var member models.Member
		var plan models.MembershipPlan
		var planID sql.NullInt64
		var startDate, endDate, dob, lastCheckIn sql.NullTime
		if err := rows.Scan(
			&member.ID, &member.UserID, &planID, &member.MembershipStatus, &startDate, &endDate,
			&dob, &member.Gender, &member.Address, &member.EmergencyContactName, &member.EmergencyContactPhone,
			&member.FitnessGoals, &member.MedicalConditions, &member.PreferredWorkoutTime, &member.QRCode, &member.StripeCustomerID,
			&member.TotalCheckIns, &lastCheckIn, &member.CreatedAt, &member.UpdatedAt,
			&plan.ID, &plan.Name, &plan.Price, &plan.DurationDays, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning member with plan: %v", ErrDatabaseError, err)
		}
		if planID.Valid {
			member.MembershipPlanID = &planID.Int64
		}
		if startDate.Valid {
			member.MembershipStartDate = &startDate.Time
		}
		if endDate.Valid {
			member.MembershipEndDate = &endDate.Time
		}
		if dob.Valid {
			member.DateOfBirth = &dob.Time
		}
		if lastCheckIn.Valid {
			member.LastCheckIn = &lastCheckIn.Time
		}
		member.MembershipPlan = &plan
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating member rows: %v", ErrDatabaseError, err)
	}
	return members, nil
}

// UpdateMember updates an existing member profile.
func (r *memberRepository) UpdateMember(executor SQLExecutor, member *models.Member) error {
	query := `UPDATE members SET
	            membership_plan_id = $1, membership_status = $2, membership_start_date = $3, membership_end_date = $4,
	            date_of_birth = $5, gender = $6, address = $7, emergency_contact_name = $8, emergency_contact_phone = $9,
	            fitness_goals = $10, medical_conditions = $11, preferred_workout_time = $12, updated_at = $13
	          WHERE id = $14`

	member.UpdatedAt = time.Now()

	var planID sql.NullInt64
	if member.MembershipPlanID != nil {
		planID = sql.NullInt64{Int64: *member.MembershipPlanID, Valid: true}
	}
	var startDate, endDate, dob sql.NullTime
	if member.MembershipStartDate != nil {
		startDate = sql.NullTime{Time: *member.MembershipStartDate, Valid: true}
	}
	if member.MembershipEndDate != nil {
		endDate = sql.NullTime{Time: *member.MembershipEndDate, Valid: true}
	}
	if member.DateOfBirth != nil {
		dob = sql.NullTime{Time: *member.DateOfBirth, Valid: true}
	}

	result, err := executor.Exec(query,
		planID, member.MembershipStatus, startDate, endDate,
		dob, member.Gender, member.Address, member.EmergencyContactName, member.EmergencyContactPhone,
		member.FitnessGoals, member.MedicalConditions, member.PreferredWorkoutTime, member.UpdatedAt, member.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating member ID %d: %v", ErrDatabaseError, member.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for updating member ID %d: %v", ErrDatabaseError, member.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordCheckIn bumps the member's check-in counter and last check-in time.
func (r *memberRepository) RecordCheckIn(executor SQLExecutor, memberID int64, at time.Time) error {
	query := `UPDATE members SET total_check_ins = total_check_ins + 1, last_check_in = $1, updated_at = $1 WHERE id = $2`
	result, err := executor.Exec(query, at, memberID)
	if err != nil {
		return fmt.Errorf("%w: recording check-in for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for member check-in %d: %v", ErrDatabaseError, memberID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStripeCustomerID stores the Stripe customer reference for a member.
func (r *memberRepository) SetStripeCustomerID(executor SQLExecutor, memberID int64, customerID string) error {
	query := `UPDATE members SET stripe_customer_id = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, customerID, time.Now(), memberID)
	if err != nil {
		return fmt.Errorf("%w: setting stripe customer for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for member ID %d: %v", ErrDatabaseError, memberID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveMembers returns the number of members with active status.
func (r *memberRepository) CountActiveMembers() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(id) FROM members WHERE membership_status = $1`, models.MembershipActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting active members: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// CountMembersCheckedInSince returns how many distinct members have checked in
// since the given time.
func (r *memberRepository) CountMembersCheckedInSince(since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(id) FROM members WHERE last_check_in >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting recently active members: %v", ErrDatabaseError, err)
	}
	return count, nil
}
