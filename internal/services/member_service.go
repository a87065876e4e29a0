package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"
	"fitclub_backend/pkg/utils"

	"github.com/google/uuid"
)

// --- Custom Service Errors for Member ---
var (
	ErrMemberNotFound     = errors.New("member not found")
	ErrMemberExists       = errors.New("member profile already exists for this user")
	ErrMemberValidation   = errors.New("member data validation error")
	ErrMemberNotActive    = errors.New("membership is not active")
	ErrAlreadyCheckedIn   = errors.New("member is already checked in")
	ErrNoOpenCheckIn      = errors.New("member has no open check-in")
	ErrDateFormat         = errors.New("invalid date format, please use YYYY-MM-DD")
	ErrInvalidCheckInCode = errors.New("unrecognized check-in code")
)

// --- Member DTOs ---

type CreateMemberRequest struct {
	UserID           int64  `json:"user_id" binding:"required"`
	MembershipPlanID *int64 `json:"membership_plan_id"`

	DateOfBirth           *string `json:"date_of_birth"` // Format YYYY-MM-DD
	Gender                *string `json:"gender"`
	Address               *string `json:"address"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
	FitnessGoals          *string `json:"fitness_goals"`
	MedicalConditions     *string `json:"medical_conditions"`
	PreferredWorkoutTime  *string `json:"preferred_workout_time"`
}

type UpdateMemberRequest struct {
	MembershipPlanID      *int64  `json:"membership_plan_id"`
	MembershipStatus      *string `json:"membership_status"`
	MembershipEndDate     *string `json:"membership_end_date"` // Format YYYY-MM-DD
	DateOfBirth           *string `json:"date_of_birth"`
	Gender                *string `json:"gender"`
	Address               *string `json:"address"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
	FitnessGoals          *string `json:"fitness_goals"`
	MedicalConditions     *string `json:"medical_conditions"`
	PreferredWorkoutTime  *string `json:"preferred_workout_time"`
}

type CheckInRequest struct {
	MemberID *int64  `json:"member_id"`
	QRCode   *string `json:"qr_code"`
	Method   *string `json:"method"`
	Notes    *string `json:"notes"`
}

// --- MemberService Interface ---
type MemberService interface {
	CreateMember(req CreateMemberRequest) (*models.Member, error)
	GetMemberByID(memberID int64) (*models.Member, error)
	GetMemberByUserID(userID int64) (*models.Member, error)
	GetMembers(page, pageSize int) ([]models.Member, int, error)
	UpdateMember(memberID int64, req UpdateMemberRequest) (*models.Member, error)
	CheckInMember(req CheckInRequest) (*models.CheckIn, error)
	CheckOutMember(memberID int64) (*models.CheckIn, error)
}

// --- memberService Implementation ---
type memberService struct {
	memberRepo  repositories.MemberRepository
	checkInRepo repositories.CheckInRepository
	planRepo    repositories.PlanRepository
	db          *sql.DB // For managing transactions
}

// NewMemberService creates a new instance of MemberService.
func NewMemberService(
	mr repositories.MemberRepository,
	cr repositories.CheckInRepository,
	pr repositories.PlanRepository,
	db *sql.DB,
) MemberService {
	return &memberService{
		memberRepo:  mr,
		checkInRepo: cr,
		planRepo:    pr,
		db:          db,
	}
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, ErrDateFormat
	}
	return &t, nil
}

// CreateMember creates a member profile for an existing user. When a plan is
// given, the membership window is derived from the plan duration and a fresh
// QR code is issued for front-desk check-in.
func (s *memberService) CreateMember(req CreateMemberRequest) (*models.Member, error) {
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	if dob != nil && dob.After(time.Now()) {
		return nil, fmt.Errorf("%w: date of birth cannot be in the future", ErrMemberValidation)
	}

	qrCode := uuid.NewString()
	member := &models.Member{
		UserID:                req.UserID,
		MembershipStatus:      models.MembershipActive,
		DateOfBirth:           dob,
		Gender:                req.Gender,
		Address:               req.Address,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		FitnessGoals:          req.FitnessGoals,
		MedicalConditions:     req.MedicalConditions,
		PreferredWorkoutTime:  req.PreferredWorkoutTime,
		QRCode:                &qrCode,
	}

	if req.MembershipPlanID != nil {
		plan, err := s.planRepo.GetPlanByID(*req.MembershipPlanID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, fmt.Errorf("failed to fetch membership plan: %w", err)
		}
		startDate := time.Now()
		endDate := startDate.AddDate(0, 0, plan.DurationDays)
		member.MembershipPlanID = &plan.ID
		member.MembershipStartDate = &startDate
		member.MembershipEndDate = &endDate
	}

	id, err := s.memberRepo.CreateMember(s.db, member)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrMemberExists
		}
		return nil, fmt.Errorf("failed to create member in repository: %w", err)
	}

	utils.LogInfo("Member created", map[string]interface{}{"member_id": id, "user_id": req.UserID})
	return s.memberRepo.GetMemberByID(id)
}

func (s *memberService) GetMemberByID(memberID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by ID: %w", err)
	}
	return member, nil
}

func (s *memberService) GetMemberByUserID(userID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by user ID: %w", err)
	}
	return member, nil
}

func (s *memberService) GetMembers(page, pageSize int) ([]models.Member, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	members, totalCount, err := s.memberRepo.GetMembers(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get members: %w", err)
	}
	return members, totalCount, nil
}

func (s *memberService) UpdateMember(memberID int64, req UpdateMemberRequest) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member for update: %w", err)
	}

	if req.MembershipPlanID != nil {
		plan, err := s.planRepo.GetPlanByID(*req.MembershipPlanID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, fmt.Errorf("failed to fetch membership plan: %w", err)
		}
		startDate := time.Now()
		endDate := startDate.AddDate(0, 0, plan.DurationDays)
		member.MembershipPlanID = &plan.ID
		member.MembershipStartDate = &startDate
		member.MembershipEndDate = &endDate
	}
	if req.MembershipStatus != nil {
		status := models.MembershipStatus(strings.ToLower(*req.MembershipStatus))
		switch status {
		case models.MembershipActive, models.MembershipExpired, models.MembershipCancelled, models.MembershipSuspended:
			member.MembershipStatus = status
		default:
			return nil, fmt.Errorf("%w: unknown membership status '%s'", ErrMemberValidation, *req.MembershipStatus)
		}
	}
	if req.MembershipEndDate != nil {
		endDate, parseErr := parseDate(req.MembershipEndDate)
		if parseErr != nil {
			return nil, parseErr
		}
		member.MembershipEndDate = endDate
	}
	if req.DateOfBirth != nil {
		dob, parseErr := parseDate(req.DateOfBirth)
		if parseErr != nil {
			return nil, parseErr
		}
		member.DateOfBirth = dob
	}
	if req.Gender != nil {
		member.Gender = req.Gender
	}
	if req.Address != nil {
		member.Address = req.Address
	}
	if req.EmergencyContactName != nil {
		member.EmergencyContactName = req.EmergencyContactName
	}
	if req.EmergencyContactPhone != nil {
		member.EmergencyContactPhone = req.EmergencyContactPhone
	}
	if req.FitnessGoals != nil {
		member.FitnessGoals = req.FitnessGoals
	}
	if req.MedicalConditions != nil {
		member.MedicalConditions = req.MedicalConditions
	}
	if req.PreferredWorkoutTime != nil {
		member.PreferredWorkoutTime = req.PreferredWorkoutTime
	}

	if err := s.memberRepo.UpdateMember(s.db, member); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to update member in repository: %w", err)
	}
	return s.memberRepo.GetMemberByID(memberID)
}

// CheckInMember records a gym visit. The check-in row and the member's
// engagement counters are written in one transaction so the counters never
// drift from the visit log.
func (s *memberService) CheckInMember(req CheckInRequest) (*models.CheckIn, error) {
	var member *models.Member
	var err error
	switch {
	case req.QRCode != nil && *req.QRCode != "":
		member, err = s.memberRepo.GetMemberByQRCode(*req.QRCode)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrInvalidCheckInCode
			}
			return nil, fmt.Errorf("failed to look up member by QR code: %w", err)
		}
	case req.MemberID != nil:
		member, err = s.memberRepo.GetMemberByID(*req.MemberID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrMemberNotFound
			}
			return nil, fmt.Errorf("failed to look up member: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: member_id or qr_code is required", ErrMemberValidation)
	}

	if member.MembershipStatus != models.MembershipActive {
		return nil, ErrMemberNotActive
	}

	if _, err := s.checkInRepo.GetOpenCheckIn(member.ID); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for open check-in: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	checkIn := &models.CheckIn{
		MemberID:    member.ID,
		CheckInTime: now,
		Method:      req.Method,
		Notes:       req.Notes,
	}
	if _, err := s.checkInRepo.CreateCheckIn(tx, checkIn); err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}
	if err := s.memberRepo.RecordCheckIn(tx, member.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update member check-in counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit check-in: %w", err)
	}

	utils.LogInfo("Member checked in", map[string]interface{}{"member_id": member.ID, "check_in_id": checkIn.ID})
	return checkIn, nil
}

// CheckOutMember closes the member's open check-in.
func (s *memberService) CheckOutMember(memberID int64) (*models.CheckIn, error) {
	checkIn, err := s.checkInRepo.GetOpenCheckIn(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoOpenCheckIn
		}
		return nil, fmt.Errorf("failed to find open check-in: %w", err)
	}

	now := time.Now()
	if err := s.checkInRepo.CloseCheckIn(s.db, checkIn.ID, now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoOpenCheckIn
		}
		return nil, fmt.Errorf("failed to close check-in: %w", err)
	}
	checkIn.CheckOutTime = &now
	return checkIn, nil
}
