package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Role is the authorization unit. Exactly three values exist; anything else
// is rejected at the users-table boundary.
type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleStudent, RoleCounselor, RoleAdmin}
}

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

// ParseRole parses a role string, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is the profile row for an identity provider account.
// The ID is the provider's user id, not auto-generated.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"unique;not null"`
	Role      Role      `json:"role" gorm:"type:varchar(16);not null;default:student"`
	AvatarURL string    `json:"avatar_url"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeSave rejects unknown roles before they reach the table
func (u *User) BeforeSave(tx *gorm.DB) error {
	if !u.Role.Valid() {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	return nil
}

// EnquiryStatus tracks an admission enquiry through its lifecycle
type EnquiryStatus string

const (
	EnquiryPending   EnquiryStatus = "pending"
	EnquiryResponded EnquiryStatus = "responded"
	EnquiryClosed    EnquiryStatus = "closed"
)

// Valid reports whether the status is a known enquiry status.
func (s EnquiryStatus) Valid() bool {
	switch s {
	case EnquiryPending, EnquiryResponded, EnquiryClosed:
		return true
	}
	return false
}

// CanTransition reports whether the status may move to next.
// Enquiries only move forward: pending -> responded -> closed.
func (s EnquiryStatus) CanTransition(next EnquiryStatus) bool {
	switch s {
	case EnquiryPending:
		return next == EnquiryResponded || next == EnquiryClosed
	case EnquiryResponded:
		return next == EnquiryClosed
	}
	return false
}

// Enquiry is a prospective student's question about a course.
// StudentID is empty for anonymous enquiries from the public site.
type Enquiry struct {
	BaseModel
	StudentID   string        `json:"student_id" gorm:"index"`
	StudentName string        `json:"student_name" gorm:"not null"`
	Email       string        `json:"email" gorm:"not null"`
	Contact     string        `json:"contact"`
	Course      string        `json:"course" gorm:"not null"`
	Message     string        `json:"message" gorm:"type:text;not null"`
	Status      EnquiryStatus `json:"status" gorm:"type:varchar(16);not null;default:pending"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Responses []EnquiryResponse `json:"responses,omitempty" gorm:"foreignKey:EnquiryID;constraint:OnDelete:CASCADE"`
}

// EnquiryResponse is a staff reply to an enquiry
type EnquiryResponse struct {
	BaseModel
	EnquiryID string `json:"enquiry_id" gorm:"not null;index"`
	StaffID   string `json:"staff_id" gorm:"not null"`
	StaffName string `json:"staff_name" gorm:"not null"`
	Message   string `json:"message" gorm:"type:text;not null"`
}

// EnrollmentStatus tracks an enrollment application through review
type EnrollmentStatus string

const (
	EnrollmentSubmitted   EnrollmentStatus = "submitted"
	EnrollmentUnderReview EnrollmentStatus = "under_review"
	EnrollmentApproved    EnrollmentStatus = "approved"
	EnrollmentRejected    EnrollmentStatus = "rejected"
)

// Valid reports whether the status is a known enrollment status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentSubmitted, EnrollmentUnderReview, EnrollmentApproved, EnrollmentRejected:
		return true
	}
	return false
}

// CanTransition reports whether the status may move to next.
// Approved and rejected are terminal.
func (s EnrollmentStatus) CanTransition(next EnrollmentStatus) bool {
	switch s {
	case EnrollmentSubmitted:
		return next == EnrollmentUnderReview || next == EnrollmentApproved || next == EnrollmentRejected
	case EnrollmentUnderReview:
		return next == EnrollmentApproved || next == EnrollmentRejected
	}
	return false
}

// Progress returns the review progress percentage shown on student dashboards
func (s EnrollmentStatus) Progress() int {
	switch s {
	case EnrollmentSubmitted:
		return 25
	case EnrollmentUnderReview:
		return 50
	case EnrollmentApproved, EnrollmentRejected:
		return 100
	}
	return 0
}

// Enrollment is a student's application to a course
type Enrollment struct {
	BaseModel
	StudentID   string           `json:"student_id" gorm:"not null;index"`
	StudentName string           `json:"student_name" gorm:"not null"`
	Course      string           `json:"course" gorm:"not null"`
	DateOfBirth string           `json:"date_of_birth"`
	Gender      string           `json:"gender"`
	Address     string           `json:"address"`
	City        string           `json:"city"`
	State       string           `json:"state"`
	ZipCode     string           `json:"zip_code"`
	Country     string           `json:"country"`
	Phone       string           `json:"phone"`
	Status      EnrollmentStatus `json:"status" gorm:"type:varchar(16);not null;default:submitted"`
	Remarks     string           `json:"remarks"`
	UpdatedAt   time.Time        `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Documents []Document `json:"documents,omitempty" gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE"`
}

// Document is an uploaded file reference attached to an enrollment.
// The file itself lives in the hosted storage bucket; only the URL is kept.
type Document struct {
	BaseModel
	EnrollmentID string `json:"enrollment_id" gorm:"not null;index"`
	Name         string `json:"name" gorm:"not null"`
	Type         string `json:"type"`
	URL          string `json:"url" gorm:"not null"`
}

// PaymentStatus tracks a fee payment through verification
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// Valid reports whether the status is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentApproved, PaymentRejected:
		return true
	}
	return false
}

// CanTransition reports whether the status may move to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	return s == PaymentPending && (next == PaymentApproved || next == PaymentRejected)
}

// PaymentMethod is how a fee payment was made
type PaymentMethod string

const (
	PaymentOnline  PaymentMethod = "online"
	PaymentOffline PaymentMethod = "offline"
)

// Valid reports whether the method is known.
func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentOffline
}

// Payment is a fee payment against an enrollment
type Payment struct {
	BaseModel
	StudentID    string        `json:"student_id" gorm:"not null;index"`
	StudentName  string        `json:"student_name" gorm:"not null"`
	EnrollmentID string        `json:"enrollment_id" gorm:"not null;index"`
	Amount       int64         `json:"amount" gorm:"not null"` // smallest currency unit
	Method       PaymentMethod `json:"method" gorm:"type:varchar(16);not null"`
	ReceiptURL   string        `json:"receipt_url"`
	Status       PaymentStatus `json:"status" gorm:"type:varchar(16);not null;default:pending"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// Course is a program offered for admission
type Course struct {
	BaseModel
	Name             string `json:"name" gorm:"unique;not null"`
	ShortDescription string `json:"short_description" gorm:"type:text"`
	Duration         string `json:"duration"`
	Fee              int64  `json:"fee" gorm:"not null"`
}

// Notification is a message delivered to a user's inbox by the worker
type Notification struct {
	BaseModel
	UserID  string `json:"user_id" gorm:"not null;index"`
	Title   string `json:"title" gorm:"not null"`
	Message string `json:"message" gorm:"type:text"`
	IsRead  bool   `json:"is_read" gorm:"not null;default:false"`
}

// FollowUp is a counselor's reminder to chase an enquiry
type FollowUp struct {
	BaseModel
	CounselorID string     `json:"counselor_id" gorm:"not null;index"`
	EnquiryID   string     `json:"enquiry_id" gorm:"index"`
	Note        string     `json:"note" gorm:"type:text"`
	DueAt       time.Time  `json:"due_at" gorm:"not null"`
	Done        bool       `json:"done" gorm:"not null;default:false"`
	RemindedAt  *time.Time `json:"reminded_at"`
}

// Stats are the aggregate counts shown on counselor and admin dashboards
type Stats struct {
	TotalStudents      int64 `json:"total_students"`
	TotalEnquiries     int64 `json:"total_enquiries"`
	TotalEnrollments   int64 `json:"total_enrollments"`
	TotalPayments      int64 `json:"total_payments"`
	PendingEnquiries   int64 `json:"pending_enquiries"`
	PendingEnrollments int64 `json:"pending_enrollments"`
	PendingPayments    int64 `json:"pending_payments"`
}

// AutoMigrate runs database migrations for all portal models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &Enquiry{}, &EnquiryResponse{}, &Enrollment{}, &Document{},
		&Payment{}, &Course{}, &Notification{}, &FollowUp{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
