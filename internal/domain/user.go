package domain

import (
	"time"
)

type MembershipPlan string

const (
	PlanFree       MembershipPlan = "free"
	PlanPremium    MembershipPlan = "premium"
	PlanEnterprise MembershipPlan = "enterprise"
)

type Location struct {
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

type Profile struct {
	FullName    string     `bson:"full_name" json:"fullName"`
	AvatarURL   *string    `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Phone       *string    `bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth *time.Time `bson:"date_of_birth,omitempty" json:"dateOfBirth,omitempty"`
	Location    *Location  `bson:"location,omitempty" json:"location,omitempty"`
	Bio         string     `bson:"bio,omitempty" json:"bio,omitempty"`
}

type Notifications struct {
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
	SMS   bool `bson:"sms" json:"sms"`
}

type Privacy struct {
	ShowProfile bool `bson:"show_profile" json:"showProfile"`
	ShowContact bool `bson:"show_contact" json:"showContact"`
}

type Preferences struct {
	Notifications Notifications `bson:"notifications" json:"notifications"`
	Privacy       Privacy       `bson:"privacy" json:"privacy"`
	Interests     []string      `bson:"interests" json:"interests"`
}

type User struct {
	ID             string         `bson:"_id" json:"id"`
	Email          string         `bson:"email" json:"email"`
	PasswordHash   string         `bson:"password_hash,omitempty" json:"-"`
	Profile        Profile        `bson:"profile" json:"profile"`
	MembershipPlan MembershipPlan `bson:"membership_plan" json:"membershipPlan"`
	Preferences    Preferences    `bson:"preferences" json:"preferences"`
	IsActive       bool           `bson:"is_active" json:"isActive"`
	LastLogin      *time.Time     `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	EmailVerified  bool           `bson:"email_verified" json:"emailVerified"`

	// Verification/reset workflow fields. No route issues or consumes these
	// yet; they are reserved for the email verification and password reset
	// flows and must never appear in API responses.
	EmailVerificationToken string     `bson:"email_verification_token,omitempty" json:"-"`
	PasswordResetToken     string     `bson:"password_reset_token,omitempty" json:"-"`
	PasswordResetExpires   *time.Time `bson:"password_reset_expires,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// DefaultPreferences returns the preferences assigned to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: Notifications{Email: true, Push: true, SMS: false},
		Privacy:       Privacy{ShowProfile: true, ShowContact: false},
		Interests:     []string{},
	}
}

// Age derives the user's age in full years from the stored date of birth.
// Computed on read, never persisted. Returns -1 when the date of birth is
// unknown.
func (u *User) Age(now time.Time) int {
	if u.Profile.DateOfBirth == nil {
		return -1
	}
	dob := *u.Profile.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// ProfilePatch carries a partial profile update. Nil fields are left
// untouched. Email and password are deliberately not representable here.
type ProfilePatch struct {
	FullName    *string    `json:"fullName,omitempty"`
	AvatarURL   *string    `json:"avatarUrl,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Location    *Location  `json:"location,omitempty"`
	Bio         *string    `json:"bio,omitempty"`
	Interests   *[]string  `json:"interests,omitempty"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.AvatarURL == nil && p.Phone == nil &&
		p.DateOfBirth == nil && p.Location == nil && p.Bio == nil && p.Interests == nil
}
