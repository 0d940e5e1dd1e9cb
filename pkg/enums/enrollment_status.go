package enums

import "fmt"

// EnrollmentStatus is the admin-driven lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusPending  EnrollmentStatus = "Pending"
	EnrollmentStatusApproved EnrollmentStatus = "Approved"
	EnrollmentStatusRejected EnrollmentStatus = "Rejected"
)

var validEnrollmentStatuses = []EnrollmentStatus{
	EnrollmentStatusPending,
	EnrollmentStatusApproved,
	EnrollmentStatusRejected,
}

// String implements fmt.Stringer.
func (s EnrollmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EnrollmentStatus.
func (s EnrollmentStatus) IsValid() bool {
	for _, candidate := range validEnrollmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsActive reports whether the enrollment still blocks a new one for the same course.
func (s EnrollmentStatus) IsActive() bool {
	return s == EnrollmentStatusPending || s == EnrollmentStatusApproved
}

// ParseEnrollmentStatus converts raw input into an EnrollmentStatus.
func ParseEnrollmentStatus(value string) (EnrollmentStatus, error) {
	for _, candidate := range validEnrollmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid enrollment status %q", value)
}
