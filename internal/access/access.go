// Package access holds the role and ownership rules that gate every
// resource. Predicates return nil when the call is allowed, an UNAUTHORIZED
// error for anonymous callers, and a FORBIDDEN error otherwise. Absent
// resources are reported by the services before a predicate runs.
package access

import (
	"github.com/google/uuid"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
)

// Principal is the authenticated caller derived from a validated bearer token.
// The zero value is an anonymous caller.
type Principal struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Authenticated reports whether the principal carries a user and a known role.
func (p Principal) Authenticated() bool {
	return p.UserID != uuid.Nil && p.Role.IsValid()
}

// IsAdmin reports whether the principal is an authenticated admin.
func (p Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == enums.UserRoleAdmin
}

func unauthenticated() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
}

func forbidden(msg string) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, msg)
}

// RequireAuthenticated rejects anonymous callers.
func RequireAuthenticated(p Principal) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	return nil
}

// RequireRole allows any of the listed roles.
func RequireRole(p Principal, roles ...enums.UserRole) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return forbidden("role not permitted")
}

// RequireAdmin allows admins only.
func RequireAdmin(p Principal) error {
	return RequireRole(p, enums.UserRoleAdmin)
}

// CanAuthorCourse gates course creation.
func CanAuthorCourse(p Principal) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	switch p.Role {
	case enums.UserRoleAdmin, enums.UserRoleInstructor:
		return nil
	case enums.UserRoleStudent:
		return forbidden("only instructors can create courses")
	}
	return forbidden("role not permitted")
}

// CanManageCourse gates updates and deletes of a course and of its lessons.
func CanManageCourse(p Principal, instructorID uuid.UUID) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	switch p.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleInstructor:
		if p.UserID == instructorID {
			return nil
		}
		return forbidden("course is owned by another instructor")
	case enums.UserRoleStudent:
		return forbidden("students cannot manage courses")
	}
	return forbidden("role not permitted")
}

// CanReadLessons gates lesson reads for a course. approved reports whether the
// caller holds an Approved enrollment in that course.
func CanReadLessons(p Principal, instructorID uuid.UUID, approved bool) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	switch p.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleInstructor:
		if p.UserID == instructorID {
			return nil
		}
		return forbidden("course is owned by another instructor")
	case enums.UserRoleStudent:
		if approved {
			return nil
		}
		return forbidden("an approved enrollment is required")
	}
	return forbidden("role not permitted")
}

// CanCreateEnrollment allows a student to enroll only themselves.
func CanCreateEnrollment(p Principal, studentID uuid.UUID) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	switch p.Role {
	case enums.UserRoleStudent:
		if p.UserID == studentID {
			return nil
		}
		return forbidden("students can only enroll themselves")
	case enums.UserRoleAdmin, enums.UserRoleInstructor:
		return forbidden("only students can enroll")
	}
	return forbidden("role not permitted")
}

// CanAccessEnrollment gates reading and deleting a single enrollment.
func CanAccessEnrollment(p Principal, studentID uuid.UUID) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	switch p.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleStudent, enums.UserRoleInstructor:
		if p.UserID == studentID {
			return nil
		}
		return forbidden("enrollment belongs to another student")
	}
	return forbidden("role not permitted")
}

// EnrollmentScope returns the student filter applied to enrollment listings.
// Admins see every enrollment (nil filter); everyone else sees their own.
func EnrollmentScope(p Principal) (*uuid.UUID, error) {
	if !p.Authenticated() {
		return nil, unauthenticated()
	}
	switch p.Role {
	case enums.UserRoleAdmin:
		return nil, nil
	case enums.UserRoleInstructor, enums.UserRoleStudent:
		id := p.UserID
		return &id, nil
	}
	return nil, forbidden("role not permitted")
}

// CanCreatePayment allows a student to pay only for their own enrollment.
func CanCreatePayment(p Principal, enrollmentStudentID uuid.UUID) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	switch p.Role {
	case enums.UserRoleStudent:
		if p.UserID == enrollmentStudentID {
			return nil
		}
		return forbidden("enrollment belongs to another student")
	case enums.UserRoleAdmin, enums.UserRoleInstructor:
		return forbidden("only students can create payments")
	}
	return forbidden("role not permitted")
}

// CanViewPayment gates reading a single payment.
func CanViewPayment(p Principal, enrollmentStudentID uuid.UUID) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	switch p.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleStudent:
		if p.UserID == enrollmentStudentID {
			return nil
		}
		return forbidden("payment belongs to another student")
	case enums.UserRoleInstructor:
		return forbidden("instructors cannot view payments")
	}
	return forbidden("role not permitted")
}

// CanViewUser allows admins and the user themselves.
func CanViewUser(p Principal, userID uuid.UUID) error {
	if !p.Authenticated() {
		return unauthenticated()
	}
	if p.Role == enums.UserRoleAdmin || p.UserID == userID {
		return nil
	}
	return forbidden("cannot view another user")
}
