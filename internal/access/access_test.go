package access

import (
	"testing"

	"github.com/google/uuid"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
)

func principal(role enums.UserRole) Principal {
	return Principal{UserID: uuid.New(), Role: role}
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if want == "" {
		if err != nil {
			t.Fatalf("expected allow, got %v", err)
		}
		return
	}
	if !pkgerrors.IsCode(err, want) {
		t.Fatalf("expected %s, got %v", want, err)
	}
}

func TestAnonymousIsUnauthorizedEverywhere(t *testing.T) {
	anon := Principal{}
	id := uuid.New()
	checks := []error{
		RequireAuthenticated(anon),
		RequireAdmin(anon),
		CanAuthorCourse(anon),
		CanManageCourse(anon, id),
		CanReadLessons(anon, id, true),
		CanCreateEnrollment(anon, id),
		CanAccessEnrollment(anon, id),
		CanCreatePayment(anon, id),
		CanViewPayment(anon, id),
		CanViewUser(anon, id),
	}
	for i, err := range checks {
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("check %d: expected unauthorized, got %v", i, err)
		}
	}
	if _, err := EnrollmentScope(anon); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized scope, got %v", err)
	}
}

func TestUnknownRoleIsNotAuthenticated(t *testing.T) {
	p := Principal{UserID: uuid.New(), Role: "Superuser"}
	if p.Authenticated() {
		t.Fatal("unknown role should not authenticate")
	}
}

func TestCourseAuthoring(t *testing.T) {
	assertCode(t, CanAuthorCourse(principal(enums.UserRoleInstructor)), "")
	assertCode(t, CanAuthorCourse(principal(enums.UserRoleAdmin)), "")
	assertCode(t, CanAuthorCourse(principal(enums.UserRoleStudent)), pkgerrors.CodeForbidden)
}

func TestCourseOwnership(t *testing.T) {
	owner := principal(enums.UserRoleInstructor)
	other := principal(enums.UserRoleInstructor)
	assertCode(t, CanManageCourse(owner, owner.UserID), "")
	assertCode(t, CanManageCourse(other, owner.UserID), pkgerrors.CodeForbidden)
	assertCode(t, CanManageCourse(principal(enums.UserRoleAdmin), owner.UserID), "")
	assertCode(t, CanManageCourse(principal(enums.UserRoleStudent), owner.UserID), pkgerrors.CodeForbidden)
}

func TestLessonReadGate(t *testing.T) {
	instructorID := uuid.New()
	student := principal(enums.UserRoleStudent)
	assertCode(t, CanReadLessons(student, instructorID, true), "")
	assertCode(t, CanReadLessons(student, instructorID, false), pkgerrors.CodeForbidden)
	assertCode(t, CanReadLessons(Principal{UserID: instructorID, Role: enums.UserRoleInstructor}, instructorID, false), "")
	assertCode(t, CanReadLessons(principal(enums.UserRoleInstructor), instructorID, false), pkgerrors.CodeForbidden)
	assertCode(t, CanReadLessons(principal(enums.UserRoleAdmin), instructorID, false), "")
}

func TestEnrollmentRules(t *testing.T) {
	student := principal(enums.UserRoleStudent)
	assertCode(t, CanCreateEnrollment(student, student.UserID), "")
	assertCode(t, CanCreateEnrollment(student, uuid.New()), pkgerrors.CodeForbidden)
	assertCode(t, CanCreateEnrollment(principal(enums.UserRoleAdmin), uuid.New()), pkgerrors.CodeForbidden)

	assertCode(t, CanAccessEnrollment(student, student.UserID), "")
	assertCode(t, CanAccessEnrollment(student, uuid.New()), pkgerrors.CodeForbidden)
	assertCode(t, CanAccessEnrollment(principal(enums.UserRoleAdmin), uuid.New()), "")
}

func TestEnrollmentScope(t *testing.T) {
	scope, err := EnrollmentScope(principal(enums.UserRoleAdmin))
	if err != nil || scope != nil {
		t.Fatalf("admin should see everything, got %v %v", scope, err)
	}
	student := principal(enums.UserRoleStudent)
	scope, err = EnrollmentScope(student)
	if err != nil || scope == nil || *scope != student.UserID {
		t.Fatalf("student should be scoped to self, got %v %v", scope, err)
	}
}

func TestPaymentRules(t *testing.T) {
	student := principal(enums.UserRoleStudent)
	assertCode(t, CanCreatePayment(student, student.UserID), "")
	assertCode(t, CanCreatePayment(student, uuid.New()), pkgerrors.CodeForbidden)
	assertCode(t, CanCreatePayment(principal(enums.UserRoleAdmin), student.UserID), pkgerrors.CodeForbidden)

	assertCode(t, CanViewPayment(student, student.UserID), "")
	assertCode(t, CanViewPayment(student, uuid.New()), pkgerrors.CodeForbidden)
	assertCode(t, CanViewPayment(principal(enums.UserRoleAdmin), uuid.New()), "")
	assertCode(t, CanViewPayment(principal(enums.UserRoleInstructor), uuid.New()), pkgerrors.CodeForbidden)
}

func TestUserRules(t *testing.T) {
	self := principal(enums.UserRoleStudent)
	assertCode(t, CanViewUser(self, self.UserID), "")
	assertCode(t, CanViewUser(self, uuid.New()), pkgerrors.CodeForbidden)
	assertCode(t, CanViewUser(principal(enums.UserRoleAdmin), uuid.New()), "")
	assertCode(t, RequireAdmin(self), pkgerrors.CodeForbidden)
	assertCode(t, RequireRole(self, enums.UserRoleInstructor, enums.UserRoleStudent), "")
}
