package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nerdacademy/nerdacademy-backend/api/middleware"
	"github.com/nerdacademy/nerdacademy-backend/api/responses"
	"github.com/nerdacademy/nerdacademy-backend/api/validators"
	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/internal/enrollments"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
	"github.com/nerdacademy/nerdacademy-backend/pkg/logger"
)

func enrollmentServiceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "enrollment service unavailable")
}

// CreateEnrollment files a Pending enrollment. Any status in the body is ignored.
func CreateEnrollment(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, enrollmentServiceUnavailable())
			return
		}

		var body enrollments.CreateEnrollmentRequest
		if err := validators.DecodeJSONBodyLenient(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		enrollment, err := svc.Create(r.Context(), middleware.PrincipalFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, enrollment)
	}
}

// ListEnrollments returns everything for admins and the caller's own rows for students.
func ListEnrollments(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, enrollmentServiceUnavailable())
			return
		}

		list, err := svc.List(r.Context(), middleware.PrincipalFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ListCourseEnrollments(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, enrollmentServiceUnavailable())
			return
		}

		courseID, err := validators.ParseUUIDParam(r, "courseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByCourse(r.Context(), middleware.PrincipalFromContext(r.Context()), courseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListManageableEnrollments returns the pending moderation queue.
func ListManageableEnrollments(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, enrollmentServiceUnavailable())
			return
		}

		list, err := svc.ListManageable(r.Context(), middleware.PrincipalFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetEnrollment(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, enrollmentServiceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		enrollment, err := svc.Get(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, enrollment)
	}
}

func ApproveEnrollment(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return enrollmentTransition(nil, logg)
	}
	return enrollmentTransition(svc.Approve, logg)
}

func RejectEnrollment(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return enrollmentTransition(nil, logg)
	}
	return enrollmentTransition(svc.Reject, logg)
}

type transitionFunc func(ctx context.Context, p access.Principal, id uuid.UUID) (*enrollments.EnrollmentDTO, error)

func enrollmentTransition(apply transitionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apply == nil {
			responses.WriteError(r.Context(), logg, w, enrollmentServiceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		enrollment, err := apply(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, enrollment)
	}
}

// SetEnrollmentStatus moves an enrollment to any valid status.
func SetEnrollmentStatus(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, enrollmentServiceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body enrollments.SetStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		enrollment, err := svc.SetStatus(r.Context(), middleware.PrincipalFromContext(r.Context()), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, enrollment)
	}
}

func DeleteEnrollment(svc enrollments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, enrollmentServiceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.PrincipalFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
