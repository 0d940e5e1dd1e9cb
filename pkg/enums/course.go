package enums

import "fmt"

// CourseLevel describes the target audience of a course.
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "Beginner"
	CourseLevelIntermediate CourseLevel = "Intermediate"
	CourseLevelAdvanced     CourseLevel = "Advanced"
)

var validCourseLevels = []CourseLevel{
	CourseLevelBeginner,
	CourseLevelIntermediate,
	CourseLevelAdvanced,
}

// String implements fmt.Stringer.
func (l CourseLevel) String() string {
	return string(l)
}

// IsValid reports whether the value is a known CourseLevel.
func (l CourseLevel) IsValid() bool {
	for _, candidate := range validCourseLevels {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseCourseLevel converts raw input into a CourseLevel.
func ParseCourseLevel(value string) (CourseLevel, error) {
	for _, candidate := range validCourseLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid course level %q", value)
}

// CourseStatus tracks catalog publication.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "Draft"
	CourseStatusPublished CourseStatus = "Published"
	CourseStatusArchived  CourseStatus = "Archived"
)

var validCourseStatuses = []CourseStatus{
	CourseStatusDraft,
	CourseStatusPublished,
	CourseStatusArchived,
}

// String implements fmt.Stringer.
func (s CourseStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CourseStatus.
func (s CourseStatus) IsValid() bool {
	for _, candidate := range validCourseStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCourseStatus converts raw input into a CourseStatus.
func ParseCourseStatus(value string) (CourseStatus, error) {
	for _, candidate := range validCourseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid course status %q", value)
}
