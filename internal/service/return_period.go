package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

// Deferment periods are free text elsewhere in the system, so parsing is
// strict and failures are reported, never silently defaulted. The accepted
// grammar is "<First|Second|Third> semester of <YYYY/YYYY>".
var (
	defermentPeriodPattern = regexp.MustCompile(`(?i)^\s*(first|second|third)\s+semester\s+of\s+(\d{4})\s*[/-]\s*(\d{4})\s*$`)
	academicYearPattern    = regexp.MustCompile(`^\s*(\d{4})\s*[/-]\s*(\d{4})\s*$`)
)

// ParseDefermentPeriod parses a free-text deferment period expression into
// a structured period reference.
func ParseDefermentPeriod(raw string) (models.PeriodRef, error) {
	match := defermentPeriodPattern.FindStringSubmatch(raw)
	if match == nil {
		return models.PeriodRef{}, appErrors.Clone(appErrors.ErrParse, fmt.Sprintf("deferment period %q does not match \"<First|Second|Third> semester of <YYYY/YYYY>\"", raw))
	}

	ordinal := strings.ToLower(match[1])
	semester := strings.ToUpper(ordinal[:1]) + ordinal[1:]
	startYear, _ := strconv.Atoi(match[2])
	endYear, _ := strconv.Atoi(match[3])
	if endYear != startYear+1 {
		return models.PeriodRef{}, appErrors.Clone(appErrors.ErrParse, fmt.Sprintf("academic year pair %d/%d is not consecutive", startYear, endYear))
	}

	return models.PeriodRef{
		Semester:     semester,
		AcademicYear: fmt.Sprintf("%d/%d", startYear, endYear),
	}, nil
}

// NormalizeAcademicYearLabel validates a free-text academic year label and
// normalises the separator to a slash.
func NormalizeAcademicYearLabel(raw string) (string, error) {
	match := academicYearPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("academic year %q must match YYYY/YYYY", raw))
	}
	startYear, _ := strconv.Atoi(match[1])
	endYear, _ := strconv.Atoi(match[2])
	if endYear != startYear+1 {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("academic year pair %d/%d is not consecutive", startYear, endYear))
	}
	return fmt.Sprintf("%d/%d", startYear, endYear), nil
}

// NextSemesterName returns the ordinal successor of a semester name.
// Third wraps to First (of the next academic year pair).
func NextSemesterName(name string) (string, bool) {
	switch name {
	case models.SemesterFirst:
		return models.SemesterSecond, true
	case models.SemesterSecond:
		return models.SemesterThird, true
	case models.SemesterThird:
		return models.SemesterFirst, true
	default:
		return "", false
	}
}

// NextPeriod computes the logical next period after ref: the ordinal
// successor within the year pair, rolling into the next pair after Third.
func NextPeriod(ref models.PeriodRef) (models.PeriodRef, error) {
	next, ok := NextSemesterName(ref.Semester)
	if !ok {
		return models.PeriodRef{}, appErrors.Clone(appErrors.ErrParse, fmt.Sprintf("unknown semester ordinal %q", ref.Semester))
	}
	year := ref.AcademicYear
	if ref.Semester == models.SemesterThird {
		match := academicYearPattern.FindStringSubmatch(ref.AcademicYear)
		if match == nil {
			return models.PeriodRef{}, appErrors.Clone(appErrors.ErrParse, fmt.Sprintf("academic year %q must match YYYY/YYYY", ref.AcademicYear))
		}
		startYear, _ := strconv.Atoi(match[1])
		year = fmt.Sprintf("%d/%d", startYear+1, startYear+2)
	}
	return models.PeriodRef{Semester: next, AcademicYear: year}, nil
}

// RecommendReturnPeriod maps a deferment to a recommended resumption
// period. The logical next period is the ordinal successor of the deferred
// period; when more than overrideMonths have elapsed since approval, the
// logical successor has already passed, so the recommendation snaps to the
// live system period instead. The result is a recommendation the operator
// can edit, not a scheduling decision.
func RecommendReturnPeriod(defermentPeriod string, approvedAt time.Time, current *models.CurrentPeriod, now time.Time, overrideMonths int) (models.PeriodRef, error) {
	deferred, err := ParseDefermentPeriod(defermentPeriod)
	if err != nil {
		return models.PeriodRef{}, err
	}

	next, err := NextPeriod(deferred)
	if err != nil {
		return models.PeriodRef{}, err
	}

	if overrideMonths <= 0 {
		overrideMonths = 3
	}
	if elapsedMonths(approvedAt, now) > overrideMonths && current != nil {
		return models.PeriodRef{
			Semester:     current.SemesterName,
			AcademicYear: current.AcademicYearLabel,
		}, nil
	}

	return next, nil
}

func elapsedMonths(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
