package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

func TestParseDefermentPeriod(t *testing.T) {
	ref, err := ParseDefermentPeriod("Second semester of 2024/2025")
	require.NoError(t, err)
	require.Equal(t, models.SemesterSecond, ref.Semester)
	require.Equal(t, "2024/2025", ref.AcademicYear)

	ref, err = ParseDefermentPeriod("  first   semester of 2025-2026 ")
	require.NoError(t, err)
	require.Equal(t, models.SemesterFirst, ref.Semester)
	require.Equal(t, "2025/2026", ref.AcademicYear)
}

func TestParseDefermentPeriodRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"Fourth semester of 2024/2025",
		"Second semester 2024/2025",
		"Second semester of 24/25",
		"",
	} {
		_, err := ParseDefermentPeriod(raw)
		require.Error(t, err, raw)
		require.True(t, appErrors.HasCode(err, appErrors.ErrParse), raw)
	}
}

func TestParseDefermentPeriodRejectsNonConsecutiveYears(t *testing.T) {
	_, err := ParseDefermentPeriod("Third semester of 2024/2026")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrParse))
}

func TestNormalizeAcademicYearLabel(t *testing.T) {
	label, err := NormalizeAcademicYearLabel("2025-2026")
	require.NoError(t, err)
	require.Equal(t, "2025/2026", label)

	label, err = NormalizeAcademicYearLabel("2025/2026")
	require.NoError(t, err)
	require.Equal(t, "2025/2026", label)

	_, err = NormalizeAcademicYearLabel("25/26")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = NormalizeAcademicYearLabel("2025/2027")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestNextPeriod(t *testing.T) {
	next, err := NextPeriod(models.PeriodRef{Semester: models.SemesterFirst, AcademicYear: "2024/2025"})
	require.NoError(t, err)
	require.Equal(t, models.PeriodRef{Semester: models.SemesterSecond, AcademicYear: "2024/2025"}, next)

	next, err = NextPeriod(models.PeriodRef{Semester: models.SemesterThird, AcademicYear: "2024/2025"})
	require.NoError(t, err)
	require.Equal(t, models.PeriodRef{Semester: models.SemesterFirst, AcademicYear: "2025/2026"}, next)
}

func TestRecommendReturnPeriodUsesSuccessorWithinWindow(t *testing.T) {
	approvedAt := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	now := approvedAt.AddDate(0, 2, 0)
	current := &models.CurrentPeriod{SemesterName: models.SemesterSecond, AcademicYearLabel: "2025/2026"}

	ref, err := RecommendReturnPeriod("Second semester of 2024/2025", approvedAt, current, now, 3)
	require.NoError(t, err)
	require.Equal(t, models.PeriodRef{Semester: models.SemesterThird, AcademicYear: "2024/2025"}, ref)
}

func TestRecommendReturnPeriodOverridesWithLivePeriod(t *testing.T) {
	approvedAt := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	now := approvedAt.AddDate(0, 5, 0)
	current := &models.CurrentPeriod{SemesterName: models.SemesterSecond, AcademicYearLabel: "2025/2026"}

	ref, err := RecommendReturnPeriod("Second semester of 2024/2025", approvedAt, current, now, 3)
	require.NoError(t, err)
	require.Equal(t, models.PeriodRef{Semester: models.SemesterSecond, AcademicYear: "2025/2026"}, ref)
}

func TestRecommendReturnPeriodWithoutLivePeriodKeepsSuccessor(t *testing.T) {
	approvedAt := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	now := approvedAt.AddDate(1, 0, 0)

	ref, err := RecommendReturnPeriod("Third semester of 2024/2025", approvedAt, nil, now, 3)
	require.NoError(t, err)
	require.Equal(t, models.PeriodRef{Semester: models.SemesterFirst, AcademicYear: "2025/2026"}, ref)
}

func TestElapsedMonthsDayAdjustment(t *testing.T) {
	from := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 2, elapsedMonths(from, time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 3, elapsedMonths(from, time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 0, elapsedMonths(from, from.AddDate(0, 0, -5)))
}
