package query

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudir/student-directory/internal/models"
)

func clockAt(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
}

func student(id, surname, name, lastname, birthday, studyStart, faculty string) models.Student {
	return models.Student{
		ID: id, Name: name, Surname: surname, Lastname: lastname,
		Birthday: birthday, StudyStart: studyStart, Faculty: faculty,
		CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z",
	}
}

func TestProjectDerivesFIO(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	views := e.Run([]models.Student{student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS")}, models.StudentFilter{})
	require.Len(t, views, 1)
	assert.Equal(t, "Petrov Ivan Ivanovich", views[0].FIO)
}

func TestAgeCountsMostRecentBirthday(t *testing.T) {
	s := student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS")

	before := NewEngine(clockAt(2026, time.May, 9)).Run([]models.Student{s}, models.StudentFilter{})
	require.Len(t, before, 1)
	assert.Equal(t, 24, before[0].Age)

	onDay := NewEngine(clockAt(2026, time.May, 10)).Run([]models.Student{s}, models.StudentFilter{})
	assert.Equal(t, 25, onDay[0].Age)

	after := NewEngine(clockAt(2026, time.December, 1)).Run([]models.Student{s}, models.StudentFilter{})
	assert.Equal(t, 25, after[0].Age)
}

func TestStudyFinalIsStartPlusFour(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	views := e.Run([]models.Student{student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS")}, models.StudentFilter{})
	assert.Equal(t, 2023, views[0].StudyFinal)
}

func TestCurrentCourseBeforeSeptemberOfFinalYear(t *testing.T) {
	e := NewEngine(clockAt(2023, time.June, 15))
	views := e.Run([]models.Student{student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS")}, models.StudentFilter{})
	assert.Equal(t, "4", views[0].CurrentCourse)
}

func TestCurrentCourseGraduatesInSeptemberOfFinalYear(t *testing.T) {
	s := student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS")

	sept := NewEngine(clockAt(2023, time.September, 1)).Run([]models.Student{s}, models.StudentFilter{})
	assert.Equal(t, models.CourseGraduated, sept[0].CurrentCourse)

	later := NewEngine(clockAt(2026, time.February, 15)).Run([]models.Student{s}, models.StudentFilter{})
	assert.Equal(t, models.CourseGraduated, later[0].CurrentCourse)
}

func TestCurrentCourseRollsOverInSeptember(t *testing.T) {
	s := student("1", "Petrov", "Ivan", "Ivanovich", "2005-03-02", "2024", "CS")

	spring := NewEngine(clockAt(2026, time.April, 1)).Run([]models.Student{s}, models.StudentFilter{})
	assert.Equal(t, "2", spring[0].CurrentCourse)

	autumn := NewEngine(clockAt(2026, time.October, 1)).Run([]models.Student{s}, models.StudentFilter{})
	assert.Equal(t, "3", autumn[0].CurrentCourse)
}

func TestUnparseableValuesDegradeToZero(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	views := e.Run([]models.Student{student("1", "Petrov", "Ivan", "Ivanovich", "not-a-date", "soon", "CS")}, models.StudentFilter{})
	require.Len(t, views, 1)
	assert.Zero(t, views[0].Age)
	assert.Zero(t, views[0].StudyFinal)
	assert.Empty(t, views[0].CurrentCourse)
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS"),
		student("2", "Sidorova", "Anna", "Petrovna", "2002-11-03", "2020", "Math"),
	}

	bySurname := e.Run(students, models.StudentFilter{Search: "PETROV"})
	require.Len(t, bySurname, 2) // matches surname of one, lastname of the other

	byYear := e.Run(students, models.StudentFilter{Search: "2019"})
	require.Len(t, byYear, 1)
	assert.Equal(t, "1", byYear[0].ID)

	none := e.Run(students, models.StudentFilter{Search: "xyz"})
	assert.Empty(t, none)
}

func TestFieldFilterOnDerivedFullName(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS"),
		student("2", "Sidorova", "Anna", "Fedorovna", "2002-11-03", "2020", "Math"),
	}

	views := e.Run(students, models.StudentFilter{Fields: map[string]string{"fio": "petrov iv"}})
	require.Len(t, views, 1)
	assert.Equal(t, "1", views[0].ID)
}

func TestFiltersComposeAsLogicalAND(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS"),
		student("2", "Petrova", "Anna", "Ivanovna", "2002-11-03", "2020", "Math"),
	}

	views := e.Run(students, models.StudentFilter{
		Search: "ivan",
		Fields: map[string]string{"faculty": "cs"},
	})
	require.Len(t, views, 1)
	assert.Equal(t, "1", views[0].ID)
}

func TestFinalYearFilterIsExact(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS"),
		student("2", "Sidorova", "Anna", "Petrovna", "2002-11-03", "2020", "Math"),
	}

	year := 2023
	views := e.Run(students, models.StudentFilter{FinalYear: &year})
	require.Len(t, views, 1)
	assert.Equal(t, "1", views[0].ID)
}

func TestSortByStringFieldIgnoresCase(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS"),
		student("2", "Ivanov", "Oleg", "Petrovich", "2000-01-20", "2018", "CS"),
	}

	asc := e.Run(students, models.StudentFilter{SortBy: "surname"})
	require.Len(t, asc, 2)
	assert.Equal(t, "2", asc[0].ID)

	desc := e.Run(students, models.StudentFilter{SortBy: "surname", Descending: true})
	assert.Equal(t, "1", desc[0].ID)
}

func TestSortByNumericAndDateFields(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "Petrov", "Ivan", "Ivanovich", "2002-11-03", "2020", "CS"),
		student("2", "Ivanov", "Oleg", "Petrovich", "2001-05-10", "2019", "CS"),
	}

	byStart := e.Run(students, models.StudentFilter{SortBy: "studyStart"})
	assert.Equal(t, "2", byStart[0].ID)

	byBirthday := e.Run(students, models.StudentFilter{SortBy: "birthday"})
	assert.Equal(t, "2", byBirthday[0].ID)

	byBirthdayDesc := e.Run(students, models.StudentFilter{SortBy: "birthday", Descending: true})
	assert.Equal(t, "1", byBirthdayDesc[0].ID)
}

func TestSortUnknownFieldKeepsOrder(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("b", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS"),
		student("a", "Ivanov", "Oleg", "Petrovich", "2000-01-20", "2018", "CS"),
	}

	views := e.Run(students, models.StudentFilter{SortBy: "id"})
	require.Len(t, views, 2)
	assert.Equal(t, "b", views[0].ID)
	assert.Equal(t, "a", views[1].ID)
}

func TestSortIncomparableOperandsKeepOrder(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "nope", "CS"),
		student("2", "Ivanov", "Oleg", "Petrovich", "2000-01-20", "2018", "CS"),
	}

	views := e.Run(students, models.StudentFilter{SortBy: "studyStart"})
	require.Len(t, views, 2)
	assert.Equal(t, "1", views[0].ID)
}

func TestRunIsSafeForConcurrentUse(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS"),
		student("2", "Ivanov", "Oleg", "Petrovich", "2000-01-20", "2018", "CS"),
		student("3", "Sidorova", "Anna", "Fedorovna", "2002-11-03", "2020", "Math"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 300; j++ {
				views := e.Run(students, models.StudentFilter{SortBy: "surname"})
				if len(views) != 3 {
					t.Errorf("got %d views, want 3", len(views))
					return
				}
				if views[0].ID != "2" {
					t.Errorf("got first id %q, want 2", views[0].ID)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSortDoesNotFilter(t *testing.T) {
	e := NewEngine(clockAt(2026, time.February, 15))
	students := []models.Student{
		student("1", "Petrov", "Ivan", "Ivanovich", "2001-05-10", "2019", "CS"),
		student("2", "Ivanov", "Oleg", "Petrovich", "bad-date", "2018", "CS"),
	}

	views := e.Run(students, models.StudentFilter{SortBy: "birthday"})
	assert.Len(t, views, 2)
}
