package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/edudir/student-directory/internal/models"
)

// Academic-year rollover: from September the student counts as being in the
// next course, and the graduation year flips to "graduated".
const academicYearStartMonth = time.September

// studyDuration is the fixed programme length in years.
const studyDuration = 4

// Engine computes derived academic fields and applies filter and sort
// parameters to a loaded collection. The clock is injectable so derivations
// are reproducible in tests. Engines are safe for concurrent use: the collator
// keeps mutable scratch state, so each sort builds its own.
type Engine struct {
	now func() time.Time
}

// NewEngine constructs an Engine. A nil clock defaults to time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Run projects every record into its view and applies, in order: free-text
// search, per-field filters, the final-year filter, and finally the sort.
// Filters compose as logical AND; the sort never filters.
func (e *Engine) Run(students []models.Student, f models.StudentFilter) []models.StudentView {
	views := make([]models.StudentView, 0, len(students))
	for _, s := range students {
		views = append(views, e.project(s))
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		views = filterViews(views, func(v models.StudentView) bool {
			return matchesSearch(v, search)
		})
	}

	for field, substr := range f.Fields {
		substr = strings.TrimSpace(substr)
		if substr == "" {
			continue
		}
		name, needle := field, substr
		views = filterViews(views, func(v models.StudentView) bool {
			value, ok := fieldText(v, name)
			return ok && containsFold(value, needle)
		})
	}

	if f.FinalYear != nil {
		year := *f.FinalYear
		views = filterViews(views, func(v models.StudentView) bool {
			return v.StudyFinal == year
		})
	}

	if f.SortBy != "" {
		e.sortViews(views, f.SortBy, f.Descending)
	}

	return views
}

// project computes the derived fields for one record. Validation guarantees
// only non-emptiness, so unparseable dates and years degrade to zero values
// rather than failing the whole query.
func (e *Engine) project(s models.Student) models.StudentView {
	now := e.now()
	view := models.StudentView{Student: s}
	view.FIO = s.Surname + " " + s.Name + " " + s.Lastname

	if birth, ok := parseDate(s.Birthday); ok {
		view.Age = ageAt(birth, now)
	}

	start, err := strconv.Atoi(strings.TrimSpace(s.StudyStart))
	if err != nil {
		return view
	}
	view.StudyFinal = start + studyDuration

	year, month := now.Year(), now.Month()
	if year > view.StudyFinal || (year == view.StudyFinal && month >= academicYearStartMonth) {
		view.CurrentCourse = models.CourseGraduated
		return view
	}
	course := year - start
	if month >= academicYearStartMonth {
		course++
	}
	view.CurrentCourse = strconv.Itoa(course)
	return view
}

// ageAt reports full years as of the most recent birthday.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func matchesSearch(v models.StudentView, search string) bool {
	for _, value := range []string{v.Name, v.Surname, v.Lastname, v.Birthday, v.StudyStart, v.Faculty} {
		if containsFold(value, search) {
			return true
		}
	}
	return false
}

// fieldText resolves a filterable field by its wire name; fio is the only
// derived field that can be filtered on.
func fieldText(v models.StudentView, field string) (string, bool) {
	switch field {
	case "name":
		return v.Name, true
	case "surname":
		return v.Surname, true
	case "lastname":
		return v.Lastname, true
	case "birthday":
		return v.Birthday, true
	case "studyStart":
		return v.StudyStart, true
	case "faculty":
		return v.Faculty, true
	case "fio":
		return v.FIO, true
	default:
		return "", false
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func filterViews(views []models.StudentView, keep func(models.StudentView) bool) []models.StudentView {
	out := views[:0]
	for _, v := range views {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Comparable value kinds for the sort. Comparing values of differing or
// unsupported kinds yields "equal", which the stable sort turns into a no-op.
type fieldKind int

const (
	kindUnknown fieldKind = iota
	kindString
	kindNumber
	kindDate
)

func sortKind(field string) fieldKind {
	switch field {
	case "name", "surname", "lastname", "faculty", "fio":
		return kindString
	case "studyStart", "studyFinal", "age":
		return kindNumber
	case "birthday", "createdAt", "updatedAt":
		return kindDate
	default:
		return kindUnknown
	}
}

func (e *Engine) sortViews(views []models.StudentView, field string, descending bool) {
	kind := sortKind(field)
	if kind == kindUnknown {
		return
	}
	// Locale-aware, case-insensitive collation for string fields. CompareString
	// mutates collator-internal buffers, so the collator must not outlive one sort.
	coll := collate.New(language.Russian, collate.IgnoreCase)
	sort.SliceStable(views, func(i, j int) bool {
		cmp := compareViews(coll, views[i], views[j], field, kind)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareViews(coll *collate.Collator, a, b models.StudentView, field string, kind fieldKind) int {
	switch kind {
	case kindString:
		av, _ := fieldText(a, field)
		bv, _ := fieldText(b, field)
		return coll.CompareString(av, bv)
	case kindNumber:
		av, aok := numberValue(a, field)
		bv, bok := numberValue(b, field)
		if !aok || !bok {
			return 0
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case kindDate:
		av, aok := dateValue(a, field)
		bv, bok := dateValue(b, field)
		if !aok || !bok {
			return 0
		}
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func numberValue(v models.StudentView, field string) (int, bool) {
	switch field {
	case "studyStart":
		n, err := strconv.Atoi(strings.TrimSpace(v.StudyStart))
		return n, err == nil
	case "studyFinal":
		return v.StudyFinal, v.StudyFinal != 0
	case "age":
		return v.Age, true
	default:
		return 0, false
	}
}

func dateValue(v models.StudentView, field string) (time.Time, bool) {
	switch field {
	case "birthday":
		return parseDate(v.Birthday)
	case "createdAt":
		return parseDate(v.CreatedAt)
	case "updatedAt":
		return parseDate(v.UpdatedAt)
	default:
		return time.Time{}, false
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02",
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
