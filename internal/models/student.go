package models

// Student is one directory record exactly as persisted in the collection file.
// Birthday and StudyStart are stored verbatim as strings and parsed only when
// derived fields are computed.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Lastname   string `json:"lastname"`
	Birthday   string `json:"birthday"`
	StudyStart string `json:"studyStart"`
	Faculty    string `json:"faculty"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// CourseGraduated is the terminal course marker reported once the study period is over.
const CourseGraduated = "graduated"

// StudentView is the query-time projection of a record: the stored fields plus
// derived academic fields. Views are computed fresh per query and never persisted.
type StudentView struct {
	Student
	FIO           string `json:"fio"`
	Age           int    `json:"age"`
	StudyFinal    int    `json:"studyFinal"`
	CurrentCourse string `json:"currentCourse"`
}

// StudentFilter carries list query parameters. All fields are optional and
// combine as logical AND; sort is applied last and never filters.
type StudentFilter struct {
	Search     string
	Fields     map[string]string
	FinalYear  *int
	SortBy     string
	Descending bool
}
