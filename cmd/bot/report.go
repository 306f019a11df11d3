package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/Freeeeeet/attendance_bot/internal/store"
)

// writeReport печатает посещаемость студентов по каждому курсу
func writeReport(out io.Writer, st *store.Store, courseCode string) error {
	courses := st.Courses()
	if courseCode != "" {
		course, ok := st.CourseByCode(courseCode)
		if !ok {
			return fmt.Errorf("course %s not found", courseCode)
		}
		courses = []*model.Course{course}
	}

	sort.Slice(courses, func(i, j int) bool {
		return courses[i].Code < courses[j].Code
	})

	l := st.Ledger()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	for _, course := range courses {
		ids := []string{course.ID}
		sessions := st.SessionsForCourses(ids)

		fmt.Fprintf(w, "%s\t%s\tsessions: %d\n", course.Code, course.Name, len(sessions))

		learners := make(map[string]struct{})
		for _, r := range l.RecordsForCourses(ids) {
			learners[r.SubjectID] = struct{}{}
		}
		names := make([]string, 0, len(learners))
		for name := range learners {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			attended := 0
			for _, session := range sessions {
				if l.Has(session.ID, name) {
					attended++
				}
			}
			fmt.Fprintf(w, "  %s\t%d/%d\t%.0f%%\n", name, attended, len(sessions), l.AttendanceRatio(name, ids)*100)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
