package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
)

func TestStudentLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	students := store.Students()

	id, err := students.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1001", id)

	require.NoError(t, students.Create(ctx, &models.Student{ID: id, Name: "Abebe Kebede", Department: "Computer Science", Status: models.StudentRegistered, Credits: 18}))
	got, err := students.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 18, got.Credits)

	got.Status = models.StudentOnHold
	require.NoError(t, students.Update(ctx, got))
	got, err = students.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StudentOnHold, got.Status)

	require.NoError(t, students.Delete(ctx, id))
	_, err = students.FindByID(ctx, id)
	assert.True(t, repository.IsNotFound(err))
	assert.True(t, repository.IsNotFound(students.Delete(ctx, id)))

	next, err := students.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1002", next)
}

func TestNextIDFollowsSeededIDs(t *testing.T) {
	ctx := context.Background()
	students := NewStore().Students()
	require.NoError(t, students.Create(ctx, &models.Student{ID: "1007", Name: "sami", Department: "Undeclared", Status: models.StudentPending}))

	next, err := students.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1008", next)
}

func TestStudentListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	students := NewStore().Students()
	for i, name := range []string{"Abebe", "Tigist", "Samuel"} {
		id, _ := students.NextID(ctx)
		status := models.StudentPending
		if i == 0 {
			status = models.StudentRegistered
		}
		require.NoError(t, students.Create(ctx, &models.Student{ID: id, Name: name, Department: "Engineering", Status: status}))
	}

	pending := models.StudentPending
	list, total, err := students.List(ctx, models.StudentFilter{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "1002", list[0].ID)

	list, total, err = students.List(ctx, models.StudentFilter{Search: "1003"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "Samuel", list[0].Name)

	list, total, err = students.List(ctx, models.StudentFilter{PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)

	stats, err := students.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ByStatus[models.StudentPending])
}

func TestCourseDeleteDetachesStudents(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	course := &models.Course{Name: "Computer Science"}
	require.NoError(t, store.Courses().Create(ctx, course))
	require.NoError(t, store.Students().Create(ctx, &models.Student{ID: "1001", Name: "Abebe", Department: "CS", Status: models.StudentPending, CourseID: &course.ID}))

	got, err := store.Courses().FindByID(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, got.Students, 1)

	st, err := store.Students().FindByID(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, st.CourseName)
	assert.Equal(t, "Computer Science", *st.CourseName)

	require.NoError(t, store.Courses().Delete(ctx, course.ID))
	st, err = store.Students().FindByID(ctx, "1001")
	require.NoError(t, err)
	assert.Nil(t, st.CourseID)
	assert.Nil(t, st.CourseName)
}

func TestUserLookupIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()
	require.NoError(t, users.Create(ctx, &models.User{Name: "admin", Email: "admin@portal.edu", Role: models.RoleAdmin}))

	u, err := users.FindByEmail(ctx, "ADMIN@portal.edu")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Name)

	admins, err := users.ListByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestRequestsNewestFirst(t *testing.T) {
	ctx := context.Background()
	requests := NewStore().Requests()
	sid := "1001"
	require.NoError(t, requests.Create(ctx, &models.PortalRequest{Reference: "A", StudentID: &sid}))
	require.NoError(t, requests.Create(ctx, &models.PortalRequest{Reference: "B", StudentID: &sid}))
	require.NoError(t, requests.Create(ctx, &models.PortalRequest{Reference: "C"}))

	out, err := requests.ListByStudent(ctx, sid)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "B", out[0].Reference)
}

func TestExportJobUpdateAndListing(t *testing.T) {
	ctx := context.Background()
	jobs := NewStore().ExportJobs()
	job := &models.ExportJob{Type: models.ExportRoster}
	require.NoError(t, jobs.Create(ctx, job))

	pending, err := jobs.ListUnfinished(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	status := models.ExportFinished
	url := "/api/v1/export/token"
	finished := time.Now().Add(-48 * time.Hour)
	require.NoError(t, jobs.Update(ctx, job.ID, models.ExportJobUpdate{Status: &status, ResultURL: &url, FinishedAt: &finished}))

	old, err := jobs.ListFinishedBefore(ctx, time.Now().Add(-24*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, url, *old[0].ResultURL)

	assert.True(t, repository.IsNotFound(jobs.Update(ctx, "missing", models.ExportJobUpdate{Status: &status})))
}
