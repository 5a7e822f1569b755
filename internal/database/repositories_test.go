package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/coursebot/pkg/models"
)

// setupTestDB points the package at a fresh in-memory sqlite database
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	prev := DB
	DB = db
	require.NoError(t, initializeSchema())

	t.Cleanup(func() {
		db.Close()
		DB = prev
	})
}

func createTestCourse(t *testing.T, title string) int64 {
	t.Helper()
	id, err := NewCourseRepository().Create(context.Background(), &models.Course{
		Title:        title,
		DurationDays: 5,
	})
	require.NoError(t, err)
	return id
}

func createTestLesson(t *testing.T, courseID int64, day int, sendTime string) int64 {
	t.Helper()
	id, err := NewLessonRepository().Create(context.Background(), &models.Lesson{
		CourseID:   courseID,
		DayNumber:  day,
		SendTime:   sendTime,
		LessonType: models.LessonTheory,
		Text:       "текст урока",
	})
	require.NoError(t, err)
	return id
}

func TestLessonOrderWithUnpaddedSendTime(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	courseID := createTestCourse(t, "Курс")
	late := createTestLesson(t, courseID, 1, "10:00")
	early := createTestLesson(t, courseID, 1, "9:00")

	lessons, err := NewLessonRepository().GetByCourse(ctx, courseID)
	require.NoError(t, err)
	require.Len(t, lessons, 2)

	// "9:00" is stored as "09:00", so the text ORDER BY keeps the
	// morning slot ahead of the later one
	assert.Equal(t, early, lessons[0].ID)
	assert.Equal(t, "09:00", lessons[0].SendTime)
	assert.Equal(t, late, lessons[1].ID)
}

func TestUserGetOrCreate(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository()

	user, created, err := repo.GetOrCreate(ctx, 12345, "ivan", "Иван")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12345), user.TelegramID)

	again, created, err := repo.GetOrCreate(ctx, 12345, "ivan", "Иван")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProgressRecordSentIsIdempotent(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	user, _, err := NewUserRepository().GetOrCreate(ctx, 1, "", "")
	require.NoError(t, err)
	courseID := createTestCourse(t, "Курс")
	lessonID := createTestLesson(t, courseID, 1, "10:00")

	progress := NewProgressRepository()

	created, err := progress.RecordSent(ctx, user.ID, lessonID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = progress.RecordSent(ctx, user.ID, lessonID)
	require.NoError(t, err)
	assert.False(t, created, "second send must be a no-op")

	sent, err := progress.SentLessonIDs(ctx, user.ID, courseID)
	require.NoError(t, err)
	assert.Len(t, sent, 1)
	_, ok := sent[lessonID]
	assert.True(t, ok)
}

func TestProgressMarkCompleted(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	user, _, err := NewUserRepository().GetOrCreate(ctx, 1, "", "")
	require.NoError(t, err)
	courseID := createTestCourse(t, "Курс")
	lessonID := createTestLesson(t, courseID, 1, "10:00")

	progress := NewProgressRepository()

	// Completing without a prior send still creates the row
	require.NoError(t, progress.MarkCompleted(ctx, user.ID, lessonID))

	last, err := progress.LastProgressAt(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, last)

	// Completing twice keeps the first completion timestamp
	require.NoError(t, progress.MarkCompleted(ctx, user.ID, lessonID))
}

func TestLastProgressAtEmpty(t *testing.T) {
	setupTestDB(t)

	last, err := NewProgressRepository().LastProgressAt(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestEnrollmentCreateOrReactivate(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	user, _, err := NewUserRepository().GetOrCreate(ctx, 1, "", "")
	require.NoError(t, err)
	courseID := createTestCourse(t, "Курс")
	lessonID := createTestLesson(t, courseID, 1, "10:00")

	enrollments := NewEnrollmentRepository()
	progress := NewProgressRepository()

	enrollment, already, err := enrollments.CreateOrReactivate(ctx, user.ID, courseID)
	require.NoError(t, err)
	assert.False(t, already)
	firstStart := enrollment.StartDate

	// Enrolling again while active is a no-op
	_, already, err = enrollments.CreateOrReactivate(ctx, user.ID, courseID)
	require.NoError(t, err)
	assert.True(t, already)

	_, err = progress.RecordSent(ctx, user.ID, lessonID)
	require.NoError(t, err)

	require.NoError(t, enrollments.Deactivate(ctx, enrollment.ID))
	active, err := enrollments.GetActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Re-enrolling restarts the course from a clean slate
	restarted, already, err := enrollments.CreateOrReactivate(ctx, user.ID, courseID)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, enrollment.ID, restarted.ID)
	assert.False(t, restarted.StartDate.Before(firstStart))

	sent, err := progress.SentLessonIDs(ctx, user.ID, courseID)
	require.NoError(t, err)
	assert.Empty(t, sent, "old progress must not survive a restart")
}

func TestAccessCodeClaim(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	userA, _, err := NewUserRepository().GetOrCreate(ctx, 1, "", "")
	require.NoError(t, err)
	userB, _, err := NewUserRepository().GetOrCreate(ctx, 2, "", "")
	require.NoError(t, err)

	course1 := createTestCourse(t, "Первый")
	course2 := createTestCourse(t, "Второй")

	codes := NewAccessCodeRepository()
	_, err = codes.Create(ctx, "ABC123", []int64{course1, course2})
	require.NoError(t, err)

	missing, err := codes.FindByCode(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ac, err := codes.FindByCode(ctx, "ABC123")
	require.NoError(t, err)
	require.NotNil(t, ac)
	assert.True(t, ac.IsActive)
	assert.Nil(t, ac.ActivatedBy)
	assert.Equal(t, []int64{course1, course2}, ac.CourseIDs)

	require.NoError(t, codes.Claim(ctx, ac.ID, userA.ID))

	// The second claimant loses
	err = codes.Claim(ctx, ac.ID, userB.ID)
	assert.ErrorIs(t, err, ErrCodeAlreadyClaimed)

	ac, err = codes.FindByCode(ctx, "ABC123")
	require.NoError(t, err)
	require.NotNil(t, ac.ActivatedBy)
	assert.Equal(t, userA.ID, *ac.ActivatedBy)
}

func TestMessageCache(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	repo := NewMessageRepository()
	cache := NewMessageCache(repo)

	// Missing slug falls back to the default and is not cached
	assert.Equal(t, "привет", cache.Text(ctx, "welcome", "привет"))

	require.NoError(t, repo.Upsert(ctx, "welcome", "Добро пожаловать!", "greeting"))
	assert.Equal(t, "Добро пожаловать!", cache.Text(ctx, "welcome", "привет"))

	// Writes through Set refresh the cache immediately
	require.NoError(t, cache.Set(ctx, "welcome", "Привет-привет!", "greeting"))
	assert.Equal(t, "Привет-привет!", cache.Text(ctx, "welcome", "привет"))

	// Invalidate forces a reload from the database
	require.NoError(t, repo.Upsert(ctx, "welcome", "Снова привет", "greeting"))
	cache.Invalidate("welcome")
	assert.Equal(t, "Снова привет", cache.Text(ctx, "welcome", "привет"))
}

func TestSettingsRepository(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	repo := NewSettingsRepository()

	value, err := repo.Get(ctx, "support_group_id")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, repo.Set(ctx, "support_group_id", "-100123"))
	value, err = repo.Get(ctx, "support_group_id")
	require.NoError(t, err)
	assert.Equal(t, "-100123", value)

	require.NoError(t, repo.Set(ctx, "support_group_id", "-100456"))
	value, err = repo.Get(ctx, "support_group_id")
	require.NoError(t, err)
	assert.Equal(t, "-100456", value)
}
