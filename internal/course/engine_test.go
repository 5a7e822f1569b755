package course

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/coursebot/internal/fsm"
	"github.com/example/coursebot/pkg/models"
)

// fakeRepo is an in-memory Repository for engine tests
type fakeRepo struct {
	users       map[int64]*models.User
	courses     map[int64]*models.Course
	lessons     map[int64][]models.Lesson
	enrollments []models.Enrollment

	sent         map[int64]map[int64]struct{}
	completed    map[int64]map[int64]struct{}
	lastProgress map[int64]time.Time
	deactivated  map[int64]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:        make(map[int64]*models.User),
		courses:      make(map[int64]*models.Course),
		lessons:      make(map[int64][]models.Lesson),
		sent:         make(map[int64]map[int64]struct{}),
		completed:    make(map[int64]map[int64]struct{}),
		lastProgress: make(map[int64]time.Time),
		deactivated:  make(map[int64]bool),
	}
}

func (r *fakeRepo) ActiveEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range r.enrollments {
		if !r.deactivated[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) ActiveEnrollmentsByUser(ctx context.Context, userID int64) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range r.enrollments {
		if e.UserID == userID && !r.deactivated[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) CourseByID(ctx context.Context, id int64) (*models.Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %d not found", id)
	}
	return c, nil
}

func (r *fakeRepo) CourseLessons(ctx context.Context, courseID int64) ([]models.Lesson, error) {
	return r.lessons[courseID], nil
}

func (r *fakeRepo) LessonByID(ctx context.Context, id int64) (*models.Lesson, error) {
	for _, lessons := range r.lessons {
		for i := range lessons {
			if lessons[i].ID == id {
				return &lessons[i], nil
			}
		}
	}
	return nil, fmt.Errorf("lesson %d not found", id)
}

func (r *fakeRepo) UserByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	return u, nil
}

func (r *fakeRepo) SentLessonIDs(ctx context.Context, userID, courseID int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{})
	for _, lesson := range r.lessons[courseID] {
		if _, ok := r.sent[userID][lesson.ID]; ok {
			out[lesson.ID] = struct{}{}
		}
	}
	return out, nil
}

func (r *fakeRepo) RecordSent(ctx context.Context, userID, lessonID int64) (bool, error) {
	if r.sent[userID] == nil {
		r.sent[userID] = make(map[int64]struct{})
	}
	if _, ok := r.sent[userID][lessonID]; ok {
		return false, nil
	}
	r.sent[userID][lessonID] = struct{}{}
	r.lastProgress[userID] = time.Now()
	return true, nil
}

func (r *fakeRepo) MarkCompleted(ctx context.Context, userID, lessonID int64) error {
	if _, err := r.RecordSent(ctx, userID, lessonID); err != nil {
		return err
	}
	if r.completed[userID] == nil {
		r.completed[userID] = make(map[int64]struct{})
	}
	r.completed[userID][lessonID] = struct{}{}
	return nil
}

func (r *fakeRepo) LastProgressAt(ctx context.Context, userID int64) (*time.Time, error) {
	t, ok := r.lastProgress[userID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *fakeRepo) DeactivateEnrollment(ctx context.Context, enrollmentID int64) error {
	r.deactivated[enrollmentID] = true
	return nil
}

func (r *fakeRepo) UpdateEnrollmentDay(ctx context.Context, enrollmentID int64, day int) error {
	for i := range r.enrollments {
		if r.enrollments[i].ID == enrollmentID {
			r.enrollments[i].CurrentDay = day
		}
	}
	return nil
}

// sentMessage records one notifier call
type sentMessage struct {
	TelegramID int64
	Text       string
	Kind       MediaKind
	FileID     string
	Controls   *Controls
}

type fakeNotifier struct {
	messages []sentMessage
	mediaErr error
}

func (n *fakeNotifier) SendText(ctx context.Context, telegramID int64, text string, controls *Controls) error {
	n.messages = append(n.messages, sentMessage{TelegramID: telegramID, Text: text, Controls: controls})
	return nil
}

func (n *fakeNotifier) SendMedia(ctx context.Context, telegramID int64, kind MediaKind, fileID, caption string, controls *Controls) error {
	if n.mediaErr != nil {
		return n.mediaErr
	}
	n.messages = append(n.messages, sentMessage{TelegramID: telegramID, Text: caption, Kind: kind, FileID: fileID, Controls: controls})
	return nil
}

// newTestEngine builds an engine with one enrolled user on one course
func newTestEngine(lessons []models.Lesson, start time.Time) (*Engine, *fakeRepo, *fakeNotifier, *fsm.MemoryStore) {
	repo := newFakeRepo()
	repo.users[1] = &models.User{ID: 1, TelegramID: 100}
	repo.courses[10] = &models.Course{ID: 10, Title: "Английский с нуля", DurationDays: 5}
	repo.lessons[10] = lessons
	repo.enrollments = []models.Enrollment{
		{ID: 50, UserID: 1, CourseID: 10, StartDate: start, CurrentDay: 1, IsActive: true},
	}

	notifier := &fakeNotifier{}
	states := fsm.NewMemoryStore()
	engine := NewEngine(repo, notifier, states)
	return engine, repo, notifier, states
}

func TestNextDue_RespectsUnlockTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: 1, CourseID: 10, DayNumber: 1, SendTime: "10:00", LessonType: models.LessonTheory, Text: "Урок 1"},
	}
	engine, repo, _, _ := newTestEngine(lessons, start)
	ctx := context.Background()

	engine.now = func() time.Time { return time.Date(2024, 1, 2, 9, 59, 0, 0, time.UTC) }
	due, exhausted, err := engine.NextDue(ctx, &repo.enrollments[0])
	require.NoError(t, err)
	assert.False(t, exhausted)
	assert.Nil(t, due, "lesson must stay locked a minute before its slot")

	engine.now = func() time.Time { return time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC) }
	due, exhausted, err = engine.NextDue(ctx, &repo.enrollments[0])
	require.NoError(t, err)
	assert.False(t, exhausted)
	require.NotNil(t, due)
	assert.Equal(t, int64(1), due.Lesson.ID)
	assert.True(t, due.BlockStart)
}

func TestNextDue_BlockStart(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: 1, CourseID: 10, DayNumber: 1, SendTime: "10:00", LessonType: models.LessonTheory, Text: "a"},
		{ID: 2, CourseID: 10, DayNumber: 1, SendTime: "10:00", LessonType: models.LessonTheory, Text: "b"},
		{ID: 3, CourseID: 10, DayNumber: 1, SendTime: "12:00", LessonType: models.LessonTheory, Text: "c"},
	}
	engine, repo, _, _ := newTestEngine(lessons, start)
	ctx := context.Background()
	engine.now = func() time.Time { return time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC) }

	due, _, err := engine.NextDue(ctx, &repo.enrollments[0])
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, int64(1), due.Lesson.ID)
	assert.True(t, due.BlockStart)

	_, err2 := repo.RecordSent(ctx, 1, 1)
	require.NoError(t, err2)

	due, _, err = engine.NextDue(ctx, &repo.enrollments[0])
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, int64(2), due.Lesson.ID)
	assert.False(t, due.BlockStart, "second lesson of the same slot is not a block start")

	_, err2 = repo.RecordSent(ctx, 1, 2)
	require.NoError(t, err2)

	due, _, err = engine.NextDue(ctx, &repo.enrollments[0])
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, int64(3), due.Lesson.ID)
	assert.True(t, due.BlockStart, "new slot opens a new block")
}

func TestNextDue_Exhausted(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: 1, CourseID: 10, DayNumber: 1, SendTime: "10:00", LessonType: models.LessonTheory, Text: "a"},
	}
	engine, repo, _, _ := newTestEngine(lessons, start)
	ctx := context.Background()
	engine.now = func() time.Time { return start.Add(48 * time.Hour) }

	_, err := repo.RecordSent(ctx, 1, 1)
	require.NoError(t, err)

	due, exhausted, err := engine.NextDue(ctx, &repo.enrollments[0])
	require.NoError(t, err)
	assert.Nil(t, due)
	assert.True(t, exhausted)
}

func TestPush_TheoryCompletesOnSend(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: 1, CourseID: 10, DayNumber: 2, SendTime: "10:00", LessonType: models.LessonTheory, Text: "теория"},
	}
	engine, repo, notifier, _ := newTestEngine(lessons, start)
	ctx := context.Background()

	require.NoError(t, engine.Push(ctx, &repo.enrollments[0], &repo.lessons[10][0]))

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, int64(100), notifier.messages[0].TelegramID)
	require.NotNil(t, notifier.messages[0].Controls)
	assert.Equal(t, "next:1", notifier.messages[0].Controls.Rows[0].Data)

	_, sent := repo.sent[1][1]
	assert.True(t, sent)
	_, completed := repo.completed[1][1]
	assert.True(t, completed, "theory lessons complete on delivery")
	assert.Equal(t, 2, repo.enrollments[0].CurrentDay)
}

func TestPush_QuizStaysOpen(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: 1, CourseID: 10, DayNumber: 1, SendTime: "10:00", LessonType: models.LessonQuiz,
			Text: "Выбери фрукт", QuizOptions: "Apple\nBanana", CorrectAnswer: "Apple"},
	}
	engine, repo, notifier, _ := newTestEngine(lessons, start)
	ctx := context.Background()

	require.NoError(t, engine.Push(ctx, &repo.enrollments[0], &repo.lessons[10][0]))

	require.Len(t, notifier.messages, 1)
	controls := notifier.messages[0].Controls
	require.NotNil(t, controls)
	require.Len(t, controls.Rows, 2)
	assert.Equal(t, "Apple", controls.Rows[0].Text)
	assert.Equal(t, "ans:1:0", controls.Rows[0].Data)
	assert.Equal(t, "ans:1:1", controls.Rows[1].Data)

	_, sent := repo.sent[1][1]
	assert.True(t, sent)
	_, completed := repo.completed[1][1]
	assert.False(t, completed, "quiz lessons wait for an answer")
}

func TestPush_TextInputOpensPrompt(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: 7, CourseID: 10, DayNumber: 1, SendTime: "10:00", LessonType: models.LessonTextInput,
			Text: "Переведи: привет мир", CorrectAnswer: "hello world"},
	}
	engine, repo, _, states := newTestEngine(lessons, start)
	ctx := context.Background()

	require.NoError(t, engine.Push(ctx, &repo.enrollments[0], &repo.lessons[10][0]))

	state, err := states.Get(ctx, 1)
	require.NoError(t, err)
	typed, ok := state.(fsm.AwaitingTypedAnswer)
	require.True(t, ok, "state = %T", state)
	assert.Equal(t, int64(7), typed.LessonID)
	assert.Equal(t, 0, typed.Attempts)
}

func TestDeliver_SendsEveryAttachmentBeforeText(t *testing.T) {
	engine, _, notifier, _ := newTestEngine(nil, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	lesson := &models.Lesson{
		ID:         1,
		LessonType: models.LessonTheory,
		Text:       "теория",
		Image:      "photo-file-id",
		Audio:      "audio-file-id",
	}
	require.NoError(t, engine.Deliver(ctx, 100, lesson))

	require.Len(t, notifier.messages, 3)
	assert.Equal(t, MediaPhoto, notifier.messages[0].Kind)
	assert.Equal(t, "photo-file-id", notifier.messages[0].FileID)
	assert.Nil(t, notifier.messages[0].Controls)
	assert.Equal(t, MediaAudio, notifier.messages[1].Kind)
	assert.Equal(t, "audio-file-id", notifier.messages[1].FileID)

	// The keyboard rides on the closing text message
	assert.Equal(t, "теория", notifier.messages[2].Text)
	require.NotNil(t, notifier.messages[2].Controls)
	assert.Equal(t, "next:1", notifier.messages[2].Controls.Rows[0].Data)
}

func TestDeliver_MediaFailureStillSendsText(t *testing.T) {
	engine, _, notifier, _ := newTestEngine(nil, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	notifier.mediaErr = fmt.Errorf("file unavailable")
	ctx := context.Background()

	lesson := &models.Lesson{
		ID:         2,
		LessonType: models.LessonTheory,
		Text:       "теория",
		Image:      "photo-file-id",
	}
	require.NoError(t, engine.Deliver(ctx, 100, lesson))

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "теория", notifier.messages[0].Text)
	require.NotNil(t, notifier.messages[0].Controls)
}

func TestDeliver_TextlessLessonKeepsKeyboardOnLastAttachment(t *testing.T) {
	engine, _, notifier, _ := newTestEngine(nil, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	lesson := &models.Lesson{
		ID:         3,
		LessonType: models.LessonTheory,
		Image:      "photo-file-id",
		Document:   "doc-file-id",
	}
	require.NoError(t, engine.Deliver(ctx, 100, lesson))

	require.Len(t, notifier.messages, 2)
	assert.Nil(t, notifier.messages[0].Controls)
	assert.Equal(t, MediaDocument, notifier.messages[1].Kind)
	require.NotNil(t, notifier.messages[1].Controls)
}

func TestAdvanceUser_FinishesExhaustedCourse(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: 1, CourseID: 10, DayNumber: 1, SendTime: "10:00", LessonType: models.LessonTheory, Text: "a"},
	}
	engine, repo, notifier, states := newTestEngine(lessons, start)
	repo.courses[10].FinishMessage = "Курс пройден!"
	ctx := context.Background()
	engine.now = func() time.Time { return start.Add(72 * time.Hour) }

	_, err := repo.RecordSent(ctx, 1, 1)
	require.NoError(t, err)

	require.NoError(t, engine.AdvanceUser(ctx, 1))

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Курс пройден!", notifier.messages[0].Text)
	assert.True(t, repo.deactivated[50])

	state, err := states.Get(ctx, 1)
	require.NoError(t, err)
	assert.IsType(t, fsm.AwaitingAccessCode{}, state)
}

func TestFinishCourse_KeepsStateWithOtherEnrollment(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	engine, repo, _, states := newTestEngine(nil, start)
	repo.courses[11] = &models.Course{ID: 11, Title: "Второй курс", DurationDays: 5}
	repo.enrollments = append(repo.enrollments, models.Enrollment{
		ID: 51, UserID: 1, CourseID: 11, StartDate: start, CurrentDay: 1, IsActive: true,
	})
	ctx := context.Background()
	require.NoError(t, states.Set(ctx, 1, fsm.InProgress{}))

	require.NoError(t, engine.FinishCourse(ctx, &repo.enrollments[0]))

	assert.True(t, repo.deactivated[50])
	assert.False(t, repo.deactivated[51])

	state, err := states.Get(ctx, 1)
	require.NoError(t, err)
	assert.IsType(t, fsm.InProgress{}, state, "state stays in progress while another course runs")
}
