package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/example/coursebot/internal/excel"
	"github.com/example/coursebot/pkg/models"
)

// handleGenCode creates a fresh access code: /gencode <courseID>[,<courseID>...]
func (b *Bot) handleGenCode(ctx context.Context, message *tgbotapi.Message) {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		b.reply(message.Chat.ID, "Использование: /gencode <courseID>[,<courseID>...]")
		return
	}

	var courseIDs []int64
	for _, part := range strings.Split(args, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			b.reply(message.Chat.ID, fmt.Sprintf("Некорректный ID курса: %s", part))
			return
		}
		c, err := b.store.CourseByID(ctx, id)
		if err != nil || c == nil {
			b.reply(message.Chat.ID, fmt.Sprintf("Курс %d не найден.", id))
			return
		}
		courseIDs = append(courseIDs, id)
	}

	code := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	if _, err := b.store.Codes.Create(ctx, code, courseIDs); err != nil {
		log.Printf("Failed to create access code: %v", err)
		b.reply(message.Chat.ID, "Не удалось создать код.")
		return
	}

	b.reply(message.Chat.ID, fmt.Sprintf("🔑 Новый код доступа: <code>%s</code>", code))
}

// handleImportCommand arms the lesson import: /import <courseID>, then a
// spreadsheet upload in the same chat
func (b *Bot) handleImportCommand(ctx context.Context, message *tgbotapi.Message) {
	courseID, err := strconv.ParseInt(strings.TrimSpace(message.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(message.Chat.ID, "Использование: /import <courseID>, затем отправь файл .xlsx с уроками.")
		return
	}
	c, err := b.store.CourseByID(ctx, courseID)
	if err != nil || c == nil {
		b.reply(message.Chat.ID, fmt.Sprintf("Курс %d не найден.", courseID))
		return
	}

	b.importMu.Lock()
	b.awaitingImport[message.Chat.ID] = courseID
	b.importMu.Unlock()

	b.reply(message.Chat.ID, fmt.Sprintf("Отправь файл .xlsx с уроками для курса «%s».", c.Title))
}

// handleImportUpload consumes a pending spreadsheet upload. It reports
// whether the document was claimed by an armed import.
func (b *Bot) handleImportUpload(ctx context.Context, message *tgbotapi.Message) bool {
	b.importMu.Lock()
	courseID, ok := b.awaitingImport[message.Chat.ID]
	if ok {
		delete(b.awaitingImport, message.Chat.ID)
	}
	b.importMu.Unlock()
	if !ok {
		return false
	}

	url, err := b.api.GetFileDirectURL(message.Document.FileID)
	if err != nil {
		log.Printf("Failed to resolve import file URL: %v", err)
		b.reply(message.Chat.ID, "Не удалось скачать файл.")
		return true
	}

	resp, err := http.Get(url)
	if err != nil {
		log.Printf("Failed to download import file: %v", err)
		b.reply(message.Chat.ID, "Не удалось скачать файл.")
		return true
	}
	defer resp.Body.Close()

	result, err := excel.ImportLessons(ctx, resp.Body, courseID)
	if err != nil {
		log.Printf("Failed to import lessons: %v", err)
		b.reply(message.Chat.ID, fmt.Sprintf("Ошибка импорта: %v", err))
		return true
	}

	report := fmt.Sprintf("📥 Импорт завершен.\nОбработано строк: %d\nСоздано уроков: %d\nПропущено: %d",
		result.TotalProcessed, result.Created, result.Skipped)
	if len(result.Errors) > 0 {
		report += "\n\nОшибки:\n" + strings.Join(result.Errors, "\n")
	}
	b.reply(message.Chat.ID, report)
	return true
}

// handleAdminStats reports headline usage numbers
func (b *Bot) handleAdminStats(ctx context.Context, message *tgbotapi.Message) {
	users, err := b.store.Users.Count(ctx)
	if err != nil {
		log.Printf("Failed to count users: %v", err)
		return
	}
	courses, err := b.store.Courses.Count(ctx)
	if err != nil {
		log.Printf("Failed to count courses: %v", err)
		return
	}
	active, err := b.store.Enrollments.CountActive(ctx)
	if err != nil {
		log.Printf("Failed to count enrollments: %v", err)
		return
	}

	b.reply(message.Chat.ID, fmt.Sprintf(
		"📊 Статистика\n\nПользователей: %d\nКурсов: %d\nАктивных записей: %d",
		users, courses, active))
}

// handleTestLesson previews a lesson in the admin's chat without touching
// progress: /test <lessonID>
func (b *Bot) handleTestLesson(ctx context.Context, message *tgbotapi.Message) {
	lessonID, err := strconv.ParseInt(strings.TrimSpace(message.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(message.Chat.ID, "Использование: /test <lessonID>")
		return
	}

	lesson, err := b.store.LessonByID(ctx, lessonID)
	if err != nil || lesson == nil {
		b.reply(message.Chat.ID, fmt.Sprintf("Урок %d не найден.", lessonID))
		return
	}

	if err := b.engine.Deliver(ctx, message.Chat.ID, lesson); err != nil {
		log.Printf("Failed to deliver test lesson %d: %v", lessonID, err)
		b.reply(message.Chat.ID, "Не удалось отправить урок.")
	}
}

// handleCourses lists every course with the IDs used by /gencode and
// /import
func (b *Bot) handleCourses(ctx context.Context, message *tgbotapi.Message) {
	courses, err := b.store.Courses.GetAll(ctx)
	if err != nil {
		log.Printf("Failed to list courses: %v", err)
		b.reply(message.Chat.ID, "Не удалось загрузить курсы.")
		return
	}
	if len(courses) == 0 {
		b.reply(message.Chat.ID, "Курсов пока нет. Создай первый: /addcourse <название> | <дней>")
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 Курсы:\n")
	for _, c := range courses {
		sb.WriteString(fmt.Sprintf("%d. %s (%d дн.)\n", c.ID, c.Title, c.DurationDays))
	}
	b.reply(message.Chat.ID, sb.String())
}

// handleAddCourse creates a course:
// /addcourse <название> | <дней> [| <стартовое сообщение> [| <финальное>]]
func (b *Bot) handleAddCourse(ctx context.Context, message *tgbotapi.Message) {
	const usage = "Использование: /addcourse <название> | <дней> [| <стартовое сообщение> [| <финальное>]]"

	parts := strings.Split(message.CommandArguments(), "|")
	if len(parts) < 2 {
		b.reply(message.Chat.ID, usage)
		return
	}
	title := strings.TrimSpace(parts[0])
	days, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if title == "" || err != nil || days < 1 {
		b.reply(message.Chat.ID, usage)
		return
	}

	course := &models.Course{Title: title, DurationDays: days}
	if len(parts) > 2 {
		course.StartMessage = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		course.FinishMessage = strings.TrimSpace(parts[3])
	}

	id, err := b.store.Courses.Create(ctx, course)
	if err != nil {
		log.Printf("Failed to create course: %v", err)
		b.reply(message.Chat.ID, "Не удалось создать курс.")
		return
	}
	b.reply(message.Chat.ID, fmt.Sprintf(
		"✅ Курс №%d «%s» создан. Загрузи уроки: /import %d", id, title, id))
}

// handleSetMessage overrides a bot text template: /setmessage <slug> <текст>
func (b *Bot) handleSetMessage(ctx context.Context, message *tgbotapi.Message) {
	args := strings.SplitN(strings.TrimSpace(message.CommandArguments()), " ", 2)
	if len(args) < 2 || args[0] == "" {
		b.reply(message.Chat.ID, "Использование: /setmessage <slug> <текст>")
		return
	}

	if err := b.messages.Set(ctx, args[0], args[1], ""); err != nil {
		log.Printf("Failed to set message %q: %v", args[0], err)
		b.reply(message.Chat.ID, "Не удалось сохранить шаблон.")
		return
	}
	b.reply(message.Chat.ID, fmt.Sprintf("✅ Шаблон <code>%s</code> обновлен.", args[0]))
}
