package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

const examMarker = "📝 "

type snapshotLoader interface {
	Load(ctx context.Context) (models.Snapshot, error)
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// WidgetServiceConfig tunes rendering.
type WidgetServiceConfig struct {
	CacheTTL   time.Duration
	CountLimit int
	LinkScheme string
}

// WidgetService renders widget views from the current snapshot.
type WidgetService struct {
	snapshots snapshotLoader
	cache     viewCache
	metrics   *MetricsService
	cfg       WidgetServiceConfig
	logger    *zap.Logger
}

// NewWidgetService constructs a WidgetService. cache and metrics may be nil.
func NewWidgetService(snapshots snapshotLoader, cache viewCache, metrics *MetricsService, cfg WidgetServiceConfig, logger *zap.Logger) *WidgetService {
	if cfg.CountLimit <= 0 {
		cfg.CountLimit = 10
	}
	if cfg.LinkScheme == "" {
		cfg.LinkScheme = "nscgschedule"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WidgetService{snapshots: snapshots, cache: cache, metrics: metrics, cfg: cfg, logger: logger}
}

var defaultWidgetDp = map[models.WidgetKind][2]int{
	models.WidgetNextLessonCompact: {180, 40},
	models.WidgetNextLessonCard:    {180, 180},
	models.WidgetTodaySchedule:     {250, 180},
	models.WidgetNextExamCompact:   {180, 40},
	models.WidgetNextExamCard:      {180, 180},
	models.WidgetExamCountdown:     {180, 180},
	models.WidgetExamDetails:       {280, 180},
	models.WidgetUnifiedCompact:    {250, 110},
	models.WidgetUnifiedFull:       {180, 250},
}

// ResolveSize fills in the host-reported size with the kind's default.
func ResolveSize(kind models.WidgetKind, query dto.WidgetSizeQuery) dto.WidgetSize {
	def := defaultWidgetDp[kind]
	width, height := query.Width, query.Height
	if width <= 0 {
		width = def[0]
	}
	if height <= 0 {
		height = def[1]
	}
	return dto.WidgetSize{WidthDp: width, HeightDp: height, Columns: WidgetCells(width), Rows: WidgetCells(height)}
}

// Render returns the view for kind and whether it was served from cache.
func (s *WidgetService) Render(ctx context.Context, kind models.WidgetKind, query dto.WidgetSizeQuery) (*dto.WidgetView, bool, error) {
	if !kind.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrUnknownWidget, fmt.Sprintf("unknown widget kind %q", kind))
	}
	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	now := snapshot.Now()
	size := ResolveSize(kind, query)

	key := widgetCacheKey(kind, size, now)
	if s.cache != nil {
		var cached dto.WidgetView
		if s.cache.Get(ctx, key, &cached) {
			return &cached, true, nil
		}
	}

	projection := NewProjection(snapshot, now)
	view := s.build(kind, size, projection)
	view.DebugClock = snapshot.Debug.Enabled

	empty := models.EmptyNone
	if view.Empty != nil {
		empty = models.EmptyState(view.Empty.State)
	}
	s.metrics.RecordWidgetRender(kind, empty, snapshot.Debug.Enabled)

	if s.cache != nil {
		s.cache.Set(ctx, key, view, s.cfg.CacheTTL)
	}
	return view, false, nil
}

// widgetCacheKey is scoped by group so refresh broadcasts can drop one group.
func widgetCacheKey(kind models.WidgetKind, size dto.WidgetSize, now time.Time) string {
	return fmt.Sprintf("widgets:%s:%s:%dx%d:%s", kind.Group(), kind, size.Columns, size.Rows, now.Format("200601021504"))
}

// WidgetGroupCachePattern matches every cached view of group.
func WidgetGroupCachePattern(group models.WidgetGroup) string {
	return "widgets:" + string(group) + ":*"
}

func (s *WidgetService) build(kind models.WidgetKind, size dto.WidgetSize, p Projection) *dto.WidgetView {
	view := &dto.WidgetView{
		Kind:         string(kind),
		Group:        string(kind.Group()),
		Size:         size,
		EffectiveNow: p.Now().Format(time.RFC3339),
	}
	switch kind {
	case models.WidgetNextLessonCompact:
		s.buildNextLesson(view, p, false)
	case models.WidgetNextLessonCard:
		s.buildNextLesson(view, p, true)
	case models.WidgetTodaySchedule:
		s.buildTodaySchedule(view, p)
	case models.WidgetNextExamCompact:
		s.buildNextExamCompact(view, p)
	case models.WidgetNextExamCard:
		s.buildNextExamCard(view, p)
	case models.WidgetExamCountdown:
		s.buildExamCountdown(view, p)
	case models.WidgetExamDetails:
		s.buildExamDetails(view, p)
	case models.WidgetUnifiedCompact:
		s.buildUnifiedCompact(view, p)
	case models.WidgetUnifiedFull:
		s.buildUnifiedFull(view, p)
	}
	return view
}

func (s *WidgetService) buildNextLesson(view *dto.WidgetView, p Projection, card bool) {
	current, inProgress := p.CurrentItem()
	item := current
	if !inProgress {
		next, ok := p.NextItem()
		if !ok {
			view.Empty = emptyView(p.LessonEmptyState(), card)
			return
		}
		item = next
	}

	var entry dto.WidgetEntry
	switch v := item.(type) {
	case models.LessonItem:
		entry = dto.WidgetEntry{
			Type:  string(models.ScheduleItemLesson),
			Title: v.Lesson.Name,
			Time:  TimeRange(v.Lesson.StartTime, v.Lesson.EndTime),
			Room:  RoomOrPlaceholder(v.Lesson.Room),
		}
		if card {
			entry.Subtitle = v.Lesson.Course
			entry.Room = "Room: " + RoomOrPlaceholder(v.Lesson.Room)
			entry.Detail = v.Lesson.FirstTeacher()
		}
	case models.ExamItem:
		entry = dto.WidgetEntry{
			Type:  string(models.ScheduleItemExam),
			Title: examMarker + v.Exam.SubjectDescription,
			Time:  TimeRange(v.Exam.StartTime, v.Exam.FinishTime),
			Room:  ExamRoomText(v.Exam),
		}
		if card {
			entry.Subtitle = "Exam"
			if v.Exam.ExamRoom == "" {
				entry.Room = "Room: " + roomPlaceholder
			} else {
				entry.Room = ExamLocationLine(v.Exam)
			}
		}
	}

	start, _ := models.ItemTimes(item)
	switch {
	case card && inProgress:
		entry.Status, entry.Badge = "Now", start
	case card:
		entry.Status, entry.Badge = "Up Next", start
	case inProgress:
		entry.Status = "NOW"
	default:
		entry.Status = start
	}
	view.Primary = &entry
}

// todayScheduleLimit maps widget rows to visible rows.
func todayScheduleLimit(rows int) int {
	switch rows {
	case 1:
		return 3
	case 2:
		return 5
	default:
		return 8
	}
}

func (s *WidgetService) buildTodaySchedule(view *dto.WidgetView, p Projection) {
	view.Title = "Today's Schedule"
	view.Link = s.link("timetable", nil)
	count := len(p.UpcomingMergedToday(s.cfg.CountLimit))
	view.Count = &count

	todayLessons := p.TodayLessons()
	for _, item := range p.UpcomingMergedToday(todayScheduleLimit(view.Size.Rows)) {
		switch v := item.(type) {
		case models.LessonItem:
			index := lessonIndex(todayLessons, v.Lesson)
			view.Items = append(view.Items, dto.WidgetEntry{
				Type:   string(models.ScheduleItemLesson),
				Title:  v.Lesson.Name,
				Time:   v.Lesson.StartTime,
				Room:   RoomOrPlaceholder(v.Lesson.Room),
				Detail: v.Lesson.FirstTeacher(),
				Link: s.link("timetable", url.Values{
					"day":    {p.DayName()},
					"lesson": {strconv.Itoa(index)},
				}),
			})
		case models.ExamItem:
			view.Items = append(view.Items, dto.WidgetEntry{
				Type:   string(models.ScheduleItemExam),
				Title:  examMarker + v.Exam.SubjectDescription,
				Time:   v.Exam.StartTime,
				Room:   ExamRoomText(v.Exam),
				Detail: SeatText(v.Exam.SeatNumber),
			})
		}
	}
	if len(view.Items) == 0 {
		view.Empty = emptyView(p.LessonEmptyState(), true)
	}
}

func (s *WidgetService) buildNextExamCompact(view *dto.WidgetView, p Projection) {
	exam, ok := p.NextExam()
	if !ok {
		view.Empty = emptyView(p.ExamEmptyState(), false)
		return
	}
	days := p.DaysUntilExam(exam)
	badge := exam.StartTime
	if days > 0 {
		badge = fmt.Sprintf("%dd", days)
	}
	view.Primary = &dto.WidgetEntry{
		Type:     string(models.ScheduleItemExam),
		Title:    exam.SubjectDescription,
		Subtitle: FormatExamDateShort(exam.Date, p.Now().Location()),
		Time:     exam.StartTime,
		Badge:    badge,
		Status:   FormatExamCountdown(days, p.MinutesUntil(exam.StartTime)),
	}
}

func (s *WidgetService) buildNextExamCard(view *dto.WidgetView, p Projection) {
	exam, ok := p.NextExam()
	if !ok {
		view.Empty = emptyView(p.ExamEmptyState(), true)
		return
	}
	days := p.DaysUntilExam(exam)
	badge := exam.StartTime
	if days > 0 {
		badge = fmt.Sprintf("in %dd", days)
	}
	room := "Room: " + RoomOrPlaceholder(exam.ExamRoom)
	if HasUsablePreRoom(exam.PreRoom) {
		room = ExamRoomText(exam)
	}
	detail := ""
	if exam.SeatNumber != "" {
		detail = "Seat: " + exam.SeatNumber
	}
	view.Primary = &dto.WidgetEntry{
		Type:     string(models.ScheduleItemExam),
		Title:    exam.SubjectDescription,
		Subtitle: exam.Paper,
		Time:     TimeRange(exam.StartTime, exam.FinishTime),
		Room:     room,
		Detail:   detail,
		Status:   FormatExamDate(exam.Date, p.Now().Location()),
		Badge:    badge,
	}
}

func (s *WidgetService) buildExamCountdown(view *dto.WidgetView, p Projection) {
	exam, ok := p.NextExam()
	if !ok {
		view.Empty = emptyView(p.ExamEmptyState(), false)
		return
	}
	days := p.DaysUntilExam(exam)
	view.Primary = &dto.WidgetEntry{
		Type:     string(models.ScheduleItemExam),
		Title:    exam.SubjectDescription,
		Subtitle: FormatExamDate(exam.Date, p.Now().Location()),
		Time:     TimeRange(exam.StartTime, exam.FinishTime),
		Badge:    strconv.Itoa(days),
		Status:   DaysLabel(days),
	}
}

// examDetailsLimit maps the widget footprint to visible exam rows.
func examDetailsLimit(columns, rows int) int {
	switch {
	case columns <= 3 && rows <= 2:
		return 2
	case columns <= 3:
		return 3
	case rows <= 2:
		return 3
	case rows <= 3:
		return 5
	default:
		return 8
	}
}

func (s *WidgetService) buildExamDetails(view *dto.WidgetView, p Projection) {
	view.Title = "Exam Schedule"
	view.Link = s.link("exams", nil)
	count := len(p.UpcomingExams(s.cfg.CountLimit))
	view.Count = &count

	loc := p.Now().Location()
	for _, exam := range p.UpcomingExams(examDetailsLimit(view.Size.Columns, view.Size.Rows)) {
		view.Items = append(view.Items, dto.WidgetEntry{
			Type:     string(models.ScheduleItemExam),
			Title:    exam.SubjectDescription,
			Subtitle: FormatExamDateShort(exam.Date, loc),
			Time:     TimeRange(exam.StartTime, exam.FinishTime),
			Room:     ExamLocationLine(exam),
			Badge:    FormatRelativeDay(p.DaysUntilExam(exam)),
			Link:     s.link("exams", url.Values{"open": {exam.Key()}}),
		})
	}
	if len(view.Items) == 0 {
		view.Empty = emptyView(p.ExamEmptyState(), true)
	}
}

func (s *WidgetService) buildUnifiedCompact(view *dto.WidgetView, p Projection) {
	lesson, ok := p.CurrentLesson()
	if !ok {
		lesson, ok = p.NextLesson()
	}
	if ok {
		view.Lessons = []dto.WidgetEntry{{
			Type:  string(models.ScheduleItemLesson),
			Title: lesson.Name,
			Time:  lesson.StartTime + " • " + RoomOrPlaceholder(lesson.Room),
		}}
	} else {
		view.Empty = emptyView(p.LessonEmptyState(), false)
	}

	if exam, ok := p.NextExam(); ok {
		view.Exams = []dto.WidgetEntry{{
			Type:  string(models.ScheduleItemExam),
			Title: exam.SubjectDescription,
			Badge: FormatRelativeDay(p.DaysUntilExam(exam)),
		}}
	} else {
		view.ExamEmpty = emptyView(p.ExamEmptyState(), false)
	}
}

func (s *WidgetService) buildUnifiedFull(view *dto.WidgetView, p Projection) {
	lessonLimit := 3
	if view.Size.Columns <= 2 {
		lessonLimit = 2
	}
	for _, lesson := range p.UpcomingLessonsToday(lessonLimit) {
		view.Lessons = append(view.Lessons, dto.WidgetEntry{
			Type:  string(models.ScheduleItemLesson),
			Title: lesson.Name,
			Time:  lesson.StartTime + " • " + RoomOrPlaceholder(lesson.Room),
		})
	}
	if len(view.Lessons) == 0 {
		view.Empty = emptyView(p.LessonEmptyState(), false)
	}

	loc := p.Now().Location()
	for _, exam := range p.UpcomingExams(3) {
		view.Exams = append(view.Exams, dto.WidgetEntry{
			Type:  string(models.ScheduleItemExam),
			Title: exam.SubjectDescription,
			Time:  ExamDayText(p.DaysUntilExam(exam), exam.Date, loc) + " • " + exam.StartTime,
		})
	}
	if len(view.Exams) == 0 {
		view.ExamEmpty = emptyView(p.ExamEmptyState(), true)
	}
}

func (s *WidgetService) link(host string, query url.Values) string {
	link := s.cfg.LinkScheme + "://" + host
	if len(query) == 0 {
		return link
	}
	return link + "?" + strings.ReplaceAll(query.Encode(), "+", "%20")
}

// lessonIndex finds a possibly clipped lesson in the day's list.
func lessonIndex(lessons []models.Lesson, target models.Lesson) int {
	for i, l := range lessons {
		if l.Name == target.Name && l.Course == target.Course && l.EndTime == target.EndTime && l.Room == target.Room && l.Group == target.Group {
			return i
		}
	}
	return -1
}

func emptyView(state models.EmptyState, long bool) *dto.EmptyStateView {
	title, detail := EmptyStateText(state)
	if long {
		title, detail = EmptyStateLongText(state)
	}
	return &dto.EmptyStateView{State: string(state), Icon: EmptyStateIcon(state), Title: title, Detail: detail}
}
