package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// ── 时间表 ICS 导出 ─────────────────────────────────────────
//
// 设计说明：
//   - 每个上课时间生成一个每周重复的 VEVENT（RRULE FREQ=WEEKLY）
//   - 节次按第 1 节 09:00 起、每节 1 小时映射为钟点时间
//   - DTSTART 取当前周内对应星期的日期，重复 16 周（一学期）
// ─────────────────────────────────────────────────────────────

const (
	icsFirstPeriodHour = 9  // 第 1 节开始钟点
	icsSemesterWeeks   = 16 // 重复周数
)

var icsWeekdays = map[string]time.Weekday{
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
	"Sun": time.Sunday,
}

func (s *timetableService) ExportICS(ctx context.Context, timetableID, userID string) ([]byte, string, error) {
	detail, err := s.GetByID(ctx, timetableID, userID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//kukey//timetable//KO")
	cal.SetName(detail.Name)

	// 以本周一为基准推算各星期的首次上课日期
	now := time.Now()
	monday := now.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))

	for _, course := range detail.Courses {
		for _, slot := range course.Slots {
			weekday, ok := icsWeekdays[slot.Day]
			if !ok {
				return nil, "", fmt.Errorf("未知的星期标识 %q", slot.Day)
			}
			startPeriod, endPeriod, err := ParsePeriod(slot.Period)
			if err != nil {
				return nil, "", err
			}

			day := monday.AddDate(0, 0, (int(weekday)+6)%7)
			start := time.Date(day.Year(), day.Month(), day.Day(),
				icsFirstPeriodHour+startPeriod-1, 0, 0, 0, now.Location())
			end := time.Date(day.Year(), day.Month(), day.Day(),
				icsFirstPeriodHour+endPeriod, 0, 0, 0, now.Location())

			event := cal.AddEvent(uuid.New().String())
			event.SetCreatedTime(now)
			event.SetDtStampTime(now)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(course.Name)
			if course.ProfessorName != "" {
				event.SetDescription(course.ProfessorName)
			}
			if slot.Room != "" {
				event.SetLocation(slot.Room)
			}
			event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", icsSemesterWeeks))
		}
	}

	filename := fmt.Sprintf("timetable_%d-%s.ics", detail.Year, detail.Semester)
	return []byte(cal.Serialize()), filename, nil
}
