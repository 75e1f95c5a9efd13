package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/model"
	"kukey/backend/internal/repository"
)

// ── 时间表模块业务错误 ──

var (
	ErrTimetableNotFound     = errors.New("时间表不存在")
	ErrTimetableNotOwner     = errors.New("无权操作他人的时间表")
	ErrTimetableLimit        = errors.New("同一学期最多创建 3 张时间表")
	ErrCourseNotFound        = errors.New("课程不存在")
	ErrTimetableCourseExists = errors.New("该课程已在时间表中")
	ErrCourseTimeConflict    = errors.New("该课程与时间表中已有课程时间冲突")
)

// 同一 (user, year, semester) 下的时间表数量上限
const maxTimetablesPerSemester = 3

// ── TimetableService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 加课（AddCourse）在单个事务中执行"锁时间表行 → 查重 → 冲突检查 →
//     插入关联行"，并发加课被行锁串行化，两门冲突课程不可能同时入表。
//   - 创建（Create）先锁用户行再计数，并发创建串行化，配额与
//     table_number 判定基于准确计数；(user, year, semester, table_number)
//     上的唯一约束兜底。
//   - 删除主时间表后不自动提升其他时间表为主表（产品决策）。
// ─────────────────────────────────────────────────────────────

// TimetableService 时间表业务接口
type TimetableService interface {
	// Create 创建时间表（每学期最多 3 张，首张自动设为主表）
	Create(ctx context.Context, req *dto.CreateTimetableRequest, userID string) (*dto.TimetableResponse, error)
	// AddCourse 向时间表加课（含时间冲突检查）
	AddCourse(ctx context.Context, req *dto.TimetableCourseRequest, userID string) (*dto.TimetableDetailResponse, error)
	// RemoveCourse 从时间表删课（幂等：课程不在表中时同样成功）
	RemoveCourse(ctx context.Context, req *dto.TimetableCourseRequest, userID string) error
	// Rename 重命名时间表
	Rename(ctx context.Context, timetableID, name, userID string) (*dto.TimetableResponse, error)
	// SetMain 将指定时间表设为主表（原主表自动取消，组内恒只有一张主表）
	SetMain(ctx context.Context, timetableID, userID string) (*dto.TimetableResponse, error)
	// Delete 删除时间表及其全部课程关联
	Delete(ctx context.Context, timetableID, userID string) error
	// GetByID 获取时间表详情（含课程与上课时间）
	GetByID(ctx context.Context, timetableID, userID string) (*dto.TimetableDetailResponse, error)
	// GetMain 获取指定学期的主时间表
	GetMain(ctx context.Context, userID string, year int, semester string) (*dto.TimetableDetailResponse, error)
	// ListByOwner 获取指定学期的全部时间表
	ListByOwner(ctx context.Context, userID string, year int, semester string) ([]dto.TimetableResponse, error)
	// ExportICS 将时间表导出为 iCalendar
	ExportICS(ctx context.Context, timetableID, userID string) ([]byte, string, error)
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *timetableService) Create(ctx context.Context, req *dto.CreateTimetableRequest, userID string) (*dto.TimetableResponse, error) {
	var created *model.Timetable

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 锁用户行：同一用户的并发创建串行化，配额与编号基于准确计数
		if _, err := tx.User.GetByIDForUpdate(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		count, err := tx.Timetable.CountByOwner(ctx, userID, req.Year, req.Semester)
		if err != nil {
			return err
		}
		if count >= maxTimetablesPerSemester {
			return ErrTimetableLimit
		}

		name := req.Name
		if name == "" {
			name = fmt.Sprintf("%d-%s(%d)", req.Year, req.Semester, count+1)
		}

		timetable := &model.Timetable{
			UserID:      userID,
			Year:        req.Year,
			Semester:    req.Semester,
			Name:        name,
			IsMain:      count == 0, // 首张时间表即主表
			TableNumber: int(count) + 1,
		}
		if err := tx.Timetable.Create(ctx, timetable); err != nil {
			return err
		}
		created = timetable
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTimetableLimit) || errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error("创建时间表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := toTimetableResponse(created)
	return &resp, nil
}

// ────────────────────── AddCourse ──────────────────────

func (s *timetableService) AddCourse(ctx context.Context, req *dto.TimetableCourseRequest, userID string) (*dto.TimetableDetailResponse, error) {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 行锁：并发对同一时间表的加课在此串行化
		timetable, err := tx.Timetable.GetByIDForUpdate(ctx, req.TimetableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTimetableNotFound
			}
			return err
		}
		if timetable.UserID != userID {
			return ErrTimetableNotOwner
		}

		exists, err := tx.Course.Exists(ctx, req.CourseID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrCourseNotFound
		}

		if _, err := tx.TimetableCourse.Get(ctx, req.TimetableID, req.CourseID); err == nil {
			return ErrTimetableCourseExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 收集时间表内已有课程的全部上课时间
		entries, err := tx.TimetableCourse.ListByTimetable(ctx, req.TimetableID)
		if err != nil {
			return err
		}
		courseIDs := make([]string, 0, len(entries))
		for _, e := range entries {
			courseIDs = append(courseIDs, e.CourseID)
		}
		existingDetails, err := tx.Course.ListDetailsByCourseIDs(ctx, courseIDs)
		if err != nil {
			return err
		}
		candidateDetails, err := tx.Course.ListDetails(ctx, req.CourseID)
		if err != nil {
			return err
		}

		conflict, err := SlotsConflict(existingDetails, candidateDetails)
		if err != nil {
			s.logger.Error("课程节次数据非法",
				zap.String("course_id", req.CourseID), zap.Error(err))
			return err
		}
		if conflict {
			return ErrCourseTimeConflict
		}

		return tx.TimetableCourse.Create(ctx, &model.TimetableCourse{
			TimetableID: req.TimetableID,
			CourseID:    req.CourseID,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, req.TimetableID, userID)
}

// ────────────────────── RemoveCourse ──────────────────────

// RemoveCourse 幂等删课：关联不存在时不报错（与加课的 409 语义对称）
func (s *timetableService) RemoveCourse(ctx context.Context, req *dto.TimetableCourseRequest, userID string) error {
	timetable, err := s.repo.Timetable.GetByID(ctx, req.TimetableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimetableNotFound
		}
		return err
	}
	if timetable.UserID != userID {
		return ErrTimetableNotOwner
	}

	return s.repo.TimetableCourse.Delete(ctx, req.TimetableID, req.CourseID)
}

// ────────────────────── Rename ──────────────────────

func (s *timetableService) Rename(ctx context.Context, timetableID, name, userID string) (*dto.TimetableResponse, error) {
	timetable, err := s.repo.Timetable.GetByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}
	if timetable.UserID != userID {
		return nil, ErrTimetableNotOwner
	}

	if err := s.repo.Timetable.UpdateName(ctx, timetableID, name); err != nil {
		s.logger.Error("重命名时间表失败", zap.String("timetable_id", timetableID), zap.Error(err))
		return nil, err
	}

	timetable.Name = name
	resp := toTimetableResponse(timetable)
	return &resp, nil
}

// ────────────────────── SetMain ──────────────────────

func (s *timetableService) SetMain(ctx context.Context, timetableID, userID string) (*dto.TimetableResponse, error) {
	var result *model.Timetable

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		timetable, err := tx.Timetable.GetByIDForUpdate(ctx, timetableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTimetableNotFound
			}
			return err
		}
		if timetable.UserID != userID {
			return ErrTimetableNotOwner
		}

		if !timetable.IsMain {
			// 事务内换主：先撤旧主再立新主，组内恒只有一张主表
			if err := tx.Timetable.ClearMain(ctx, timetable.UserID, timetable.Year, timetable.Semester); err != nil {
				return err
			}
			if err := tx.Timetable.MarkMain(ctx, timetableID); err != nil {
				return err
			}
			timetable.IsMain = true
		}
		result = timetable
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toTimetableResponse(result)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除时间表并级联删除课程关联
// 删除主表后不自动提升其他时间表（需用户显式 SetMain）
func (s *timetableService) Delete(ctx context.Context, timetableID, userID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		timetable, err := tx.Timetable.GetByIDForUpdate(ctx, timetableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTimetableNotFound
			}
			return err
		}
		if timetable.UserID != userID {
			return ErrTimetableNotOwner
		}

		if err := tx.TimetableCourse.DeleteByTimetable(ctx, timetableID); err != nil {
			return err
		}
		return tx.Timetable.Delete(ctx, timetableID)
	})
}

// ────────────────────── 查询 ──────────────────────

func (s *timetableService) GetByID(ctx context.Context, timetableID, userID string) (*dto.TimetableDetailResponse, error) {
	timetable, err := s.repo.Timetable.GetByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}
	if timetable.UserID != userID {
		return nil, ErrTimetableNotOwner
	}

	resp := toTimetableDetailResponse(timetable)
	return &resp, nil
}

func (s *timetableService) GetMain(ctx context.Context, userID string, year int, semester string) (*dto.TimetableDetailResponse, error) {
	timetable, err := s.repo.Timetable.GetMain(ctx, userID, year, semester)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}

	resp := toTimetableDetailResponse(timetable)
	return &resp, nil
}

func (s *timetableService) ListByOwner(ctx context.Context, userID string, year int, semester string) ([]dto.TimetableResponse, error) {
	timetables, err := s.repo.Timetable.ListByOwner(ctx, userID, year, semester)
	if err != nil {
		return nil, err
	}

	result := make([]dto.TimetableResponse, 0, len(timetables))
	for i := range timetables {
		result = append(result, toTimetableResponse(&timetables[i]))
	}
	return result, nil
}

// ────────────────────── DTO 转换 ──────────────────────

func toTimetableResponse(t *model.Timetable) dto.TimetableResponse {
	return dto.TimetableResponse{
		ID:          t.TimetableID,
		Year:        t.Year,
		Semester:    t.Semester,
		Name:        t.Name,
		IsMain:      t.IsMain,
		TableNumber: t.TableNumber,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func toTimetableDetailResponse(t *model.Timetable) dto.TimetableDetailResponse {
	courses := make([]dto.TimetableCourseResponse, 0, len(t.Courses))
	for _, entry := range t.Courses {
		if entry.Course == nil {
			continue
		}
		slots := make([]dto.CourseSlotResponse, 0, len(entry.Course.Details))
		for _, d := range entry.Course.Details {
			slots = append(slots, dto.CourseSlotResponse{
				Day:    d.Day,
				Period: d.Period,
				Room:   d.Room,
			})
		}
		courses = append(courses, dto.TimetableCourseResponse{
			CourseID:      entry.Course.CourseID,
			CourseCode:    entry.Course.CourseCode,
			Name:          entry.Course.Name,
			ProfessorName: entry.Course.ProfessorName,
			Slots:         slots,
		})
	}

	return dto.TimetableDetailResponse{
		TimetableResponse: toTimetableResponse(t),
		Courses:           courses,
	}
}
