package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kukey/backend/internal/model"
	pkgerrors "kukey/backend/pkg/errors"
)

// TimetableRepository 时间表数据访问接口
type TimetableRepository interface {
	Create(ctx context.Context, timetable *model.Timetable) error
	GetByID(ctx context.Context, id string) (*model.Timetable, error)
	// GetByIDForUpdate 行级锁读取，仅在事务内使用（加课冲突检查期间串行化同一时间表的写入）
	GetByIDForUpdate(ctx context.Context, id string) (*model.Timetable, error)
	CountByOwner(ctx context.Context, userID string, year int, semester string) (int64, error)
	ListByOwner(ctx context.Context, userID string, year int, semester string) ([]model.Timetable, error)
	GetMain(ctx context.Context, userID string, year int, semester string) (*model.Timetable, error)
	UpdateName(ctx context.Context, id string, name string) error
	// ClearMain 取消 (user, year, semester) 组内现有主时间表标记
	ClearMain(ctx context.Context, userID string, year int, semester string) error
	// MarkMain 将指定时间表置为主时间表
	MarkMain(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// TimetableCourseRepository 时间表-课程关联数据访问接口
type TimetableCourseRepository interface {
	Create(ctx context.Context, entry *model.TimetableCourse) error
	Get(ctx context.Context, timetableID, courseID string) (*model.TimetableCourse, error)
	ListByTimetable(ctx context.Context, timetableID string) ([]model.TimetableCourse, error)
	// Delete 幂等删除：不存在时同样返回 nil
	Delete(ctx context.Context, timetableID, courseID string) error
	DeleteByTimetable(ctx context.Context, timetableID string) error
}

// ── Timetable Repository 实现 ──

type timetableRepo struct {
	db *gorm.DB
}

func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) Create(ctx context.Context, timetable *model.Timetable) error {
	return r.db.WithContext(ctx).Create(timetable).Error
}

func (r *timetableRepo) GetByID(ctx context.Context, id string) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Preload("Courses").
		Preload("Courses.Course").
		Preload("Courses.Course.Details").
		Where("timetable_id = ?", id).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("timetable_id = ?", id).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) CountByOwner(ctx context.Context, userID string, year int, semester string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("user_id = ? AND year = ? AND semester = ?", userID, year, semester).
		Count(&count).Error
	return count, err
}

func (r *timetableRepo) ListByOwner(ctx context.Context, userID string, year int, semester string) ([]model.Timetable, error) {
	var timetables []model.Timetable
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND year = ? AND semester = ?", userID, year, semester).
		Order("table_number ASC").
		Find(&timetables).Error
	return timetables, err
}

func (r *timetableRepo) GetMain(ctx context.Context, userID string, year int, semester string) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Preload("Courses").
		Preload("Courses.Course").
		Preload("Courses.Course.Details").
		Where("user_id = ? AND year = ? AND semester = ? AND is_main = TRUE", userID, year, semester).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) UpdateName(ctx context.Context, id string, name string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("timetable_id = ?", id).
		Update("table_name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

func (r *timetableRepo) ClearMain(ctx context.Context, userID string, year int, semester string) error {
	// 组内可能本就没有主时间表（如主表已被删除），影响零行不视为错误
	return r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("user_id = ? AND year = ? AND semester = ? AND is_main = TRUE", userID, year, semester).
		Update("is_main", false).Error
}

func (r *timetableRepo) MarkMain(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("timetable_id = ?", id).
		Update("is_main", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

func (r *timetableRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("timetable_id = ?", id).
		Delete(&model.Timetable{}).Error
}

// ── TimetableCourse Repository 实现 ──

type timetableCourseRepo struct {
	db *gorm.DB
}

func NewTimetableCourseRepo(db *gorm.DB) TimetableCourseRepository {
	return &timetableCourseRepo{db: db}
}

func (r *timetableCourseRepo) Create(ctx context.Context, entry *model.TimetableCourse) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *timetableCourseRepo) Get(ctx context.Context, timetableID, courseID string) (*model.TimetableCourse, error) {
	var entry model.TimetableCourse
	err := r.db.WithContext(ctx).
		Where("timetable_id = ? AND course_id = ?", timetableID, courseID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timetableCourseRepo) ListByTimetable(ctx context.Context, timetableID string) ([]model.TimetableCourse, error) {
	var entries []model.TimetableCourse
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Details").
		Where("timetable_id = ?", timetableID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *timetableCourseRepo) Delete(ctx context.Context, timetableID, courseID string) error {
	return r.db.WithContext(ctx).
		Where("timetable_id = ? AND course_id = ?", timetableID, courseID).
		Delete(&model.TimetableCourse{}).Error
}

func (r *timetableCourseRepo) DeleteByTimetable(ctx context.Context, timetableID string) error {
	return r.db.WithContext(ctx).
		Where("timetable_id = ?", timetableID).
		Delete(&model.TimetableCourse{}).Error
}
