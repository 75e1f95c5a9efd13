package repository

import (
	"context"

	"gorm.io/gorm"

	"kukey/backend/internal/model"
)

// CourseRepository 课程目录数据访问接口
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*model.Course, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ListDetails 获取一门课的全部上课时间
	ListDetails(ctx context.Context, courseID string) ([]model.CourseDetail, error)
	// ListDetailsByCourseIDs 批量获取多门课的上课时间（冲突检查用）
	ListDetailsByCourseIDs(ctx context.Context, courseIDs []string) ([]model.CourseDetail, error)
	Search(ctx context.Context, year int, semester, keyword string, offset, limit int) ([]model.Course, int64, error)
}

type courseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *courseRepo) ListDetails(ctx context.Context, courseID string) ([]model.CourseDetail, error) {
	var details []model.CourseDetail
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Find(&details).Error
	return details, err
}

func (r *courseRepo) ListDetailsByCourseIDs(ctx context.Context, courseIDs []string) ([]model.CourseDetail, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var details []model.CourseDetail
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Find(&details).Error
	return details, err
}

func (r *courseRepo) Search(ctx context.Context, year int, semester, keyword string, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Course{}).
		Where("year = ? AND semester = ?", year, semester)
	if keyword != "" {
		like := "%" + keyword + "%"
		db = db.Where("name ILIKE ? OR course_code ILIKE ? OR professor_name ILIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Details").
		Offset(offset).Limit(limit).
		Order("course_code ASC").
		Find(&courses).Error
	return courses, total, err
}
