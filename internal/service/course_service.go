package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/model"
	"kukey/backend/internal/repository"
)

// CourseService 课程目录业务接口（只读）
type CourseService interface {
	// Search 按学年学期检索课程，支持课名/课号/教师名关键字
	Search(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error)
	// GetByID 课程详情（含上课时间）
	GetByID(ctx context.Context, courseID string) (*dto.CourseResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Search(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error) {
	courses, total, err := s.repo.Course.Search(ctx, req.Year, req.Semester, req.Keyword, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, total, nil
}

func (s *courseService) GetByID(ctx context.Context, courseID string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return toCourseResponse(course), nil
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	slots := make([]dto.CourseSlotResponse, 0, len(c.Details))
	for _, d := range c.Details {
		slots = append(slots, dto.CourseSlotResponse{
			Day:    d.Day,
			Period: d.Period,
			Room:   d.Room,
		})
	}
	return &dto.CourseResponse{
		ID:            c.CourseID,
		CourseCode:    c.CourseCode,
		Name:          c.Name,
		ProfessorName: c.ProfessorName,
		Year:          c.Year,
		Semester:      c.Semester,
		Slots:         slots,
	}
}
