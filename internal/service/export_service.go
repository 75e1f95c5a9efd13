package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kukey/backend/internal/repository"
)

// ExportService 数据导出业务接口
type ExportService interface {
	// PointHistoryXLSX 导出用户积分流水为 Excel，返回文件内容与文件名
	PointHistoryXLSX(ctx context.Context, userID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

const pointHistorySheet = "积分流水"

var pointHistoryHeaders = []string{"时间", "变动", "事由", "余额"}

func (s *exportService) PointHistoryXLSX(ctx context.Context, userID string) ([]byte, string, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	histories, err := s.repo.PointHistory.ListByUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("关闭 Excel 文件失败", zap.Error(err))
		}
	}()

	sheet, err := f.NewSheet(pointHistorySheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(sheet)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", err
	}

	for i, h := range pointHistoryHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(pointHistorySheet, cell, h); err != nil {
			return nil, "", err
		}
	}

	for row, h := range histories {
		values := []interface{}{
			h.CreatedAt.Format("2006-01-02 15:04:05"),
			h.ChangePoint,
			h.History,
			h.ResultPoint,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellValue(pointHistorySheet, cell, v); err != nil {
				return nil, "", err
			}
		}
	}

	if err := f.SetColWidth(pointHistorySheet, "A", "A", 20); err != nil {
		return nil, "", err
	}
	if err := f.SetColWidth(pointHistorySheet, "C", "C", 40); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("point_history_%s_%s.xlsx", user.Username, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}
