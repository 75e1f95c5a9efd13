package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kukey/backend/internal/model"
)

// ── 上课时间冲突判定 ────────────────────────────────────────
//
// 设计说明：
//   - 节次以闭区间表示："1-3" 表示第 1 至第 3 节，"5" 表示单节
//   - 两个时间段冲突当且仅当同一天且区间相交：max(s1,s2) <= min(e1,e2)
//   - 格式非法一律报错，绝不静默当作"无冲突"处理
//   - 纯函数，无状态，加课事务内调用
// ─────────────────────────────────────────────────────────────

// ErrInvalidPeriod 节次格式非法
var ErrInvalidPeriod = errors.New("节次格式无效")

// ParsePeriod 解析节次字符串为闭区间 [start, end]
// 合法形式："5"（单节）或 "1-3"（连续多节）
func ParsePeriod(period string) (int, int, error) {
	s := strings.TrimSpace(period)
	if s == "" {
		return 0, 0, fmt.Errorf("%w: 为空", ErrInvalidPeriod)
	}

	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	end := start
	if len(parts) == 2 {
		end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
		}
	}

	if start < 1 || end < start {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	return start, end, nil
}

// SlotsConflict 判断候选课程的上课时间是否与已有课程冲突
// 任意一对（同天且节次区间相交）即为冲突
func SlotsConflict(existing, candidate []model.CourseDetail) (bool, error) {
	for _, cand := range candidate {
		candStart, candEnd, err := ParsePeriod(cand.Period)
		if err != nil {
			return false, err
		}
		for _, exist := range existing {
			if exist.Day != cand.Day {
				continue
			}
			existStart, existEnd, err := ParsePeriod(exist.Period)
			if err != nil {
				return false, err
			}
			if max(existStart, candStart) <= min(existEnd, candEnd) {
				return true, nil
			}
		}
	}
	return false, nil
}
