package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func newPointTestEnv() (*memStore, PointService) {
	s := newMemStore()
	return s, NewPointService(newTestRepo(s), zap.NewNop())
}

func TestPointAdjust_EarnAndSpend(t *testing.T) {
	s, svc := newPointTestEnv()
	s.addUser("u1", 0)

	balance, err := svc.Adjust(context.Background(), "u1", 100, "Attendance check")
	if err != nil {
		t.Fatalf("加分失败: %v", err)
	}
	if balance != 100 {
		t.Errorf("期望余额 100，实际 %d", balance)
	}

	balance, err = svc.Adjust(context.Background(), "u1", -30, "Buying an item")
	if err != nil {
		t.Fatalf("扣分失败: %v", err)
	}
	if balance != 70 {
		t.Errorf("期望余额 70，实际 %d", balance)
	}
	if s.users["u1"].Point != 70 {
		t.Errorf("落库余额期望 70，实际 %d", s.users["u1"].Point)
	}
}

func TestPointAdjust_InsufficientBalance(t *testing.T) {
	s, svc := newPointTestEnv()
	s.addUser("u1", 50)

	_, err := svc.Adjust(context.Background(), "u1", -51, "too expensive")
	if !errors.Is(err, ErrPointNotEnough) {
		t.Fatalf("期望 ErrPointNotEnough，实际: %v", err)
	}

	// 拒绝后余额与流水均不变
	if s.users["u1"].Point != 50 {
		t.Errorf("余额被意外修改: %d", s.users["u1"].Point)
	}
	if len(s.histories) != 0 {
		t.Errorf("不应产生流水，实际 %d 条", len(s.histories))
	}

	// 恰好扣到 0 合法
	balance, err := svc.Adjust(context.Background(), "u1", -50, "exact")
	if err != nil {
		t.Fatalf("扣到 0 应成功: %v", err)
	}
	if balance != 0 {
		t.Errorf("期望余额 0，实际 %d", balance)
	}
}

func TestPointAdjust_UserNotFound(t *testing.T) {
	_, svc := newPointTestEnv()

	_, err := svc.Adjust(context.Background(), "ghost", 10, "x")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// 每次变动写一条流水，且 sum(流水变动) == 当前余额
func TestPointAdjust_HistoryConsistency(t *testing.T) {
	s, svc := newPointTestEnv()
	s.addUser("u1", 0)

	deltas := []int{100, -30, 50, -20}
	for _, d := range deltas {
		if _, err := svc.Adjust(context.Background(), "u1", d, "op"); err != nil {
			t.Fatalf("Adjust(%d) 失败: %v", d, err)
		}
	}

	if len(s.histories) != len(deltas) {
		t.Fatalf("期望 %d 条流水，实际 %d", len(deltas), len(s.histories))
	}

	sum := 0
	for _, h := range s.histories {
		sum += h.ChangePoint
	}
	if sum != s.users["u1"].Point {
		t.Errorf("流水之和 %d 与余额 %d 不一致", sum, s.users["u1"].Point)
	}

	// 每条流水的 ResultPoint 为变动后快照
	last := s.histories[len(s.histories)-1]
	if last.ResultPoint != 100 {
		t.Errorf("末条流水 ResultPoint 期望 100，实际 %d", last.ResultPoint)
	}
}

func TestPointHistory_Listing(t *testing.T) {
	s, svc := newPointTestEnv()
	s.addUser("u1", 0)
	s.addUser("u2", 0)

	svc.Adjust(context.Background(), "u1", 100, "first")
	svc.Adjust(context.Background(), "u2", 999, "other user")
	svc.Adjust(context.Background(), "u1", -40, "second")

	result, err := svc.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("History 失败: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("期望 2 条流水，实际 %d", len(result))
	}
	// 时间倒序：最近一条在前
	if result[0].History != "second" || result[0].ChangePoint != -40 {
		t.Errorf("首条流水错误: %+v", result[0])
	}
	if result[0].ResultPoint != 60 {
		t.Errorf("首条流水余额快照期望 60，实际 %d", result[0].ResultPoint)
	}
}
