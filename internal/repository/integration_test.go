//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/model"
	"kukey/backend/internal/repository"
	"kukey/backend/internal/service"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=kukey password=kukey_password dbname=kukey_test sslmode=disable TimeZone=Asia/Seoul"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.User{},
		&model.Character{},
		&model.PointHistory{},
		&model.Course{},
		&model.CourseDetail{},
		&model.Timetable{},
		&model.TimetableCourse{},
		&model.Post{},
		&model.Comment{},
		&model.CommentLike{},
		&model.CommentAnonymousNumber{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestUser 创建测试用户并返回清理函数
func setupTestUser(t *testing.T, point int) (*model.User, func()) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{
		Email:        fmt.Sprintf("it%d@korea.ac.kr", time.Now().UnixNano()),
		Username:     fmt.Sprintf("it-user-%d", time.Now().UnixNano()),
		PasswordHash: "$2a$10$placeholder",
		Point:        point,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	cleanup := func() { cleanupUsers(user.UserID) }
	return user, cleanup
}

// cleanupUsers 删除用户及其全部关联数据（先依赖行，后主行）
func cleanupUsers(userIDs ...string) {
	for _, uid := range userIDs {
		var tts []model.Timetable
		testDB.Unscoped().Where("user_id = ?", uid).Find(&tts)
		for _, tt := range tts {
			testDB.Unscoped().Where("timetable_id = ?", tt.TimetableID).Delete(&model.TimetableCourse{})
		}
		testDB.Unscoped().Where("user_id = ?", uid).Delete(&model.Timetable{})
		testDB.Unscoped().Where("user_id = ?", uid).Delete(&model.PointHistory{})
		testDB.Unscoped().Where("user_id = ?", uid).Delete(&model.CommentLike{})
		testDB.Unscoped().Where("user_id = ?", uid).Delete(&model.CommentAnonymousNumber{})
		testDB.Unscoped().Where("user_id = ?", uid).Delete(&model.Comment{})
		testDB.Unscoped().Where("user_id = ?", uid).Delete(&model.Character{})
	}
	for _, uid := range userIDs {
		testDB.Unscoped().Where("user_id = ?", uid).Delete(&model.Post{})
		testDB.Unscoped().Where("user_id = ?", uid).Delete(&model.User{})
	}
}

// setupTestCourse 创建带上课时间的课程并返回清理函数
func setupTestCourse(t *testing.T, name string, slots ...model.CourseDetail) (*model.Course, func()) {
	t.Helper()
	ctx := context.Background()

	course := &model.Course{
		CourseCode: fmt.Sprintf("COSE%d", time.Now().UnixNano()%1000000),
		Name:       name,
		Year:       2026,
		Semester:   "SPRING",
	}
	if err := testDB.WithContext(ctx).Create(course).Error; err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}
	for i := range slots {
		slots[i].CourseID = course.CourseID
		if err := testDB.WithContext(ctx).Create(&slots[i]).Error; err != nil {
			t.Fatalf("创建课程时间失败: %v", err)
		}
	}

	cleanup := func() {
		testDB.Unscoped().Where("course_id = ?", course.CourseID).Delete(&model.CourseDetail{})
		testDB.Unscoped().Where("course_id = ?", course.CourseID).Delete(&model.Course{})
	}
	return course, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: 并发积分变动（行锁串行化，余额不穿仓）
// ═══════════════════════════════════════════════════════════

func TestConcurrentPointAdjust_NoOverdraft(t *testing.T) {
	user, cleanup := setupTestUser(t, 50)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	svc := service.NewPointService(repo, zap.NewNop())
	ctx := context.Background()

	// 余额 50，10 个并发 -10：恰好 5 笔成功
	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Adjust(ctx, user.UserID, -10, "Buying an item")
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case err == service.ErrPointNotEnough:
			rejected++
		default:
			t.Errorf("意外错误: %v", err)
		}
	}
	if succeeded != 5 || rejected != 5 {
		t.Errorf("期望 5 成功 / 5 余额不足，实际 %d / %d", succeeded, rejected)
	}

	var final model.User
	if err := testDB.Where("user_id = ?", user.UserID).First(&final).Error; err != nil {
		t.Fatalf("查询用户失败: %v", err)
	}
	if final.Point != 0 {
		t.Errorf("最终余额期望 0，实际 %d", final.Point)
	}

	// 流水条数与成功笔数一致，流水和与余额一致
	var histories []model.PointHistory
	testDB.Where("user_id = ?", user.UserID).Find(&histories)
	if len(histories) != 5 {
		t.Errorf("期望 5 条流水，实际 %d", len(histories))
	}
	sum := 50
	for _, h := range histories {
		sum += h.ChangePoint
	}
	if sum != final.Point {
		t.Errorf("流水累计 %d 与余额 %d 不一致", sum, final.Point)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 并发加课（时间表行锁串行化，冲突课程不可能同时入表）
// ═══════════════════════════════════════════════════════════

func TestConcurrentAddCourse_ConflictSerialized(t *testing.T) {
	user, cleanup := setupTestUser(t, 0)
	defer cleanup()

	// Mon 1-3 与 Mon 3-4 相交（闭区间共享第 3 节）
	c1, cleanC1 := setupTestCourse(t, "并发-算法", model.CourseDetail{Day: "Mon", Period: "1-3"})
	defer cleanC1()
	c2, cleanC2 := setupTestCourse(t, "并发-操作系统", model.CourseDetail{Day: "Mon", Period: "3-4"})
	defer cleanC2()

	repo := repository.NewRepository(testDB)
	svc := service.NewTimetableService(repo, zap.NewNop())
	ctx := context.Background()

	tt, err := svc.Create(ctx, &dto.CreateTimetableRequest{Year: 2026, Semester: "SPRING"}, user.UserID)
	if err != nil {
		t.Fatalf("创建时间表失败: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, courseID := range []string{c1.CourseID, c2.CourseID} {
		wg.Add(1)
		go func(i int, courseID string) {
			defer wg.Done()
			_, errs[i] = svc.AddCourse(ctx, &dto.TimetableCourseRequest{
				TimetableID: tt.ID, CourseID: courseID,
			}, user.UserID)
		}(i, courseID)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case err == service.ErrCourseTimeConflict:
			conflicted++
		default:
			t.Errorf("意外错误: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Errorf("期望恰好 1 门入表 / 1 门冲突，实际 %d / %d", succeeded, conflicted)
	}

	var count int64
	testDB.Model(&model.TimetableCourse{}).Where("timetable_id = ?", tt.ID).Count(&count)
	if count != 1 {
		t.Errorf("时间表内期望 1 门课，实际 %d", count)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 并发创建时间表（用户行锁串行化，配额与编号不超发）
// ═══════════════════════════════════════════════════════════

func TestConcurrentCreateTimetable_QuotaHeld(t *testing.T) {
	user, cleanup := setupTestUser(t, 0)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	svc := service.NewTimetableService(repo, zap.NewNop())
	ctx := context.Background()

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, &dto.CreateTimetableRequest{Year: 2026, Semester: "SPRING"}, user.UserID)
		}(i)
	}
	wg.Wait()

	succeeded, limited := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case err == service.ErrTimetableLimit:
			limited++
		default:
			t.Errorf("意外错误: %v", err)
		}
	}
	if succeeded != 3 || limited != 3 {
		t.Errorf("期望 3 成功 / 3 超配额，实际 %d / %d", succeeded, limited)
	}

	var tts []model.Timetable
	testDB.Where("user_id = ?", user.UserID).Order("table_number").Find(&tts)
	if len(tts) != 3 {
		t.Fatalf("期望 3 张时间表，实际 %d", len(tts))
	}
	mainCount := 0
	for i, tt := range tts {
		if tt.TableNumber != i+1 {
			t.Errorf("table_number 期望 %d，实际 %d", i+1, tt.TableNumber)
		}
		if tt.IsMain {
			mainCount++
		}
	}
	if mainCount != 1 {
		t.Errorf("主表数量期望 1，实际 %d", mainCount)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 并发匿名编号分配（帖子行锁串行化，不跳号不重号）
// ═══════════════════════════════════════════════════════════

func TestConcurrentAnonymousAssign_GapFree(t *testing.T) {
	author, cleanAuthor := setupTestUser(t, 0)
	defer cleanAuthor()

	const commenters = 8
	users := make([]*model.User, commenters)
	userIDs := make([]string, commenters)
	for i := range users {
		u, _ := setupTestUser(t, 0)
		users[i] = u
		userIDs[i] = u.UserID
	}
	defer cleanupUsers(userIDs...)

	ctx := context.Background()
	post := &model.Post{UserID: author.UserID, Title: "并发测试帖", Content: "body"}
	if err := testDB.WithContext(ctx).Create(post).Error; err != nil {
		t.Fatalf("创建帖子失败: %v", err)
	}

	repo := repository.NewRepository(testDB)
	svc := service.NewCommentService(repo, service.NewAnonymousAssigner(repo), zap.NewNop())

	var wg sync.WaitGroup
	numbers := make([]int, commenters)
	errs := make([]error, commenters)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.Create(ctx, post.PostID, nil, users[i].UserID, &dto.CreateCommentRequest{
				Content:     "匿名发言",
				IsAnonymous: true,
			})
			errs[i] = err
			if err == nil && resp.AnonymousNumber != nil {
				numbers[i] = *resp.AnonymousNumber
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("第 %d 条匿名评论失败: %v", i+1, err)
		}
	}

	// 编号应为 1..N 的一个排列：无空洞、无重复
	sort.Ints(numbers)
	for i, n := range numbers {
		if n != i+1 {
			t.Fatalf("匿名编号应为 1..%d 的排列，实际 %v", commenters, numbers)
		}
	}

	var final model.Post
	testDB.Where("post_id = ?", post.PostID).First(&final)
	if final.CommentCount != commenters {
		t.Errorf("帖子评论数期望 %d，实际 %d", commenters, final.CommentCount)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 购买事务回滚（扣款失败时道具效果一并回滚）
// ═══════════════════════════════════════════════════════════

func TestPurchase_RollbackOnInsufficientPoints(t *testing.T) {
	user, cleanup := setupTestUser(t, 50)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	point := service.NewPointService(repo, zap.NewNop())
	svc := service.NewItemService(repo, point, zap.NewNop())
	ctx := context.Background()

	// 3 天阅读券价格 100，余额仅 50
	_, err := svc.Purchase(ctx, user.UserID, &dto.PurchaseItemRequest{
		ItemCategory:   "READING_TICKET",
		RequiredPoints: 100,
		Days:           3,
	})
	if err != service.ErrPointNotEnough {
		t.Fatalf("期望 ErrPointNotEnough，实际: %v", err)
	}

	// 效果与扣款均未发生
	var final model.User
	if err := testDB.Where("user_id = ?", user.UserID).First(&final).Error; err != nil {
		t.Fatalf("查询用户失败: %v", err)
	}
	if final.ViewableUntil != nil {
		t.Error("扣款失败后 viewable_until 应回滚为空")
	}
	if final.Point != 50 {
		t.Errorf("余额应保持 50，实际 %d", final.Point)
	}
	var historyCount int64
	testDB.Model(&model.PointHistory{}).Where("user_id = ?", user.UserID).Count(&historyCount)
	if historyCount != 0 {
		t.Errorf("失败购买不应产生流水，实际 %d 条", historyCount)
	}
}
