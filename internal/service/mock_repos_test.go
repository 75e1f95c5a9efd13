package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"kukey/backend/internal/model"
	"kukey/backend/internal/repository"
	pkgerrors "kukey/backend/pkg/errors"
)

// ── 内存版 Repository 测试替身 ──────────────────────────────
//
// 所有数据存放在 memStore 中，各 fake 共享同一份数据。
// Repository.db 为 nil 时 Transaction 直接在原 Repository 上执行 fn，
// 因此 Service 的事务逻辑可以在无数据库的情况下完整跑通。
// 注意：内存实现不模拟回滚，失败路径的断言只针对"未发生的写入"。
// ─────────────────────────────────────────────────────────────

type memStore struct {
	users      map[string]*model.User
	characters map[string]*model.Character // key: userID
	histories  []model.PointHistory
	courses    map[string]*model.Course
	details    map[string][]model.CourseDetail // key: courseID
	timetables map[string]*model.Timetable
	ttCourses  map[string][]model.TimetableCourse // key: timetableID
	posts      map[string]*model.Post
	comments   map[string]*model.Comment
	likes      map[string]map[string]bool // commentID -> userID -> liked
	anon       map[string]map[string]int  // postID -> userID -> number
	seq        int
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*model.User),
		characters: make(map[string]*model.Character),
		courses:    make(map[string]*model.Course),
		details:    make(map[string][]model.CourseDetail),
		timetables: make(map[string]*model.Timetable),
		ttCourses:  make(map[string][]model.TimetableCourse),
		posts:      make(map[string]*model.Post),
		comments:   make(map[string]*model.Comment),
		likes:      make(map[string]map[string]bool),
		anon:       make(map[string]map[string]int),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// newTestRepo 构造绑定内存替身的 Repository（db 为 nil）
func newTestRepo(s *memStore) *repository.Repository {
	return &repository.Repository{
		User:            &fakeUserRepo{s},
		Character:       &fakeCharacterRepo{s},
		PointHistory:    &fakePointHistoryRepo{s},
		Course:          &fakeCourseRepo{s},
		Timetable:       &fakeTimetableRepo{s},
		TimetableCourse: &fakeTimetableCourseRepo{s},
		Post:            &fakePostRepo{s},
		Comment:         &fakeCommentRepo{s},
		CommentLike:     &fakeCommentLikeRepo{s},
		AnonymousNumber: &fakeAnonymousNumberRepo{s},
	}
}

// ── 测试数据构造 ──

func (s *memStore) addUser(id string, point int) *model.User {
	u := &model.User{
		UserID:   id,
		Email:    id + "@korea.ac.kr",
		Username: id,
		Point:    point,
	}
	u.CreatedAt = time.Now()
	s.users[id] = u
	return u
}

func (s *memStore) addCharacter(userID string, level int, typ string) *model.Character {
	c := &model.Character{
		CharacterID: s.nextID("char"),
		UserID:      userID,
		Level:       level,
		Type:        typ,
	}
	s.characters[userID] = c
	return c
}

func (s *memStore) addCourse(id, name string, slots ...model.CourseDetail) *model.Course {
	c := &model.Course{
		CourseID:   id,
		CourseCode: "COSE-" + id,
		Name:       name,
		Year:       2026,
		Semester:   "SPRING",
	}
	s.courses[id] = c
	for i := range slots {
		slots[i].CourseID = id
		slots[i].CourseDetailID = s.nextID("detail")
	}
	s.details[id] = slots
	c.Details = slots
	return c
}

func (s *memStore) addPost(id, authorID string) *model.Post {
	p := &model.Post{
		PostID:  id,
		UserID:  authorID,
		Title:   "t",
		Content: "c",
	}
	p.CreatedAt = time.Now()
	s.posts[id] = p
	return p
}

// ── User ──

type fakeUserRepo struct{ s *memStore }

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = f.s.nextID("user")
	}
	user.CreatedAt = time.Now()
	f.s.users[user.UserID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u.Character = f.s.characters[id]
	return u, nil
}

func (f *fakeUserRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdatePoint(_ context.Context, id string, point int) error {
	u, ok := f.s.users[id]
	if !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	u.Point = point
	return nil
}

func (f *fakeUserRepo) UpdateViewableUntil(_ context.Context, id string, until time.Time) error {
	u, ok := f.s.users[id]
	if !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	u.ViewableUntil = &until
	return nil
}

// ── Character ──

type fakeCharacterRepo struct{ s *memStore }

func (f *fakeCharacterRepo) Create(_ context.Context, character *model.Character) error {
	if character.CharacterID == "" {
		character.CharacterID = f.s.nextID("char")
	}
	f.s.characters[character.UserID] = character
	return nil
}

func (f *fakeCharacterRepo) GetByUserID(_ context.Context, userID string) (*model.Character, error) {
	c, ok := f.s.characters[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCharacterRepo) UpdateLevel(_ context.Context, characterID string, level int) error {
	for _, c := range f.s.characters {
		if c.CharacterID == characterID {
			c.Level = level
			return nil
		}
	}
	return pkgerrors.ErrNoRowsAffected
}

func (f *fakeCharacterRepo) UpdateType(_ context.Context, characterID string, characterType string) error {
	for _, c := range f.s.characters {
		if c.CharacterID == characterID {
			c.Type = characterType
			return nil
		}
	}
	return pkgerrors.ErrNoRowsAffected
}

// ── PointHistory ──

type fakePointHistoryRepo struct{ s *memStore }

func (f *fakePointHistoryRepo) Create(_ context.Context, history *model.PointHistory) error {
	if history.PointHistoryID == "" {
		history.PointHistoryID = f.s.nextID("ph")
	}
	history.CreatedAt = time.Now()
	f.s.histories = append(f.s.histories, *history)
	return nil
}

func (f *fakePointHistoryRepo) ListByUser(_ context.Context, userID string) ([]model.PointHistory, error) {
	var result []model.PointHistory
	for i := len(f.s.histories) - 1; i >= 0; i-- {
		if f.s.histories[i].UserID == userID {
			result = append(result, f.s.histories[i])
		}
	}
	return result, nil
}

// ── Course ──

type fakeCourseRepo struct{ s *memStore }

func (f *fakeCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := f.s.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c.Details = f.s.details[id]
	return c, nil
}

func (f *fakeCourseRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.s.courses[id]
	return ok, nil
}

func (f *fakeCourseRepo) ListDetails(_ context.Context, courseID string) ([]model.CourseDetail, error) {
	return f.s.details[courseID], nil
}

func (f *fakeCourseRepo) ListDetailsByCourseIDs(_ context.Context, courseIDs []string) ([]model.CourseDetail, error) {
	var result []model.CourseDetail
	for _, id := range courseIDs {
		result = append(result, f.s.details[id]...)
	}
	return result, nil
}

func (f *fakeCourseRepo) Search(_ context.Context, year int, semester, keyword string, offset, limit int) ([]model.Course, int64, error) {
	var result []model.Course
	for _, c := range f.s.courses {
		if c.Year == year && c.Semester == semester {
			c.Details = f.s.details[c.CourseID]
			result = append(result, *c)
		}
	}
	return result, int64(len(result)), nil
}

// ── Timetable ──

type fakeTimetableRepo struct{ s *memStore }

func (f *fakeTimetableRepo) Create(_ context.Context, timetable *model.Timetable) error {
	if timetable.TimetableID == "" {
		timetable.TimetableID = f.s.nextID("tt")
	}
	timetable.CreatedAt = time.Now()
	f.s.timetables[timetable.TimetableID] = timetable
	return nil
}

func (f *fakeTimetableRepo) GetByID(_ context.Context, id string) (*model.Timetable, error) {
	t, ok := f.s.timetables[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	f.preloadCourses(t)
	return t, nil
}

func (f *fakeTimetableRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Timetable, error) {
	t, ok := f.s.timetables[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeTimetableRepo) preloadCourses(t *model.Timetable) {
	entries := f.s.ttCourses[t.TimetableID]
	t.Courses = make([]model.TimetableCourse, 0, len(entries))
	for _, e := range entries {
		if c, ok := f.s.courses[e.CourseID]; ok {
			c.Details = f.s.details[e.CourseID]
			e.Course = c
		}
		t.Courses = append(t.Courses, e)
	}
}

func (f *fakeTimetableRepo) CountByOwner(_ context.Context, userID string, year int, semester string) (int64, error) {
	var count int64
	for _, t := range f.s.timetables {
		if t.UserID == userID && t.Year == year && t.Semester == semester {
			count++
		}
	}
	return count, nil
}

func (f *fakeTimetableRepo) ListByOwner(_ context.Context, userID string, year int, semester string) ([]model.Timetable, error) {
	var result []model.Timetable
	for n := 1; n <= len(f.s.timetables); n++ {
		for _, t := range f.s.timetables {
			if t.UserID == userID && t.Year == year && t.Semester == semester && t.TableNumber == n {
				result = append(result, *t)
			}
		}
	}
	return result, nil
}

func (f *fakeTimetableRepo) GetMain(_ context.Context, userID string, year int, semester string) (*model.Timetable, error) {
	for _, t := range f.s.timetables {
		if t.UserID == userID && t.Year == year && t.Semester == semester && t.IsMain {
			f.preloadCourses(t)
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTimetableRepo) UpdateName(_ context.Context, id string, name string) error {
	t, ok := f.s.timetables[id]
	if !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	t.Name = name
	return nil
}

func (f *fakeTimetableRepo) ClearMain(_ context.Context, userID string, year int, semester string) error {
	for _, t := range f.s.timetables {
		if t.UserID == userID && t.Year == year && t.Semester == semester {
			t.IsMain = false
		}
	}
	return nil
}

func (f *fakeTimetableRepo) MarkMain(_ context.Context, id string) error {
	t, ok := f.s.timetables[id]
	if !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	t.IsMain = true
	return nil
}

func (f *fakeTimetableRepo) Delete(_ context.Context, id string) error {
	delete(f.s.timetables, id)
	return nil
}

// ── TimetableCourse ──

type fakeTimetableCourseRepo struct{ s *memStore }

func (f *fakeTimetableCourseRepo) Create(_ context.Context, entry *model.TimetableCourse) error {
	if entry.TimetableCourseID == "" {
		entry.TimetableCourseID = f.s.nextID("ttc")
	}
	entry.CreatedAt = time.Now()
	f.s.ttCourses[entry.TimetableID] = append(f.s.ttCourses[entry.TimetableID], *entry)
	return nil
}

func (f *fakeTimetableCourseRepo) Get(_ context.Context, timetableID, courseID string) (*model.TimetableCourse, error) {
	for _, e := range f.s.ttCourses[timetableID] {
		if e.CourseID == courseID {
			entry := e
			return &entry, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTimetableCourseRepo) ListByTimetable(_ context.Context, timetableID string) ([]model.TimetableCourse, error) {
	return f.s.ttCourses[timetableID], nil
}

func (f *fakeTimetableCourseRepo) Delete(_ context.Context, timetableID, courseID string) error {
	entries := f.s.ttCourses[timetableID]
	kept := entries[:0]
	for _, e := range entries {
		if e.CourseID != courseID {
			kept = append(kept, e)
		}
	}
	f.s.ttCourses[timetableID] = kept
	return nil
}

func (f *fakeTimetableCourseRepo) DeleteByTimetable(_ context.Context, timetableID string) error {
	delete(f.s.ttCourses, timetableID)
	return nil
}

// ── Post ──

type fakePostRepo struct{ s *memStore }

func (f *fakePostRepo) Create(_ context.Context, post *model.Post) error {
	if post.PostID == "" {
		post.PostID = f.s.nextID("post")
	}
	f.s.posts[post.PostID] = post
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	p, ok := f.s.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakePostRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Post, error) {
	return f.GetByID(ctx, id)
}

func (f *fakePostRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.s.posts[id]
	return ok, nil
}

func (f *fakePostRepo) IncrementCommentCount(_ context.Context, id string, delta int) error {
	p, ok := f.s.posts[id]
	if !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	p.CommentCount += delta
	return nil
}

// ── Comment ──

type fakeCommentRepo struct{ s *memStore }

func (f *fakeCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	if comment.CommentID == "" {
		comment.CommentID = f.s.nextID("comment")
	}
	comment.CreatedAt = time.Now()
	f.s.comments[comment.CommentID] = comment
	return nil
}

func (f *fakeCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	c, ok := f.s.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCommentRepo) ListByPost(_ context.Context, postID string) ([]model.Comment, error) {
	var result []model.Comment
	// 按创建顺序（ID 序列即创建顺序）
	for i := 1; i <= f.s.seq; i++ {
		id := fmt.Sprintf("comment-%d", i)
		if c, ok := f.s.comments[id]; ok && c.PostID == postID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (f *fakeCommentRepo) UpdateContent(_ context.Context, id string, content string, isAnonymous bool) error {
	c, ok := f.s.comments[id]
	if !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	c.Content = content
	c.IsAnonymous = isAnonymous
	return nil
}

func (f *fakeCommentRepo) SoftDelete(_ context.Context, id string) error {
	if _, ok := f.s.comments[id]; !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	delete(f.s.comments, id)
	return nil
}

func (f *fakeCommentRepo) IncrementLikeCount(_ context.Context, id string, delta int) error {
	c, ok := f.s.comments[id]
	if !ok {
		return pkgerrors.ErrNoRowsAffected
	}
	c.LikeCount += delta
	return nil
}

// ── CommentLike ──

type fakeCommentLikeRepo struct{ s *memStore }

func (f *fakeCommentLikeRepo) Get(_ context.Context, commentID, userID string) (*model.CommentLike, error) {
	if f.s.likes[commentID][userID] {
		return &model.CommentLike{CommentID: commentID, UserID: userID}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCommentLikeRepo) Create(_ context.Context, like *model.CommentLike) error {
	if f.s.likes[like.CommentID] == nil {
		f.s.likes[like.CommentID] = make(map[string]bool)
	}
	f.s.likes[like.CommentID][like.UserID] = true
	return nil
}

func (f *fakeCommentLikeRepo) Delete(_ context.Context, commentID, userID string) error {
	if !f.s.likes[commentID][userID] {
		return pkgerrors.ErrNoRowsAffected
	}
	delete(f.s.likes[commentID], userID)
	return nil
}

// ── AnonymousNumber ──

type fakeAnonymousNumberRepo struct{ s *memStore }

func (f *fakeAnonymousNumberRepo) Get(_ context.Context, postID, userID string) (*model.CommentAnonymousNumber, error) {
	numbers, ok := f.s.anon[postID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	n, ok := numbers[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.CommentAnonymousNumber{PostID: postID, UserID: userID, AnonymousNumber: n}, nil
}

func (f *fakeAnonymousNumberRepo) MaxNumber(_ context.Context, postID string) (int, error) {
	maxNumber := 0
	for _, n := range f.s.anon[postID] {
		if n > maxNumber {
			maxNumber = n
		}
	}
	return maxNumber, nil
}

func (f *fakeAnonymousNumberRepo) ListByPost(_ context.Context, postID string) ([]model.CommentAnonymousNumber, error) {
	var result []model.CommentAnonymousNumber
	for userID, n := range f.s.anon[postID] {
		result = append(result, model.CommentAnonymousNumber{
			PostID:          postID,
			UserID:          userID,
			AnonymousNumber: n,
		})
	}
	return result, nil
}

func (f *fakeAnonymousNumberRepo) Create(_ context.Context, assignment *model.CommentAnonymousNumber) error {
	if f.s.anon[assignment.PostID] == nil {
		f.s.anon[assignment.PostID] = make(map[string]int)
	}
	f.s.anon[assignment.PostID][assignment.UserID] = assignment.AnonymousNumber
	return nil
}
