package httpapi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/DiplomWorkHushchin/Server/internal/auth"
	"github.com/DiplomWorkHushchin/Server/internal/course"
	"github.com/DiplomWorkHushchin/Server/internal/directory"
	"github.com/DiplomWorkHushchin/Server/internal/ids"
)

type fakeDirectory struct {
	mu     sync.Mutex
	users  map[string]*directory.User
	roles  map[string][]string
	groups map[string]*directory.Group
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:  make(map[string]*directory.User),
		roles:  make(map[string][]string),
		groups: make(map[string]*directory.Group),
	}
}

func (d *fakeDirectory) CreateUser(_ context.Context, u *directory.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u.ID == "" {
		u.ID = ids.New()
	}
	u.Username = strings.ToLower(u.Username)
	u.Email = strings.ToLower(u.Email)
	d.users[u.ID] = u
	return nil
}

func (d *fakeDirectory) FindByID(_ context.Context, id string) (*directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, directory.ErrNotFound
}

func (d *fakeDirectory) FindByUsername(_ context.Context, username string) (*directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (d *fakeDirectory) Roles(_ context.Context, userID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.roles[userID]...), nil
}

func (d *fakeDirectory) AssignRole(_ context.Context, userID, role string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[userID] = append(d.roles[userID], role)
	return nil
}

func (d *fakeDirectory) EnsureGroup(_ context.Context, name string) (*directory.Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if g, ok := d.groups[name]; ok {
		return g, nil
	}
	g := &directory.Group{ID: ids.New(), Name: name}
	d.groups[name] = g
	return g, nil
}

type memSessionStore struct {
	mu   sync.Mutex
	recs map[string]*auth.RefreshCredential
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{recs: make(map[string]*auth.RefreshCredential)}
}

func (s *memSessionStore) Insert(_ context.Context, rec *auth.RefreshCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.recs[rec.ID] = &cp
	return nil
}

func (s *memSessionStore) FindLiveByUser(_ context.Context, userID string) (*auth.RefreshCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *auth.RefreshCredential
	for _, rec := range s.recs {
		if rec.UserID != userID {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, auth.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *memSessionStore) FindByValue(_ context.Context, value string) (*auth.RefreshCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.recs {
		if rec.Value == value {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *memSessionStore) DeleteAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.recs {
		if rec.UserID == userID {
			delete(s.recs, id)
		}
	}
	return nil
}

func (s *memSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, id)
	return nil
}

func (s *memSessionStore) Rotate(_ context.Context, rec *auth.RefreshCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, old := range s.recs {
		if old.UserID == rec.UserID {
			delete(s.recs, id)
		}
	}
	cp := *rec
	s.recs[rec.ID] = &cp
	return nil
}

func (s *memSessionStore) Consume(_ context.Context, userID, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.recs {
		if rec.UserID == userID && rec.Value == value {
			delete(s.recs, id)
			return true, nil
		}
	}
	return false, nil
}

type memCourseStore struct {
	mu      sync.Mutex
	courses map[string]*course.Course
	grants  map[string]*course.Grant
}

func newMemCourseStore() *memCourseStore {
	return &memCourseStore{
		courses: make(map[string]*course.Course),
		grants:  make(map[string]*course.Grant),
	}
}

func (s *memCourseStore) CreateCourse(_ context.Context, c *course.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.CreatedAt = time.Now().UTC()
	s.courses[c.ID] = c
	return nil
}

func (s *memCourseStore) FindCourseByCode(_ context.Context, code string) (*course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range s.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, course.ErrNotFound
}

func (s *memCourseStore) DeleteCourse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.courses, id)
	return nil
}

func (s *memCourseStore) InsertGrant(_ context.Context, g *course.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.CourseID+"/"+g.UserID] = g
	return nil
}

func (s *memCourseStore) FindGrant(_ context.Context, courseID, userID string) (*course.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.grants[courseID+"/"+userID]; ok {
		return g, nil
	}
	return nil, course.ErrNotFound
}

func (s *memCourseStore) UpdateGrant(_ context.Context, g *course.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[g.CourseID+"/"+g.UserID]; !ok {
		return course.ErrNotFound
	}
	s.grants[g.CourseID+"/"+g.UserID] = g
	return nil
}

func (s *memCourseStore) DeleteGrant(_ context.Context, courseID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, courseID+"/"+userID)
	return nil
}
