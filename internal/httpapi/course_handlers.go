package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/DiplomWorkHushchin/Server/internal/audit"
	"github.com/DiplomWorkHushchin/Server/internal/auth"
	"github.com/DiplomWorkHushchin/Server/internal/course"
	"github.com/DiplomWorkHushchin/Server/internal/directory"
)

type createCourseRequest struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type instructorRequest struct {
	Username             string `json:"username"`
	Owner                bool   `json:"owner"`
	CanCreateAssignments bool   `json:"canCreateAssignments"`
	CanModifyAssignments bool   `json:"canModifyAssignments"`
	CanGradeStudents     bool   `json:"canGradeStudents"`
	CanManageUsers       bool   `json:"canManageUsers"`
}

type permissionResponse struct {
	Course  string `json:"course"`
	Level   string `json:"level"`
	Allowed bool   `json:"allowed"`
}

// currentUser resolves the authenticated principal to a directory record.
func (a *API) currentUser(r *http.Request) (*directory.User, error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	user, err := a.directory.FindByUsername(r.Context(), principal.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown principal", auth.ErrUnauthorized)
	}
	return user, nil
}

func (a *API) handleCoursesCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	caller, err := a.currentUser(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !auth.HasRole(r.Context(), directory.RoleTeacher) && !auth.HasRole(r.Context(), directory.RoleAdmin) {
		handleServiceError(w, r, fmt.Errorf("%w: teacher role required", auth.ErrForbidden))
		return
	}

	var req createCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c := &course.Course{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := a.courses.CreateCourse(r.Context(), c, caller.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "course.created", map[string]any{
		"code": c.Code,
	})
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) handleCourseItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/courses/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	code, resource := parts[0], parts[1]
	switch resource {
	case "permissions":
		a.coursePermission(w, r, code)
	case "instructors":
		a.courseInstructors(w, r, code)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) coursePermission(w http.ResponseWriter, r *http.Request, code string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, err := a.currentUser(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	level := course.AccessLevel(r.URL.Query().Get("level"))
	allowed, err := a.courses.CanManage(r.Context(), code, caller.ID, level)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, permissionResponse{
		Course:  strings.ToUpper(code),
		Level:   string(level),
		Allowed: allowed,
	})
}

// courseInstructors mutates grants. The caller needs the manage_users
// capability on the course.
func (a *API) courseInstructors(w http.ResponseWriter, r *http.Request, code string) {
	caller, err := a.currentUser(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	allowed, err := a.courses.CanManage(r.Context(), code, caller.ID, course.LevelManageUsers)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !allowed {
		handleServiceError(w, r, fmt.Errorf("%w: manage_users capability required", auth.ErrForbidden))
		return
	}

	switch r.Method {
	case http.MethodPost:
		a.addInstructor(w, r, code)
	case http.MethodPut:
		a.updateInstructor(w, r, code)
	case http.MethodDelete:
		a.removeInstructor(w, r, code)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) resolveUser(r *http.Request, username string) (*directory.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", directory.ErrInvalidInput)
	}
	return a.directory.FindByUsername(r.Context(), username)
}

func (a *API) addInstructor(w http.ResponseWriter, r *http.Request, code string) {
	var req instructorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.resolveUser(r, req.Username)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	grant, err := a.courses.AddInstructor(r.Context(), code, user.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "course.instructor.added", map[string]any{
		"code":     strings.ToUpper(code),
		"username": user.Username,
	})
	writeJSON(w, http.StatusCreated, grant)
}

func (a *API) updateInstructor(w http.ResponseWriter, r *http.Request, code string) {
	var req instructorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.resolveUser(r, req.Username)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	grant := &course.Grant{
		UserID:               user.ID,
		Owner:                req.Owner,
		CanCreateAssignments: req.CanCreateAssignments,
		CanModifyAssignments: req.CanModifyAssignments,
		CanGradeStudents:     req.CanGradeStudents,
		CanManageUsers:       req.CanManageUsers,
	}
	if err := a.courses.UpdateGrant(r.Context(), code, grant); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "course.instructor.updated", map[string]any{
		"code":     strings.ToUpper(code),
		"username": user.Username,
	})
	writeJSON(w, http.StatusOK, grant)
}

func (a *API) removeInstructor(w http.ResponseWriter, r *http.Request, code string) {
	user, err := a.resolveUser(r, r.URL.Query().Get("username"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := a.courses.RemoveInstructor(r.Context(), code, user.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "course.instructor.removed", map[string]any{
		"code":     strings.ToUpper(code),
		"username": user.Username,
	})
	w.WriteHeader(http.StatusNoContent)
}
