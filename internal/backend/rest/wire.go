package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/service"
)

const dateLayout = "2006-01-02"

// ref decodes a reference that is either a bare id string or a populated
// {_id, name} object.
type ref struct {
	ID   string
	Name string
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		return json.Unmarshal(b, &r.ID)
	}
	var obj struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.ID, r.Name = obj.ID, obj.Name
	return nil
}

func (r ref) toService() service.Ref {
	return service.Ref{ID: r.ID, Name: r.Name}
}

type wireUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	OrgID ref    `json:"orgId"`
}

func (u wireUser) toService() service.User {
	return service.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: service.Role(u.Role), OrgID: u.OrgID.ID}
}

type authResponse struct {
	wireUser
	OrgName string `json:"orgName"`
	Token   string `json:"token"`
}

func (a authResponse) toService() service.AuthResult {
	return service.AuthResult{
		Identity: service.Identity{User: a.wireUser.toService(), OrgName: a.OrgName},
		Token:    a.Token,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	OrgName  string `json:"orgName"`
}

type wireProject struct {
	ID                   string `json:"_id"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	CreatedBy            ref    `json:"createdBy"`
	OrgID                ref    `json:"orgId"`
	CompletionPercentage int    `json:"completionPercentage"`
	DoneTasks            int    `json:"doneTasks"`
	TotalTasks           int    `json:"totalTasks"`
}

func (p wireProject) toService() service.Project {
	return service.Project{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		CreatedBy:            p.CreatedBy.toService(),
		OrgID:                p.OrgID.ID,
		CompletionPercentage: p.CompletionPercentage,
		DoneTasks:            p.DoneTasks,
		TotalTasks:           p.TotalTasks,
	}
}

type projectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type wireTask struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	AssignedTo  *ref   `json:"assignedTo"`
	ProjectID   ref    `json:"projectId"`
	OrgID       ref    `json:"orgId"`
	CreatedAt   string `json:"createdAt"`
}

func (t wireTask) toService() (service.Task, error) {
	out := service.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      service.Status(t.Status),
		Priority:    service.Priority(t.Priority),
		Project:     t.ProjectID.toService(),
		OrgID:       t.OrgID.ID,
	}
	if !out.Status.Valid() {
		return service.Task{}, fmt.Errorf("task %s: unknown status %q", t.ID, t.Status)
	}
	if !out.Priority.Valid() {
		return service.Task{}, fmt.Errorf("task %s: unknown priority %q", t.ID, t.Priority)
	}
	if t.AssignedTo != nil && t.AssignedTo.ID != "" {
		a := t.AssignedTo.toService()
		out.Assignee = &a
	}
	if t.DueDate != "" {
		due, err := parseTime(t.DueDate)
		if err != nil {
			return service.Task{}, fmt.Errorf("task %s: bad dueDate: %w", t.ID, err)
		}
		out.DueDate = &due
	}
	if t.CreatedAt != "" {
		created, err := parseTime(t.CreatedAt)
		if err != nil {
			return service.Task{}, fmt.Errorf("task %s: bad createdAt: %w", t.ID, err)
		}
		out.CreatedAt = created
	}
	return out, nil
}

func convertTasks(in []wireTask) ([]service.Task, error) {
	out := make([]service.Task, 0, len(in))
	for _, t := range in {
		task, err := t.toService()
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

// taskRequest is the body of POST /tasks and PATCH /tasks/:id. Due dates go
// out as calendar dates.
type taskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	AssignedTo  *string `json:"assignedTo,omitempty"`
	ProjectID   *string `json:"projectId,omitempty"`
}

func newTaskRequest(t service.NewTask) taskRequest {
	status, priority := string(t.Status), string(t.Priority)
	req := taskRequest{
		Title:     &t.Title,
		Status:    &status,
		Priority:  &priority,
		ProjectID: &t.ProjectID,
	}
	if t.Description != "" {
		req.Description = &t.Description
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(dateLayout)
		req.DueDate = &d
	}
	if t.AssigneeID != "" {
		req.AssignedTo = &t.AssigneeID
	}
	return req
}

func patchTaskRequest(p service.TaskPatch) taskRequest {
	req := taskRequest{Title: p.Title, Description: p.Description, AssignedTo: p.AssigneeID}
	if p.Status != nil {
		s := string(*p.Status)
		req.Status = &s
	}
	if p.Priority != nil {
		s := string(*p.Priority)
		req.Priority = &s
	}
	if p.DueDate != nil {
		d := p.DueDate.Format(dateLayout)
		req.DueDate = &d
	}
	if p.ClearDueDate {
		// An empty date clears it, as an empty assignedTo unassigns.
		empty := ""
		req.DueDate = &empty
	}
	return req
}

type wireDashboard struct {
	TotalProjects       int            `json:"totalProjects"`
	TotalTasks          int            `json:"totalTasks"`
	CompletedPercentage int            `json:"completedPercentage"`
	OverdueTasks        int            `json:"overdueTasks"`
	DoneTasks           int            `json:"doneTasks"`
	TasksByStatus       map[string]int `json:"tasksByStatus"`
	TasksByPriority     map[string]int `json:"tasksByPriority"`
	RecentTasks         []wireTask     `json:"recentTasks"`
}

func (d wireDashboard) toService() (service.Dashboard, error) {
	recent, err := convertTasks(d.RecentTasks)
	if err != nil {
		return service.Dashboard{}, err
	}
	out := service.Dashboard{
		TotalProjects:       d.TotalProjects,
		TotalTasks:          d.TotalTasks,
		CompletedPercentage: d.CompletedPercentage,
		OverdueTasks:        d.OverdueTasks,
		DoneTasks:           d.DoneTasks,
		TasksByStatus:       make(map[service.Status]int, len(d.TasksByStatus)),
		TasksByPriority:     make(map[service.Priority]int, len(d.TasksByPriority)),
		RecentTasks:         recent,
	}
	for k, v := range d.TasksByStatus {
		out.TasksByStatus[service.Status(k)] = v
	}
	for k, v := range d.TasksByPriority {
		out.TasksByPriority[service.Priority(k)] = v
	}
	if out.DoneTasks == 0 {
		out.DoneTasks = out.TasksByStatus[service.StatusDone]
	}
	return out, nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorMessage(body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}
