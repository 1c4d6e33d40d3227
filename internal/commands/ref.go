package commands

import (
	"errors"
	"fmt"
	"strings"

	"taskdeck/internal/service"
)

// ErrRefRequired indicates no reference was provided.
var ErrRefRequired = errors.New("reference required")

// ResolveTask finds the task ref points at.
//
// Resolution rules:
// 1. An exact id wins.
// 2. Otherwise ref must be a prefix of exactly one task id.
func ResolveTask(tasks []service.Task, ref string) (service.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.Task{}, ErrRefRequired
	}
	var found []service.Task
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return service.Task{}, &service.ValidationError{Message: fmt.Sprintf("task not found: %s", ref)}
	case 1:
		return found[0], nil
	}
	return service.Task{}, &service.ValidationError{Message: fmt.Sprintf("ambiguous task reference: %s", ref)}
}

// ResolveProject finds a project by exact id, unique id prefix, or
// case-insensitive name.
func ResolveProject(projects []service.Project, ref string) (service.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.Project{}, ErrRefRequired
	}
	var byPrefix, byName []service.Project
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
		if strings.HasPrefix(p.ID, ref) {
			byPrefix = append(byPrefix, p)
		}
		if strings.EqualFold(strings.TrimSpace(p.Name), ref) {
			byName = append(byName, p)
		}
	}
	for _, candidates := range [][]service.Project{byPrefix, byName} {
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return candidates[0], nil
		}
		return service.Project{}, &service.ValidationError{Message: fmt.Sprintf("ambiguous project reference: %s", ref)}
	}
	return service.Project{}, &service.ValidationError{Message: fmt.Sprintf("project not found: %s", ref)}
}

// ResolveMember finds a member by id, email, or case-insensitive name.
func ResolveMember(members []service.User, ref string) (service.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.User{}, ErrRefRequired
	}
	var byName []service.User
	for _, m := range members {
		if m.ID == ref || strings.EqualFold(m.Email, ref) {
			return m, nil
		}
		if strings.EqualFold(strings.TrimSpace(m.Name), ref) {
			byName = append(byName, m)
		}
	}
	switch len(byName) {
	case 0:
		return service.User{}, &service.ValidationError{Message: fmt.Sprintf("member not found: %s", ref)}
	case 1:
		return byName[0], nil
	}
	return service.User{}, &service.ValidationError{Message: fmt.Sprintf("ambiguous member reference: %s", ref)}
}
