package api

import (
	"context"
	"errors"

	taskdomain "github.com/example/task-api/domain/task"
	"github.com/example/task-api/modules/auth"
	"github.com/example/task-api/modules/task"
	"github.com/gofiber/fiber/v2"
)

// owner resolves whose tasks the request addresses. Top-level routes act on
// the caller. Nested routes act on the path user, who must exist; when the
// request mutates, the path user must also be the caller, and a mismatch is
// reported as notFoundMsg.
func (h *Handlers) owner(c *fiber.Ctx, mutating bool, notFoundMsg string) (string, error) {
	claims := currentClaims(c)
	if claims == nil {
		return "", unauthenticated(nil)
	}

	pathUser := c.Params("user")
	if pathUser == "" {
		return claims.UserID, nil
	}

	if _, err := h.auth.GetUser(c.UserContext(), pathUser); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return "", notFound(msgUserNotFound, err)
		}
		return "", err
	}
	if mutating && pathUser != claims.UserID {
		return "", notFound(notFoundMsg, nil)
	}
	return pathUser, nil
}

// ListTasks returns one page of tasks with links and meta.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	ownerID, err := h.owner(c, false, msgUserNotFound)
	if err != nil {
		return err
	}

	filters := task.ParseFilterParams(c.Queries())
	page, err := h.tasks.ListTasks(c.UserContext(), task.ListTasksRequest{
		OwnerID: ownerID,
		Filters: filters,
		Sort:    task.ParseSort(c.Query("sort")),
		Page:    parsePage(c.Query("page")),
	})
	if err != nil {
		return err
	}

	s := h.serializer(c)
	links, meta := paginate(s.baseURL+c.Path(), page)
	resp := TaskCollection{
		Data:  s.Tasks(page.Tasks, ListView),
		Links: links,
		Meta:  meta,
	}
	if wantsInclude(filters["include"], "user") {
		if resp.Includes, err = h.includeUsers(c.UserContext(), s, page.Tasks); err != nil {
			return err
		}
	}
	return c.JSON(resp)
}

// ShowTask returns one task in detail.
func (h *Handlers) ShowTask(c *fiber.Ctx) error {
	ownerID, err := h.owner(c, false, msgTaskNotFound)
	if err != nil {
		return err
	}

	t, err := h.tasks.GetTask(c.UserContext(), c.Params("task"), ownerID)
	if err != nil {
		return err
	}
	return h.sendTask(c, fiber.StatusOK, t)
}

// CreateTask stores a new task for the resolved owner.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	ownerID, err := h.owner(c, true, msgUserNotFound)
	if err != nil {
		return err
	}

	attrs, err := h.taskInput(c, createTaskRules, ownerID)
	if err != nil {
		return err
	}

	t, err := h.tasks.CreateTask(c.UserContext(), ownerID, attrs)
	if err != nil {
		return err
	}
	return h.sendTask(c, fiber.StatusCreated, t)
}

// ReplaceTask overwrites every attribute of a task.
func (h *Handlers) ReplaceTask(c *fiber.Ctx) error {
	ownerID, err := h.owner(c, true, msgTaskNotFound)
	if err != nil {
		return err
	}

	attrs, err := h.taskInput(c, replaceTaskRules, ownerID)
	if err != nil {
		return err
	}

	t, err := h.tasks.ReplaceTask(c.UserContext(), c.Params("task"), ownerID, attrs)
	if err != nil {
		return err
	}
	return h.sendTask(c, fiber.StatusOK, t)
}

// UpdateTask changes only the supplied attributes of a task.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	ownerID, err := h.owner(c, true, msgTaskNotFound)
	if err != nil {
		return err
	}

	attrs, err := h.taskInput(c, updateTaskRules, ownerID)
	if err != nil {
		return err
	}

	t, err := h.tasks.UpdateTask(c.UserContext(), c.Params("task"), ownerID, attrs)
	if err != nil {
		return err
	}
	return h.sendTask(c, fiber.StatusOK, t)
}

// DeleteTask removes a task.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	ownerID, err := h.owner(c, true, msgTaskNotFound)
	if err != nil {
		return err
	}

	if err := h.tasks.DeleteTask(c.UserContext(), c.Params("task"), ownerID); err != nil {
		return err
	}
	return c.JSON(MessageResponse{
		Message: "Task successfully deleted",
		Status:  fiber.StatusOK,
	})
}

// taskInput maps and validates a task body. A relationship naming another
// user is treated like a task the caller cannot see.
func (h *Handlers) taskInput(c *fiber.Ctx, rules ruleSet, ownerID string) (task.Attributes, error) {
	attrs := mapAttributes(decodeBody(c.Body()), taskAttributeMap)
	if errs := h.validator.check(attrs, taskAttributeMap, rules); len(errs) > 0 {
		return task.Attributes{}, validationError(errs)
	}
	if userID := str(attrs, "user_id"); userID != "" && userID != ownerID {
		return task.Attributes{}, notFound(msgTaskNotFound, nil)
	}
	return taskAttributes(attrs), nil
}

func (h *Handlers) sendTask(c *fiber.Ctx, status int, t *taskdomain.Task) error {
	s := h.serializer(c)
	resp := TaskResponse{Data: s.Task(t, DetailView)}
	if wantsInclude(c.Query("include"), "user") {
		includes, err := h.includeUsers(c.UserContext(), s, []taskdomain.Task{*t})
		if err != nil {
			return err
		}
		resp.Includes = includes
	}
	return c.Status(status).JSON(resp)
}

// includeUsers loads the distinct owners of tasks, in order of first appearance.
func (h *Handlers) includeUsers(ctx context.Context, s *Serializer, tasks []taskdomain.Task) ([]UserDocument, error) {
	seen := make(map[string]bool)
	docs := make([]UserDocument, 0, 1)
	for _, t := range tasks {
		if seen[t.UserID] {
			continue
		}
		seen[t.UserID] = true

		user, err := h.auth.GetUser(ctx, t.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		docs = append(docs, s.User(user))
	}
	return docs, nil
}
