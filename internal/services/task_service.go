package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/task-tracker/internal/access"
	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/query"
	"github.com/adanyl0v/task-tracker/internal/storage"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	tasks  storage.TaskStore
}

func NewTaskService(
	logger zerolog.Logger,
	tasks storage.TaskStore,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		tasks:  tasks,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, actor *models.User, params CreateTaskParams) (*models.Task, error) {
	if params.Status == "" {
		params.Status = models.StatusPending
	}
	patch := models.TaskPatch{Name: &params.Name, Status: &params.Status}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	task := &models.Task{
		Name:      params.Name,
		Status:    params.Status,
		OwnerID:   actor.ID,
		CreatedAt: time.Now(),
	}
	err := s.tasks.CreateTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("user_id", actor.ID).
			Msg("failed to create task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("user_id", actor.ID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, actor *models.User, taskID int64) (*models.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil && !errors.Is(err, storage.ErrTaskNotFound) {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select task")
		return nil, err
	}

	err = s.check(actor, task, taskID, access.ActionRead)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, actor *models.User, filter query.TaskFilter) ([]*models.Task, error) {
	var ownerScope *int64
	if access.AuthorizeAdmin(actor) == access.Deny {
		ownerScope = &actor.ID
	}
	return s.list(ctx, actor, ownerScope, filter)
}

func (s *taskServiceImpl) ListOwnTasks(ctx context.Context, actor *models.User, filter query.TaskFilter) ([]*models.Task, error) {
	return s.list(ctx, actor, &actor.ID, filter)
}

func (s *taskServiceImpl) list(ctx context.Context, actor *models.User, ownerScope *int64, filter query.TaskFilter) ([]*models.Task, error) {
	plan, err := query.Compose(ownerScope, filter)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Msg("invalid task filter")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	tasks, err := s.tasks.ListTasks(ctx, plan)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("user_id", actor.ID).
			Msg("failed to list tasks")
		return nil, err
	}

	s.logger.Info().
		Int("count", len(tasks)).
		Int64("user_id", actor.ID).
		Bool("scoped", ownerScope != nil).
		Msg("tasks found")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, actor *models.User, taskID int64, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	task, err := s.tasks.UpdateTask(ctx, taskID, func(task *models.Task) error {
		err := s.check(actor, task, taskID, access.ActionWrite)
		if err != nil {
			return err
		}
		patch.Apply(task)
		return nil
	})
	if err != nil {
		return nil, s.storeError(err, taskID, "failed to update task")
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("user_id", actor.ID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, actor *models.User, taskID int64) error {
	err := s.tasks.DeleteTask(ctx, taskID, func(task *models.Task) error {
		return s.check(actor, task, taskID, access.ActionDelete)
	})
	if err != nil {
		return s.storeError(err, taskID, "failed to delete task")
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Int64("user_id", actor.ID).
		Msg("deleted task")
	return nil
}

// check maps the access decision for a possibly missing task onto the
// service errors, existence first.
func (s *taskServiceImpl) check(actor *models.User, task *models.Task, taskID int64, action access.Action) error {
	err := access.Check(actor, task, action)
	switch {
	case errors.Is(err, access.ErrNotFound):
		s.logger.Error().
			Int64("task_id", taskID).
			Msg("task not found")
		return ErrTaskNotFound
	case errors.Is(err, access.ErrForbidden):
		s.logger.Warn().
			Int64("task_id", taskID).
			Int64("user_id", actor.ID).
			Stringer("action", action).
			Msg("access denied")
		return ErrForbidden
	}
	return err
}

func (s *taskServiceImpl) storeError(err error, taskID int64, msg string) error {
	switch {
	case errors.Is(err, storage.ErrTaskNotFound):
		s.logger.Error().
			Int64("task_id", taskID).
			Msg("task not found")
		return ErrTaskNotFound
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrForbidden):
		return err
	}

	s.logger.Error().
		Err(err).
		Int64("task_id", taskID).
		Msg(msg)
	return err
}
