// Package todo implements the read_todos and write_todos tools backed by a
// conversation-scoped in-memory store.
package todo

import (
	"context"
	"fmt"
	"sync"
)

// Status is the lifecycle state of a todo item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Todo is a single task item.
type Todo struct {
	Description string `json:"description" mapstructure:"description"`
	Status      Status `json:"status" mapstructure:"status"`
}

// Store holds the todo list for one conversation. It is volatile by design:
// a conversation reset clears it.
type Store struct {
	mu    sync.RWMutex
	todos []Todo
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Read returns a copy of the current todos.
func (s *Store) Read() []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// Write atomically replaces the whole list.
func (s *Store) Write(todos []Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = make([]Todo, len(todos))
	copy(s.todos, todos)
}

// Clear empties the list.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = nil
}

// ReadTodosRequest has no arguments.
type ReadTodosRequest struct{}

// ReadTodosResponse lists the current todos.
type ReadTodosResponse struct {
	Todos []Todo `json:"todos"`
}

// WriteTodosRequest replaces the whole todo list.
type WriteTodosRequest struct {
	Todos []Todo `mapstructure:"todos"`
}

// Validate checks every item; an empty list is allowed (it clears the list).
func (r *WriteTodosRequest) Validate() error {
	for i, todo := range r.Todos {
		switch todo.Status {
		case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		default:
			return fmt.Errorf("todo %d: invalid status %q", i, todo.Status)
		}
		if todo.Description == "" {
			return fmt.Errorf("todo %d: description must not be empty", i)
		}
	}
	return nil
}

// WriteTodosResponse reports how many items were stored.
type WriteTodosResponse struct {
	Count int `json:"count"`
}

// Service exposes the todo tools over a Store.
type Service struct {
	store *Store
}

// NewService creates a Service over store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Read returns all todos.
func (s *Service) Read(ctx context.Context, req *ReadTodosRequest) (*ReadTodosResponse, error) {
	return &ReadTodosResponse{Todos: s.store.Read()}, nil
}

// Write replaces the todo list.
func (s *Service) Write(ctx context.Context, req *WriteTodosRequest) (*WriteTodosResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.store.Write(req.Todos)
	return &WriteTodosResponse{Count: len(req.Todos)}, nil
}
