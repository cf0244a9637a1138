package task

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/task-api/database"
	domain "github.com/example/task-api/domain/task"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: ":memory:"}, &domain.Task{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	return db
}

func strPtr(s string) *string { return &s }

func date(value string) *time.Time {
	d, err := domain.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return &d
}

// seedTask inserts a task owned by ownerID; opts adjust it before insert.
func seedTask(t *testing.T, db *gorm.DB, ownerID, title string, opts ...func(*domain.Task)) *domain.Task {
	t.Helper()

	now := time.Now().UTC()
	task := &domain.Task{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Title:     title,
		Status:    domain.StatusPending,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(task)
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return task
}

func withStatus(s domain.Status) func(*domain.Task) {
	return func(t *domain.Task) { t.Status = s }
}

func withPriority(p domain.Priority) func(*domain.Task) {
	return func(t *domain.Task) { t.Priority = p }
}

func withDescription(d string) func(*domain.Task) {
	return func(t *domain.Task) { t.Description = &d }
}

func withDueDate(value string) func(*domain.Task) {
	return func(t *domain.Task) { t.DueDate = date(value) }
}

func withCreatedAt(value string) func(*domain.Task) {
	return func(t *domain.Task) {
		d := date(value).Add(10 * time.Hour)
		t.CreatedAt = d
		t.UpdatedAt = d
	}
}

func titles(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func TestRepository_FindOwned(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := seedTask(t, db, "owner", "Mine")

	tests := []struct {
		name    string
		id      string
		owner   string
		wantErr error
	}{
		{name: "owner", id: task.ID, owner: "owner"},
		{name: "another user", id: task.ID, owner: "intruder", wantErr: ErrTaskNotFound},
		{name: "missing task", id: uuid.New().String(), owner: "owner", wantErr: ErrTaskNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindOwned(ctx, tt.id, tt.owner)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FindOwned() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && found.Title != "Mine" {
				t.Errorf("FindOwned() title = %q, want %q", found.Title, "Mine")
			}
		})
	}
}

func TestRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := seedTask(t, db, "owner", "Delete me")

	if err := repo.Delete(ctx, task.ID, "intruder"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("Delete() by another user error = %v, want %v", err, ErrTaskNotFound)
	}

	var count int64
	db.Model(&domain.Task{}).Where("id = ?", task.ID).Count(&count)
	if count != 1 {
		t.Fatalf("task was removed by a non-owner")
	}

	if err := repo.Delete(ctx, task.ID, "owner"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	db.Model(&domain.Task{}).Where("id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Errorf("task still present after Delete()")
	}
}

func TestRepository_ListPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		seedTask(t, db, "owner", fmt.Sprintf("Task %02d", i))
	}
	seedTask(t, db, "someone-else", "Foreign")

	tests := []struct {
		name      string
		page      int
		wantCount int
	}{
		{name: "first page", page: 1, wantCount: 15},
		{name: "second page", page: 2, wantCount: 5},
		{name: "past the end", page: 3, wantCount: 0},
		{name: "zero page falls back to first", page: 0, wantCount: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, total, err := repo.List(ctx, Scope{OwnerID: "owner", Page: tt.page})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != 20 {
				t.Errorf("List() total = %d, want 20", total)
			}
			if len(tasks) != tt.wantCount {
				t.Errorf("List() returned %d tasks, want %d", len(tasks), tt.wantCount)
			}
		})
	}
}

func TestRepository_ListOwnershipBeatsUserIDFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedTask(t, db, "owner", "Mine")
	seedTask(t, db, "other", "Theirs")

	tasks, total, err := repo.List(ctx, Scope{
		OwnerID: "owner",
		Filters: FilterParams{"userId": "other"},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 0 || len(tasks) != 0 {
		t.Errorf("userId filter widened the scope: got %v", titles(tasks))
	}

	tasks, _, err = repo.List(ctx, Scope{
		OwnerID: "owner",
		Filters: FilterParams{"userId": "owner,other"},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Mine" {
		t.Errorf("List() = %v, want [Mine]", titles(tasks))
	}
}

func TestRepository_ListSort(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedTask(t, db, "owner", "Zebra Task", withDueDate("2030-01-01"))
	seedTask(t, db, "owner", "Alpha Task", withDueDate("2030-03-01"))
	seedTask(t, db, "owner", "Beta Task", withDueDate("2030-02-01"))

	tests := []struct {
		name string
		sort string
		want []string
	}{
		{name: "title ascending", sort: "title", want: []string{"Alpha Task", "Beta Task", "Zebra Task"}},
		{name: "title descending", sort: "-title", want: []string{"Zebra Task", "Beta Task", "Alpha Task"}},
		{name: "due date alias", sort: "dueDate", want: []string{"Zebra Task", "Beta Task", "Alpha Task"}},
		{name: "due date descending", sort: "-dueDate", want: []string{"Alpha Task", "Beta Task", "Zebra Task"}},
		{name: "unknown field ignored", sort: "password,title", want: []string{"Alpha Task", "Beta Task", "Zebra Task"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, _, err := repo.List(ctx, Scope{OwnerID: "owner", Sort: ParseSort(tt.sort)})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			got := titles(tasks)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("List() order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRepository_ListDefaultOrderIsStable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedTask(t, db, "owner", "Same title")
	}

	first, _, err := repo.List(ctx, Scope{OwnerID: "owner", Sort: ParseSort("bogus")})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	second, _, err := repo.List(ctx, Scope{OwnerID: "owner"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if i > 0 && first[i-1].ID > first[i].ID {
			t.Fatalf("default order is not by id")
		}
	}
}
