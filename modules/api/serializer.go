package api

import (
	"strings"
	"time"

	taskdomain "github.com/example/task-api/domain/task"
	userdomain "github.com/example/task-api/domain/user"
)

// ViewMode selects which task attributes a document carries.
type ViewMode int

const (
	// ListView is the compact form used in collections.
	ListView ViewMode = iota
	// DetailView adds description and timestamps.
	DetailView
)

// Links holds a resource's own URL.
type Links struct {
	Self string `json:"self"`
}

// ResourceIdentifier points at another resource.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship is a reference stub plus its link.
type Relationship struct {
	Data  ResourceIdentifier `json:"data"`
	Links Links              `json:"links"`
}

// TaskAttributes are the visible fields of a task. TaskDetail is nil in ListView.
type TaskAttributes struct {
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Priority string  `json:"priority"`
	DueDate  *string `json:"dueDate"`
	*TaskDetail
}

// TaskDetail holds the attributes shown only on single-resource views.
type TaskDetail struct {
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskDocument is the serialized form of a task.
type TaskDocument struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    TaskAttributes          `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships"`
	Links         Links                   `json:"links"`
}

// UserAttributes are the public fields of a user.
type UserAttributes struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserDocument is the side-loaded form of a user.
type UserDocument struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes UserAttributes `json:"attributes"`
	Links      Links          `json:"links"`
}

// TaskResponse wraps one task document.
type TaskResponse struct {
	Data     TaskDocument   `json:"data"`
	Includes []UserDocument `json:"includes,omitempty"`
}

// TaskCollection wraps a page of task documents.
type TaskCollection struct {
	Data     []TaskDocument  `json:"data"`
	Includes []UserDocument  `json:"includes,omitempty"`
	Links    PaginationLinks `json:"links"`
	Meta     PaginationMeta  `json:"meta"`
}

// Serializer builds resource documents with absolute links.
type Serializer struct {
	baseURL string
}

// NewSerializer creates a Serializer rooted at baseURL.
func NewSerializer(baseURL string) *Serializer {
	return &Serializer{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Serializer) taskURL(id string) string {
	return s.baseURL + "/api/v1/tasks/" + id
}

func (s *Serializer) userURL(id string) string {
	return s.baseURL + "/api/v1/users/" + id + "/tasks"
}

// Task projects t into a document.
func (s *Serializer) Task(t *taskdomain.Task, mode ViewMode) TaskDocument {
	attrs := TaskAttributes{
		Title:    t.Title,
		Status:   string(t.Status),
		Priority: string(t.Priority),
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC().Format(taskdomain.DateLayout)
		attrs.DueDate = &due
	}
	if mode == DetailView {
		attrs.TaskDetail = &TaskDetail{
			Description: t.Description,
			CreatedAt:   t.CreatedAt.UTC(),
			UpdatedAt:   t.UpdatedAt.UTC(),
		}
	}

	return TaskDocument{
		Type:       "task",
		ID:         t.ID,
		Attributes: attrs,
		Relationships: map[string]Relationship{
			"user": {
				Data:  ResourceIdentifier{Type: "user", ID: t.UserID},
				Links: Links{Self: s.userURL(t.UserID)},
			},
		},
		Links: Links{Self: s.taskURL(t.ID)},
	}
}

// Tasks projects a slice of tasks.
func (s *Serializer) Tasks(tasks []taskdomain.Task, mode ViewMode) []TaskDocument {
	docs := make([]TaskDocument, len(tasks))
	for i := range tasks {
		docs[i] = s.Task(&tasks[i], mode)
	}
	return docs
}

// User projects u into a side-loadable document. The password hash is never read.
func (s *Serializer) User(u *userdomain.User) UserDocument {
	return UserDocument{
		Type: "user",
		ID:   u.ID,
		Attributes: UserAttributes{
			Name:      u.Name,
			Email:     u.Email,
			CreatedAt: u.CreatedAt.UTC(),
			UpdatedAt: u.UpdatedAt.UTC(),
		},
		Links: Links{Self: s.userURL(u.ID)},
	}
}

// wantsInclude reports whether the comma separated include list names relation.
func wantsInclude(include, relation string) bool {
	for _, name := range strings.Split(include, ",") {
		if strings.EqualFold(strings.TrimSpace(name), relation) {
			return true
		}
	}
	return false
}
