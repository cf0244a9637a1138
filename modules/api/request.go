package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/task-api/domain/task"
	"github.com/example/task-api/modules/task"
	"github.com/go-playground/validator/v10"
)

// attributeMapping copies the value at a dotted source path onto a flat target field.
type attributeMapping struct {
	source string
	target string
}

var (
	taskAttributeMap = []attributeMapping{
		{source: "data.attributes.title", target: "title"},
		{source: "data.attributes.description", target: "description"},
		{source: "data.attributes.status", target: "status"},
		{source: "data.attributes.priority", target: "priority"},
		{source: "data.attributes.due_date", target: "due_date"},
		{source: "data.relationships.user.data.id", target: "user_id"},
	}

	registerAttributeMap = []attributeMapping{
		{source: "data.attributes.name", target: "name"},
		{source: "data.attributes.email", target: "email"},
		{source: "data.attributes.password", target: "password"},
		{source: "data.attributes.password_confirmation", target: "password_confirmation"},
	}

	profileAttributeMap = []attributeMapping{
		{source: "data.attributes.name", target: "name"},
		{source: "data.attributes.email", target: "email"},
	}

	loginAttributeMap = []attributeMapping{
		{source: "email", target: "email"},
		{source: "password", target: "password"},
	}
)

// decodeBody parses a JSON object body. Anything else reads as an empty object,
// so a malformed body fails validation instead of parsing.
func decodeBody(body []byte) map[string]any {
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// lookup walks a dotted path through nested objects.
func lookup(body map[string]any, path string) (any, bool) {
	var current any = body
	for _, segment := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = object[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}

// mapAttributes flattens body through mapping. Only keys present in the body
// appear in the result; an explicit null is kept as a nil value.
func mapAttributes(body map[string]any, mapping []attributeMapping) map[string]any {
	attrs := make(map[string]any, len(mapping))
	for _, m := range mapping {
		if value, ok := lookup(body, m.source); ok {
			attrs[m.target] = value
		}
	}
	return attrs
}

type presence int

const (
	// required fields must be present and filled.
	required presence = iota
	// sometimes fields are checked only when present, and then must be filled.
	sometimes
	// nullable fields may be absent or null.
	nullable
)

// fieldRule describes how one flat field is validated.
type fieldRule struct {
	presence  presence
	tags      string
	confirmed bool
	messages  map[string]string
}

type ruleSet map[string]fieldRule

const (
	statusMessage   = "The status value is invalid. Please use pending, in_progress, or completed."
	priorityMessage = "The priority value is invalid. Please use low, medium, or high."
	takenMessage    = "The email has already been taken."
)

var (
	statusTags   = "oneof=" + strings.Join([]string{string(domain.StatusPending), string(domain.StatusInProgress), string(domain.StatusCompleted)}, " ")
	priorityTags = "oneof=" + strings.Join([]string{string(domain.PriorityLow), string(domain.PriorityMedium), string(domain.PriorityHigh)}, " ")

	createTaskRules = ruleSet{
		"title":       {presence: required},
		"description": {presence: nullable},
		"status":      {presence: nullable, tags: statusTags, messages: map[string]string{"oneof": statusMessage}},
		"priority":    {presence: nullable, tags: priorityTags, messages: map[string]string{"oneof": priorityMessage}},
		"due_date":    {presence: nullable, tags: "date,not_past"},
		"user_id":     {presence: nullable},
	}

	replaceTaskRules = ruleSet{
		"title":       {presence: required},
		"description": {presence: required},
		"status":      {presence: required, tags: statusTags, messages: map[string]string{"oneof": statusMessage}},
		"priority":    {presence: required, tags: priorityTags, messages: map[string]string{"oneof": priorityMessage}},
		"due_date":    {presence: required, tags: "date"},
		"user_id":     {presence: nullable},
	}

	updateTaskRules = ruleSet{
		"title":       {presence: sometimes},
		"description": {presence: sometimes},
		"status":      {presence: sometimes, tags: statusTags, messages: map[string]string{"oneof": statusMessage}},
		"priority":    {presence: sometimes, tags: priorityTags, messages: map[string]string{"oneof": priorityMessage}},
		"due_date":    {presence: sometimes, tags: "date"},
		"user_id":     {presence: nullable},
	}

	registerRules = ruleSet{
		"name":     {presence: required, tags: "max=255"},
		"email":    {presence: required, tags: "email,max=255"},
		"password": {presence: required, tags: "min=8,max=72", confirmed: true},
	}

	profileRules = ruleSet{
		"name":  {presence: sometimes, tags: "min=2,max=255"},
		"email": {presence: sometimes, tags: "email,min=5,max=255"},
	}

	loginRules = ruleSet{
		"email":    {presence: required, tags: "email"},
		"password": {presence: required},
	}
)

// requestValidator checks flattened request attributes against a rule set.
type requestValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

func newRequestValidator() *requestValidator {
	v := &requestValidator{
		validate: validator.New(),
		now:      time.Now,
	}
	// Registration only fails on an empty tag name or nil func.
	_ = v.validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.validate.RegisterValidation("not_past", func(fl validator.FieldLevel) bool {
		d, err := domain.ParseDate(fl.Field().String())
		if err != nil {
			return false
		}
		today := v.now().UTC().Truncate(24 * time.Hour)
		return !d.Before(today)
	})
	return v
}

// check validates attrs and returns errors keyed by the source path of each field.
func (v *requestValidator) check(attrs map[string]any, mapping []attributeMapping, rules ruleSet) map[string][]string {
	errs := make(map[string][]string)
	for _, m := range mapping {
		rule, ok := rules[m.target]
		if !ok {
			continue
		}
		if msg := v.checkField(attrs, m.target, rule); msg != "" {
			errs[m.source] = append(errs[m.source], msg)
		}
	}
	return errs
}

func (v *requestValidator) checkField(attrs map[string]any, field string, rule fieldRule) string {
	name := strings.ReplaceAll(field, "_", " ")
	value, present := attrs[field]

	if !present || value == nil {
		if rule.presence == required || (present && rule.presence == sometimes) {
			return rule.message("required", name, "")
		}
		return ""
	}

	str, ok := value.(string)
	if !ok {
		return rule.message("string", name, "")
	}
	if strings.TrimSpace(str) == "" {
		if rule.presence == nullable {
			return ""
		}
		return rule.message("required", name, "")
	}

	if rule.tags != "" {
		if err := v.validate.Var(str, rule.tags); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return rule.message(verrs[0].Tag(), name, verrs[0].Param())
			}
			return rule.message("", name, "")
		}
	}

	if rule.confirmed {
		confirmation, _ := attrs[field+"_confirmation"].(string)
		if confirmation != str {
			return rule.message("confirmed", name, "")
		}
	}
	return ""
}

func (r fieldRule) message(tag, name, param string) string {
	if msg, ok := r.messages[tag]; ok {
		return msg
	}
	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "string":
		return fmt.Sprintf("The %s field must be a string.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, param)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, param)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "date":
		return fmt.Sprintf("The %s is not a valid date.", name)
	case "not_past":
		return fmt.Sprintf("The %s must not be in the past.", name)
	case "confirmed":
		return fmt.Sprintf("The %s confirmation does not match.", name)
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

// taskAttributes converts validated attributes into the task module's form.
func taskAttributes(attrs map[string]any) task.Attributes {
	var out task.Attributes
	if s, ok := attrs["title"].(string); ok {
		out.Title = &s
	}
	if s, ok := attrs["description"].(string); ok {
		out.Description = &s
	}
	if s, ok := attrs["status"].(string); ok && s != "" {
		status := domain.Status(s)
		out.Status = &status
	}
	if s, ok := attrs["priority"].(string); ok && s != "" {
		priority := domain.Priority(s)
		out.Priority = &priority
	}
	if s, ok := attrs["due_date"].(string); ok && s != "" {
		if d, err := domain.ParseDate(s); err == nil {
			out.DueDate = &d
		}
	}
	return out
}

// stringAttr returns a present string attribute, or nil.
func stringAttr(attrs map[string]any, field string) *string {
	if s, ok := attrs[field].(string); ok {
		return &s
	}
	return nil
}
