package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing task", errors.New("handler error: task cannot be found"), ErrTaskNotFound},
		{"bad attributes", errors.New("handler error: invalid task attributes: title is required"), ErrInvalidAttributes},
		{"no owner", errors.New("task owner is required"), ErrOwnerRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}

	unknown := errors.New("nats: no responders available for request")
	assert.Same(t, unknown, translateError(unknown))
}
