package domain

import (
	"artisan-link/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"simple", "hello", "hello", false},
		{"trimmed", "  hello \n", "hello", false},
		{"empty", "", "", true},
		{"blank", "   \t", "", true},
		{"max length", strings.Repeat("a", MaxContentLength), strings.Repeat("a", MaxContentLength), false},
		{"too long", strings.Repeat("a", MaxContentLength+1), "", true},
		// Length is counted in characters, not bytes
		{"multibyte at max", strings.Repeat("é", MaxContentLength), strings.Repeat("é", MaxContentLength), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := ValidateContent(tt.content)
			if tt.wantErr {
				req.ErrorIs(err, errors.ErrValidation)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestMessage_Before_Breaks_Ties_With_Sequence(t *testing.T) {
	req := require.New(t)
	at := time.Now()
	first := Message{CreatedAt: at, Sequence: 1}
	second := Message{CreatedAt: at, Sequence: 2}
	third := Message{CreatedAt: at.Add(time.Nanosecond), Sequence: 0}

	req.True(first.Before(second))
	req.False(second.Before(first))
	req.True(second.Before(third))
}

func TestMessage_MarkReadBy_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	msg := Message{SenderID: ngoID}

	req.False(msg.MarkReadBy(ngoID))
	req.True(msg.MarkReadBy(artisanID))
	req.False(msg.MarkReadBy(artisanID))
	req.Equal([]string{artisanID}, msg.ReadBy)
}

func TestMessage_Edit(t *testing.T) {
	req := require.New(t)
	msg := Message{Content: "helo"}
	now := time.Now()

	msg.Edit("hello", now)

	req.Equal("hello", msg.Content)
	req.True(msg.IsEdited)
	req.NotNil(msg.EditedAt)
	req.Equal(now, *msg.EditedAt)
}
