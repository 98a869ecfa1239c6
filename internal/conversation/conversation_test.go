package conversation

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: DefaultTitle},
		{name: "short kept verbatim", input: "How do agents work?", want: "How do agents work?"},
		{
			name:  "exactly at limit kept verbatim",
			input: strings.Repeat("a", TitleMaxRunes),
			want:  strings.Repeat("a", TitleMaxRunes),
		},
		{
			name:  "over limit truncated with ellipsis",
			input: strings.Repeat("a", TitleMaxRunes+1),
			want:  strings.Repeat("a", TitleMaxRunes) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.input); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestDeriveTitleMultibyte ensures truncation counts runes, not bytes, so a
// multibyte character is never split.
func TestDeriveTitleMultibyte(t *testing.T) {
	input := strings.Repeat("界", TitleMaxRunes+10)

	got := DeriveTitle(input)
	if !utf8.ValidString(got) {
		t.Fatalf("DeriveTitle produced invalid UTF-8: %q", got)
	}
	want := strings.Repeat("界", TitleMaxRunes) + "..."
	if got != want {
		t.Errorf("DeriveTitle() = %q, want %q", got, want)
	}
}

func TestNewMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     NewMessage
		wantErr error
	}{
		{name: "valid user message", msg: NewMessage{Role: RoleUser, Content: "hi"}, wantErr: nil},
		{name: "valid assistant message", msg: NewMessage{Role: RoleAssistant, Content: "hello"}, wantErr: nil},
		{name: "empty content", msg: NewMessage{Role: RoleUser, Content: ""}, wantErr: ErrEmptyMessage},
		{name: "unknown role", msg: NewMessage{Role: "system", Content: "x"}, wantErr: ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.msg.validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
