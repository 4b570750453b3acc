package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		name     string
		question string
		want     []string
	}{
		{
			name:     "english stop words and short words",
			question: "How do I reset my password?",
			want:     []string{"reset", "password"},
		},
		{
			name:     "vietnamese",
			question: "Làm sao để đổi mật khẩu?",
			want:     []string{"đổi", "mật", "khẩu"},
		},
		{
			name:     "case and surrounding punctuation",
			question: "  (Invoice), EXPORT!!  ",
			want:     []string{"invoice", "export"},
		},
		{
			name:     "stop words removed",
			question: "how can you help",
			want:     []string{"help"},
		},
		{
			name:     "empty",
			question: "",
			want:     []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, usecase.Tokenize(tc.question)).Equal(tc.want)
		})
	}
}
