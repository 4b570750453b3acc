package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	gt.Bool(t, errors.Is(usecase.ErrKnowledgeNotFound, usecase.ErrGenerationFailed)).False()
	gt.Bool(t, errors.Is(usecase.ErrInvalidInput, usecase.ErrQueryTooShort)).False()
	gt.Bool(t, errors.Is(usecase.ErrScanInProgress, usecase.ErrInvalidTransition)).False()
}

func TestGenerationFailedMessage(t *testing.T) {
	t.Run("localized per locale", func(t *testing.T) {
		en := usecase.GenerationFailedMessage(types.LocaleEN)
		vi := usecase.GenerationFailedMessage(types.LocaleVI)
		gt.String(t, en).NotEqual("")
		gt.String(t, vi).NotEqual("")
		gt.String(t, en).NotEqual(vi)
	})

	t.Run("unknown locale falls back to Vietnamese", func(t *testing.T) {
		gt.Value(t, usecase.GenerationFailedMessage("")).Equal(usecase.GenerationFailedMessage(types.LocaleVI))
	})
}
