// Package httperr maps domain errors onto HTTP status codes.
package httperr

import (
	"errors"
	"net/http"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/conversation"
	chatService "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/onboarding"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/utils"
)

// Status returns the HTTP status that best describes err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, chatService.ErrSessionNotFound),
		errors.Is(err, onboarding.ErrPersonaNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, chatService.ErrConversationTooLong),
		errors.Is(err, onboarding.ErrConversationComplete),
		errors.Is(err, conversation.ErrNotMultiSelect),
		errors.Is(err, conversation.ErrSelectionLimit):
		return http.StatusConflict
	case errors.Is(err, conversation.ErrEmptyReply),
		errors.Is(err, conversation.ErrUnknownOption),
		errors.Is(err, conversation.ErrEmptySelection),
		errors.Is(err, chatService.ErrInvalidMode),
		errors.Is(err, chatService.ErrPersonaRequired):
		return http.StatusBadRequest
	case errors.Is(err, onboarding.ErrAIUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error body. Internal failures hide their detail.
func Respond(w http.ResponseWriter, err error) {
	status := Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	utils.RespondError(w, status, message)
}
