package dispatch

import (
	"errors"
	"fmt"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/config"
)

// Render turns an error into the Hebrew reply for the user. Each error class
// has its own wording.
func Render(err error, msgs config.MessagesConfig) string {
	if err == nil {
		return ""
	}

	var (
		ve *apperr.ValidationError
		ne *apperr.NotFoundError
		ae *apperr.AttachmentError
		re *apperr.RemoteError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Msg
	case errors.As(err, &ne):
		return fmt.Sprintf(msgs.NotFoundFmt, ne.Kind, ne.Query)
	case errors.As(err, &ae):
		// Checked before RemoteError: attachment failures usually wrap one.
		return AttachmentMessage(ae.Stage, msgs) + msgs.AttachRetryHint
	case errors.As(err, &re):
		return remoteMessage(re, msgs)
	default:
		return msgs.ErrorGeneralMsg
	}
}

// AttachmentMessage returns the stage-specific attach failure text.
func AttachmentMessage(stage apperr.Stage, msgs config.MessagesConfig) string {
	switch stage {
	case apperr.StageFetch:
		return msgs.AttachFetchErrorMsg
	case apperr.StageUpload:
		return msgs.AttachUploadErrorMsg
	case apperr.StageUpdate:
		return msgs.AttachUpdateErrorMsg
	default:
		return msgs.AttachVerifyErrorMsg
	}
}

func remoteMessage(re *apperr.RemoteError, msgs config.MessagesConfig) string {
	if re.Transport {
		if re.Timeout() {
			return msgs.RemoteTimeoutMsg
		}
		return msgs.RemoteConnectionMsg
	}
	return fmt.Sprintf(msgs.RemoteStatusFmt, re.Status, re.Body)
}
