package protocol

// Error codes carried in `error{code,message}` envelopes. A logical error
// never closes the connection; only transport failures end a session.
const (
	CodeInvalidJSON          = "invalid_json"
	CodeInvalidMessage       = "invalid_message"
	CodeUnknownType          = "unknown_type"
	CodeAlreadyAuthenticated = "already_authenticated"
	CodeInvalidPayload       = "invalid_payload"
	CodeMissingCredentials   = "missing_credentials"
	CodeAuthFailed           = "auth_failed"
	CodeNotAuthenticated     = "not_authenticated"
	CodeRoomNotFound         = "room_not_found"
	CodeRoomFull             = "room_full"
	CodeForbidden            = "forbidden"
	CodeNotInRoom            = "not_in_room"
	CodeInvalidPhase         = "invalid_phase"
	CodeInvalidMjAction      = "invalid_mj_action"
	CodeClickRejected        = "click_rejected"
)

// ErrorPayload is the payload of an `error` envelope.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
