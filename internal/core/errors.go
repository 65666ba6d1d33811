package core

import "errors"

// Error codes for session errors.
const (
	ErrCodeCredentialMissing  = "credential_missing"
	ErrCodeHandshakeRejected  = "handshake_rejected"
	ErrCodeTransportLost      = "transport_lost"
	ErrCodeReconnectExhausted = "reconnect_exhausted"
	ErrCodeJoinTimeout        = "join_timeout"
	ErrCodeJoinRejected       = "join_rejected"
	ErrCodeSendTimeout        = "send_timeout"
	ErrCodeSendRejected       = "send_rejected"
	ErrCodeCancelled          = "cancelled"
	ErrCodeConnectError       = "connect_error"
)

var (
	ErrCredentialMissing  = errors.New("please log in to use community chat")
	ErrHandshakeRejected  = errors.New("handshake rejected")
	ErrTransportLost      = errors.New("disconnected from chat")
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
	ErrJoinTimeout        = errors.New("chat join timed out")
	ErrJoinRejected       = errors.New("join rejected")
	ErrSendTimeout        = errors.New("message send timeout")
	ErrSendRejected       = errors.New("send rejected")

	ErrCancelled    = errors.New("cancelled")
	ErrClosed       = errors.New("session closed")
	ErrNotConnected = errors.New("not connected")
	ErrNotJoined    = errors.New("room not joined")
	ErrEmptyMessage = errors.New("message is empty")
	ErrAlreadyOpen  = errors.New("session already open")
	ErrRoomRequired = errors.New("room id is required")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}

var (
	errJoinTimeout = coreError(ErrCodeJoinTimeout, "Chat join timed out", ErrJoinTimeout)
	errSendTimeout = coreError(ErrCodeSendTimeout, "Message send timeout", ErrSendTimeout)
	errTransport   = coreError(ErrCodeTransportLost, "Disconnected from chat", ErrTransportLost)
	errExhausted   = coreError(ErrCodeReconnectExhausted, "Disconnected from chat", ErrReconnectExhausted)
	errCredential  = coreError(ErrCodeCredentialMissing, "Please log in to use community chat", ErrCredentialMissing)
)

func joinRejected(reason string) *CoreError {
	if reason == "" {
		reason = "Failed to join room"
	}
	return coreError(ErrCodeJoinRejected, reason, ErrJoinRejected)
}

func sendRejected(reason string) *CoreError {
	if reason == "" {
		reason = "Failed to send message"
	}
	return coreError(ErrCodeSendRejected, reason, ErrSendRejected)
}

func cancelled(msg string) *CoreError {
	return coreError(ErrCodeCancelled, msg, ErrCancelled)
}

// IsFatal reports whether err leaves the session in a state only a new Open can fix.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCredentialMissing) ||
		errors.Is(err, ErrHandshakeRejected) ||
		errors.Is(err, ErrReconnectExhausted)
}

// Code extracts the CoreError code, or "" for foreign errors.
func Code(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
