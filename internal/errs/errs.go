package errs

import "errors"

var ErrUserNotFound = errors.New("user not found")
var ErrInvalidToken = errors.New("invalid token")
var ErrLoginAlreadyExists = errors.New("login already exists")

// payment pipeline
var ErrNoActionableIntent = errors.New("no actionable payment intent")
var ErrInsufficientFunds = errors.New("not enough balance")
var ErrUnauthorized = errors.New("unauthorized")
var ErrServiceUnavailable = errors.New("order service unavailable")
var ErrRejected = errors.New("order rejected")
var ErrVerificationFailed = errors.New("payment verification failed")
var ErrAmbiguousSettlement = errors.New("payment settlement could not be confirmed")
var ErrAttemptInProgress = errors.New("payment attempt already in progress")

var ErrHistoryUnavailable = errors.New("history unavailable")
var ErrTranscriptionFailed = errors.New("transcription failed")
var ErrOrderNotFound = errors.New("order not found")
