package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrMasterMalformed     = errors.New("hierarchy master source is malformed")
	ErrMasterEmpty         = errors.New("hierarchy master contains no leaves")
	ErrDuplicateMaster     = errors.New("master name already exists")
	ErrRunNotCompleted     = errors.New("run has not completed")
	ErrPersistenceDisabled = errors.New("persistence is not configured")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFolderNotFound      = errors.New("photo folder not found")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyBatch          = errors.New("record batch is empty")
	ErrUploadFailed        = errors.New("artifact upload to storage failed")
)
