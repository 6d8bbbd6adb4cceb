package store

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateKey    = "DUPLICATE_KEY"
	TextCodeNotFound        = "RECORD_NOT_FOUND"
	TextCodeInvalidBehavior = "INVALID_INSERT_BEHAVIOR"
)

// DuplicateKeyError wraps a driver error signalling an identifier collision.
// The driver error stays reachable through errors.As.
func DuplicateKeyError(src error, collection string) error {
	err := goerrors.New("go-records: duplicate key", goerrors.CategoryConflict)
	if src != nil {
		err = goerrors.Wrap(src, goerrors.CategoryConflict, "go-records: duplicate key")
	}
	return err.WithCode(goerrors.CodeConflict).
		WithTextCode(TextCodeDuplicateKey).
		WithMetadata(map[string]any{"collection": collection})
}

// NotFoundError reports a missing record.
func NotFoundError(collection, id string) error {
	return goerrors.New("go-records: record not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeNotFound).
		WithMetadata(map[string]any{"collection": collection, "id": id})
}

// IsDuplicateKey reports whether err signals an identifier collision.
func IsDuplicateKey(err error) bool {
	return hasTextCode(err, TextCodeDuplicateKey)
}

// IsNotFound reports whether err signals a missing record.
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeNotFound)
}

func invalidBehaviorError(behavior any) error {
	return goerrors.New("go-records: unknown insert behavior", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeInvalidBehavior).
		WithMetadata(map[string]any{"behavior": behavior})
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}
