// Package cursor converts keyset pagination positions to opaque tokens.
package cursor

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeInvalidCursor tags errors produced by Decode.
const TextCodeInvalidCursor = "INVALID_CURSOR"

const version = "v1|"

// Encode returns the opaque token for t. Decode(Encode(t)) equals t for
// every representable time. The payload is Unix seconds and a nine digit
// nanosecond part, so tokens do not depend on the location of t.
func Encode(t time.Time) string {
	raw := version + strconv.FormatInt(t.Unix(), 10) + "." + fmt.Sprintf("%09d", t.Nanosecond())
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. Anything Encode would not have
// produced, including well formed but non canonical payloads, is rejected.
func Decode(token string) (time.Time, error) {
	if strings.TrimSpace(token) == "" {
		return time.Time{}, invalid(nil, "cursor is empty")
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, invalid(err, "cursor is not valid base64")
	}
	payload, ok := strings.CutPrefix(string(decoded), version)
	if !ok {
		return time.Time{}, invalid(nil, "cursor has an unknown format")
	}
	secText, nsecText, ok := strings.Cut(payload, ".")
	if !ok || len(nsecText) != 9 {
		return time.Time{}, invalid(nil, "cursor does not hold a timestamp")
	}
	sec, err := strconv.ParseInt(secText, 10, 64)
	if err != nil {
		return time.Time{}, invalid(err, "cursor does not hold a timestamp")
	}
	nsec, err := strconv.ParseInt(nsecText, 10, 64)
	if err != nil || nsec < 0 {
		return time.Time{}, invalid(err, "cursor does not hold a timestamp")
	}
	ts := time.Unix(sec, nsec).UTC()
	if Encode(ts) != token {
		return time.Time{}, invalid(nil, "cursor is not canonical")
	}
	return ts, nil
}

// IsInvalid reports whether err was produced by Decode.
func IsInvalid(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeInvalidCursor
}

func invalid(src error, msg string) error {
	var err *goerrors.Error
	if src == nil {
		err = goerrors.New("go-records: "+msg, goerrors.CategoryValidation)
	} else {
		err = goerrors.Wrap(src, goerrors.CategoryValidation, "go-records: "+msg)
	}
	return err.WithCode(goerrors.CodeBadRequest).WithTextCode(TextCodeInvalidCursor)
}
