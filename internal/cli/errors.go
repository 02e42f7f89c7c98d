package cli

import "errors"

var errNoCourse = errors.New("no course selected; pass --course or run `curriculum courses use <course-id>`")

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func errUsage(msg string) error { return usageError{msg: msg} }
