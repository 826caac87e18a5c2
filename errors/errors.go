package errors

import "fmt"

var (
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrChannelNotFound  = fmt.Errorf("channel not found")
	ErrMessageNotFound  = fmt.Errorf("message not found")
	ErrNotAuthor        = fmt.Errorf("requester is not the message author")
	ErrUserAlreadyExist = fmt.Errorf("user already exists")
)
