package postservice

import (
	"github.com/hikarune/postfeed/internal/common"
)

const (
	titleMinLength   = 3
	titleMaxLength   = 100
	contentMinLength = 5
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, titleMinLength, titleMaxLength), "title", "must be between 3 and 100 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(len(content) >= contentMinLength, "content", "must be at least 5 characters long")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
