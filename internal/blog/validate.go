package blog

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"blogd/pkg/types"
)

func minLen(entity, field, v string, n int) error {
	if strings.TrimSpace(v) == "" {
		return errInvalid(entity, field, "is required")
	}
	if utf8.RuneCountInString(v) < n {
		return errInvalid(entity, field, "is too short")
	}
	return nil
}

func validateBlog(b types.Blog) error {
	if err := minLen("blog", "name", b.Name, 3); err != nil {
		return err
	}
	return minLen("blog", "handle", b.Handle, 2)
}

func validateTag(t types.Tag) error {
	return minLen("tag", "name", t.Name, 2)
}

func validateEntry(e types.Entry) error {
	if err := minLen("entry", "title", e.Title, 1); err != nil {
		return err
	}
	if err := minLen("entry", "content", e.Content, 1); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return errInvalid("entry", "date", "is required")
	}
	if (e.Attachment == "") != (e.AttachmentContentType == "") {
		return errInvalid("entry", "attachmentContentType", "must be set together with attachment")
	}
	if e.Attachment != "" {
		if _, err := base64.StdEncoding.DecodeString(e.Attachment); err != nil {
			return errInvalid("entry", "attachment", "is not valid base64")
		}
	}
	return nil
}
