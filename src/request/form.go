package request

import (
	"bytes"
	"fmt"
	"mime/multipart"

	"holonet.gg/v1/encounter-builder/src/object"
)

// FormData is an already encoded binary form body. It is sent as is.
type FormData struct {
	ContentType string
	Body        []byte
}

// FormFile is a file part of a multipart form.
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

// NewFormData encodes fields and files as multipart/form-data. Nil fields
// are skipped.
func NewFormData(fields object.Mapping, files ...FormFile) (*FormData, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, key := range object.Keys(fields) {
		value := fields[key]
		if value == nil {
			continue
		}
		if err := w.WriteField(key, fmt.Sprint(value)); err != nil {
			return nil, fmt.Errorf("write field %s: %w", key, err)
		}
	}
	for _, file := range files {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, fmt.Errorf("create file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, fmt.Errorf("write file %s: %w", file.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	return &FormData{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}
