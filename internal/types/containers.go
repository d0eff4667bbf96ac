// Package types holds the wire payloads of the public API. All payloads
// validate themselves; required fields use pointers so absence is detectable.
package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
)

// DataFilePayload is one data file submitted at container creation.
type DataFilePayload struct {
	// File name unique within the container.
	FileName *string `json:"fileName"`
	// Base64 encoded file content.
	FileContent *string `json:"fileContent"`
	MimeType    string  `json:"mimeType,omitempty"`
}

func (p *DataFilePayload) Validate(formats strfmt.Registry) error {
	if p.FileName == nil || *p.FileName == "" {
		return errors.Required("fileName", "body", nil)
	}
	if p.FileContent == nil {
		return errors.Required("fileContent", "body", nil)
	}
	return nil
}

// PostCreateContainerPayload creates a new container from data files.
type PostCreateContainerPayload struct {
	ContainerName string             `json:"containerName,omitempty"`
	DataFiles     []*DataFilePayload `json:"dataFiles"`
}

func (p *PostCreateContainerPayload) Validate(formats strfmt.Registry) error {
	if len(p.DataFiles) == 0 {
		return errors.Required("dataFiles", "body", nil)
	}
	for _, f := range p.DataFiles {
		if f == nil {
			return errors.Required("dataFiles", "body", nil)
		}
		if err := f.Validate(formats); err != nil {
			return err
		}
	}
	return nil
}

// PostUploadContainerPayload opens a session around an existing container.
type PostUploadContainerPayload struct {
	ContainerName string `json:"containerName,omitempty"`
	// Base64 encoded container.
	Container *string `json:"container"`
}

func (p *PostUploadContainerPayload) Validate(formats strfmt.Registry) error {
	if p.Container == nil || *p.Container == "" {
		return errors.Required("container", "body", nil)
	}
	return nil
}

// ContainerIDResponse returns the session id of a newly opened container.
type ContainerIDResponse struct {
	ContainerID *string `json:"containerId"`
}

func (r *ContainerIDResponse) Validate(formats strfmt.Registry) error {
	if r.ContainerID == nil {
		return errors.Required("containerId", "body", nil)
	}
	return nil
}

// GetContainerResponse returns the current container bytes.
type GetContainerResponse struct {
	ContainerName string `json:"containerName,omitempty"`
	// Base64 encoded container.
	Container *string `json:"container"`
}

func (r *GetContainerResponse) Validate(formats strfmt.Registry) error {
	if r.Container == nil {
		return errors.Required("container", "body", nil)
	}
	return nil
}

// ResultResponse acknowledges an operation with a constant result string.
type ResultResponse struct {
	Result *string `json:"result"`
}

func (r *ResultResponse) Validate(formats strfmt.Registry) error {
	if r.Result == nil {
		return errors.Required("result", "body", nil)
	}
	return nil
}
