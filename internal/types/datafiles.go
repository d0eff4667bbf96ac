package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
)

// DataFileResponse is one data file as returned by the list endpoint.
type DataFileResponse struct {
	FileName *string `json:"fileName"`
	// Base64 encoded file content.
	FileContent *string `json:"fileContent"`
	MimeType    string  `json:"mimeType,omitempty"`
}

func (r *DataFileResponse) Validate(formats strfmt.Registry) error {
	if r.FileName == nil {
		return errors.Required("fileName", "body", nil)
	}
	if r.FileContent == nil {
		return errors.Required("fileContent", "body", nil)
	}
	return nil
}

// GetDataFilesResponse lists the container's data files.
type GetDataFilesResponse struct {
	DataFiles []*DataFileResponse `json:"dataFiles"`
}

func (r *GetDataFilesResponse) Validate(formats strfmt.Registry) error {
	for _, f := range r.DataFiles {
		if f == nil {
			return errors.Required("dataFiles", "body", nil)
		}
		if err := f.Validate(formats); err != nil {
			return err
		}
	}
	return nil
}

// PostDataFilesPayload appends data files to an unsigned container.
type PostDataFilesPayload struct {
	DataFiles []*DataFilePayload `json:"dataFiles"`
}

func (p *PostDataFilesPayload) Validate(formats strfmt.Registry) error {
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
