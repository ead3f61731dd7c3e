package main

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/util"
)

// documentHeader is the front matter written above the draft content.
type documentHeader struct {
	Title       string `toml:"title"`
	Description string `toml:"description,omitempty"`
	CoverImage  string `toml:"cover,omitempty"`
	Byline      string `toml:"byline,omitempty"`
}

// parseDocument reads the editable fields out of a markdown file. Without
// front matter the file name is the title and only title and content are set.
func parseDocument(name string, data []byte) model.Fields {
	fm, err := util.GetFrontMatter(data)
	if err != nil {
		return model.Fields{
			Title:   model.StringPtr(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))),
			Content: model.StringPtr(string(data)),
		}
	}

	return model.Fields{
		Title:        model.StringPtr(fm.Title),
		Content:      model.StringPtr(string(util.Body(data))),
		Description:  model.StringPtr(fm.Description),
		CoverImage:   model.StringPtr(fm.CoverImage),
		CustomAuthor: model.StringPtr(fm.Byline),
	}
}

func renderDocument(f model.Fields) ([]byte, error) {
	h := documentHeader{
		Title:       deref(f.Title),
		Description: deref(f.Description),
		CoverImage:  deref(f.CoverImage),
		Byline:      deref(f.CustomAuthor),
	}

	var buf bytes.Buffer
	buf.WriteString("%%%\n")
	if err := toml.NewEncoder(&buf).Encode(h); err != nil {
		return nil, err
	}
	buf.WriteString("%%%\n\n")
	buf.WriteString(deref(f.Content))
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
