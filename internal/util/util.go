// Package util provides content hashing and front matter parsing for imported drafts.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"

	"github.com/mmarkdown/mmark/v2/mast"
)

// FrontMatter is the mmark title block of an imported markdown file, extended
// with the newsletter specific keys.
type FrontMatter struct {
	*mast.TitleData

	Description string `toml:"description"`
	CoverImage  string `toml:"cover"`
	Byline      string `toml:"byline"`

	// Consumed is the byte offset where the body starts.
	Consumed int `toml:"-"`
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

var delimiter = []byte("%%%")

// GetFrontMatter parses a %%%-delimited TOML block at the top of md.
func GetFrontMatter(md []byte) (*FrontMatter, error) {
	md = normalize(md)

	// Check if md is long enough to contain the delimiter
	if len(md) < 2*len(delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	first := bytes.Index(md[:len(delimiter)+1], delimiter)
	if first == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	second := bytes.Index(md[first+len(delimiter):], delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		end = len(md)
	}

	frontMatter := md[len(delimiter) : second+len(delimiter)]
	info := &FrontMatter{
		TitleData: &mast.TitleData{},
	}

	if _, err := toml.Decode(string(frontMatter), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = end

	return info, nil
}

// Body returns md without its front matter block, or md itself when there is none.
func Body(md []byte) []byte {
	fm, err := GetFrontMatter(md)
	if err != nil {
		return md
	}
	return bytes.TrimLeft(normalize(md)[fm.Consumed:], "\n")
}

func normalize(md []byte) []byte {
	md = markdown.NormalizeNewlines(md)
	return bytes.TrimLeft(md, "\n \t\r")
}
