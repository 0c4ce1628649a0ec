package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// BlockType discriminates the config payload of a profile block.
type BlockType string

const (
	BlockLink   BlockType = "link"
	BlockText   BlockType = "text"
	BlockHeader BlockType = "header"
)

// Block is an ordered element of a profile page. Config is decoded lazily
// according to Type.
type Block struct {
	ID        string          `gorm:"primaryKey;type:uuid"`
	ProfileID string          `gorm:"type:uuid"`
	Type      BlockType       `gorm:"type:text"`
	RawConfig json.RawMessage `gorm:"column:config;type:jsonb"`
	Position  int
}

func (Block) TableName() string {
	return "profile_blocks"
}

// BlockConfig is implemented by LinkBlockConfig, TextBlockConfig and HeaderBlockConfig only.
type BlockConfig interface {
	blockType() BlockType
}

type LinkBlockConfig struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
	Style string `json:"style,omitempty"`
}

type TextBlockConfig struct {
	Content   string `json:"content"`
	Alignment string `json:"alignment,omitempty"`
	FontSize  string `json:"fontSize,omitempty"`
}

type HeaderBlockConfig struct {
	Text      string `json:"text"`
	Level     int    `json:"level,omitempty"`
	Alignment string `json:"alignment,omitempty"`
}

func (LinkBlockConfig) blockType() BlockType   { return BlockLink }
func (TextBlockConfig) blockType() BlockType   { return BlockText }
func (HeaderBlockConfig) blockType() BlockType { return BlockHeader }

// Config decodes RawConfig into the variant selected by Type.
func (b *Block) Config() (BlockConfig, error) {
	var (
		cfg BlockConfig
		err error
	)
	switch b.Type {
	case BlockLink:
		var c LinkBlockConfig
		err = json.Unmarshal(b.RawConfig, &c)
		cfg = c
	case BlockText:
		var c TextBlockConfig
		err = json.Unmarshal(b.RawConfig, &c)
		cfg = c
	case BlockHeader:
		var c HeaderBlockConfig
		err = json.Unmarshal(b.RawConfig, &c)
		cfg = c
	default:
		return nil, fmt.Errorf("block %s: unknown type %q", b.ID, b.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("block %s: decode %s config: %w", b.ID, b.Type, err)
	}
	return cfg, nil
}

// Display returns the title and target URL used when listing the block in reports.
func (b *Block) Display() (title, url string) {
	cfg, err := b.Config()
	if err != nil {
		return "Untitled", ""
	}
	switch c := cfg.(type) {
	case LinkBlockConfig:
		title, url = c.Title, c.URL
	case HeaderBlockConfig:
		title = c.Text
	case TextBlockConfig:
	}
	if title == "" {
		title = "Untitled"
	}
	return title, url
}
