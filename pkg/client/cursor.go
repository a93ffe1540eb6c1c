package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/umputun/pagefeed/pkg/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CursorFile keeps a feed position in a json file
type CursorFile struct {
	Path string
}

// Load reads the stored position, ok is false if nothing was stored yet
func (c CursorFile) Load() (pos domain.FeedPosition, ok bool, err error) {
	data, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.FeedPosition{}, false, nil
	}
	if err != nil {
		return domain.FeedPosition{}, false, fmt.Errorf("read cursor: %w", err)
	}
	if err := json.Unmarshal(data, &pos); err != nil {
		return domain.FeedPosition{}, false, fmt.Errorf("parse cursor %s: %w", c.Path, err)
	}
	return pos, !pos.IsZero(), nil
}

// Save writes position atomically, via temp file and rename
func (c CursorFile) Save(pos domain.FeedPosition) error {
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.Path), filepath.Base(c.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cursor: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cursor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cursor: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename cursor: %w", err)
	}
	return nil
}
