// Package codec converts feed pages to and from their wire formats.
// Typed entry content is decoded through a Registry passed to each
// Decode call, so the same codec serves feeds with different content types.
package codec

import (
	"fmt"
	"mime"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/umputun/pagefeed/pkg/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// media types
const (
	MediaJSON = "application/json"
	MediaAtom = "application/atom+xml"
)

// Codec encodes and decodes feed pages
type Codec interface {
	ContentType() string
	Encode(p *domain.FeedPage) ([]byte, error)
	Decode(data []byte, reg Registry) (*domain.FeedPage, error)
}

// ContentDecoder makes a typed value from entry content body
type ContentDecoder func(body string) (any, error)

// Registry maps content type tags to decoders. Entries with unknown
// tags keep their raw body and nil Value.
type Registry map[string]ContentDecoder

// JSONContent returns a decoder unmarshalling JSON body into *T
func JSONContent[T any]() ContentDecoder {
	return func(body string) (any, error) {
		v := new(T)
		if err := json.UnmarshalFromString(body, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// decodeContent fills typed values of entries known to the registry
func (r Registry) decodeContent(entries []domain.Entry) error {
	if len(r) == 0 {
		return nil
	}
	for i := range entries {
		dec, ok := r[entries[i].Content.Type]
		if !ok || dec == nil {
			continue
		}
		v, err := dec(entries[i].Content.Body)
		if err != nil {
			return fmt.Errorf("decode content of entry %s as %q: %w", entries[i].ID, entries[i].Content.Type, err)
		}
		entries[i].Content.Value = v
	}
	return nil
}

// Negotiate picks a codec for the Accept header value, JSON by default
func Negotiate(accept string) Codec {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case MediaAtom, "application/xml", "text/xml":
			return Atom{}
		case MediaJSON:
			return JSON{}
		}
	}
	return JSON{}
}

// ForContentType returns the codec for a response Content-Type
func ForContentType(contentType string) (Codec, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type %q: %w", contentType, err)
	}
	switch mt {
	case MediaJSON:
		return JSON{}, nil
	case MediaAtom, "application/xml", "text/xml":
		return Atom{}, nil
	}
	return nil, fmt.Errorf("unsupported content type %q", mt)
}
