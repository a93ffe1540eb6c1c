package codec

import (
	"fmt"
	"time"

	"github.com/umputun/pagefeed/pkg/domain"
)

// JSON is the JSON page codec
type JSON struct{}

type jsonPage struct {
	ID        string         `json:"id"`
	Base      string         `json:"base,omitempty"`
	Title     string         `json:"title"`
	Generator *jsonGenerator `json:"generator,omitempty"`
	Updated   time.Time      `json:"updated"`
	Links     []jsonLink     `json:"links"`
	Entries   []jsonEntry    `json:"entries"`
}

type jsonGenerator struct {
	Name    string `json:"name"`
	URI     string `json:"uri,omitempty"`
	Version string `json:"version,omitempty"`
}

type jsonLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type jsonEntry struct {
	ID      string       `json:"id"`
	Updated time.Time    `json:"updated"`
	Content jsonContent  `json:"content"`
	Links   []jsonLink   `json:"links,omitempty"`
	Control *jsonControl `json:"control,omitempty"`
}

type jsonContent struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

type jsonControl struct {
	Draft  bool       `json:"draft"`
	Edited *time.Time `json:"edited,omitempty"`
}

// ContentType returns JSON media type
func (JSON) ContentType() string {
	return MediaJSON
}

// Encode marshals the page to JSON
func (JSON) Encode(p *domain.FeedPage) ([]byte, error) {
	jp := jsonPage{
		ID:      p.ID,
		Base:    p.Base,
		Title:   p.Title,
		Updated: p.Updated.UTC(),
		Links:   toJSONLinks(p.Links),
		Entries: make([]jsonEntry, 0, len(p.Entries)),
	}
	if p.Generator != (domain.Generator{}) {
		jp.Generator = &jsonGenerator{Name: p.Generator.Name, URI: p.Generator.URI, Version: p.Generator.Version}
	}
	for _, e := range p.Entries {
		je := jsonEntry{
			ID:      e.ID,
			Updated: e.Updated.UTC(),
			Content: jsonContent{Type: e.Content.Type, Body: e.Content.Body},
			Links:   toJSONLinks(e.Links),
		}
		if e.Control != nil {
			je.Control = &jsonControl{Draft: e.Control.Draft}
			if !e.Control.Edited.IsZero() {
				edited := e.Control.Edited.UTC()
				je.Control.Edited = &edited
			}
		}
		jp.Entries = append(jp.Entries, je)
	}

	data, err := json.Marshal(jp)
	if err != nil {
		return nil, fmt.Errorf("marshal page: %w", err)
	}
	return data, nil
}

// Decode unmarshals a JSON page, typed content is decoded with reg
func (JSON) Decode(data []byte, reg Registry) (*domain.FeedPage, error) {
	var jp jsonPage
	if err := json.Unmarshal(data, &jp); err != nil {
		return nil, fmt.Errorf("unmarshal page: %w", err)
	}

	p := &domain.FeedPage{
		ID:      jp.ID,
		Base:    jp.Base,
		Title:   jp.Title,
		Updated: jp.Updated,
		Links:   fromJSONLinks(jp.Links),
		Entries: make([]domain.Entry, 0, len(jp.Entries)),
	}
	if jp.Generator != nil {
		p.Generator = domain.Generator{Name: jp.Generator.Name, URI: jp.Generator.URI, Version: jp.Generator.Version}
	}
	for _, je := range jp.Entries {
		e := domain.Entry{
			ID:      je.ID,
			Updated: je.Updated,
			Content: domain.Content{Type: je.Content.Type, Body: je.Content.Body},
			Links:   fromJSONLinks(je.Links),
		}
		if je.Control != nil {
			e.Control = &domain.Control{Draft: je.Control.Draft}
			if je.Control.Edited != nil {
				e.Control.Edited = *je.Control.Edited
			}
		}
		p.Entries = append(p.Entries, e)
	}

	if err := reg.decodeContent(p.Entries); err != nil {
		return nil, err
	}
	return p, nil
}

func toJSONLinks(links domain.Links) []jsonLink {
	if len(links) == 0 {
		return nil
	}
	res := make([]jsonLink, 0, len(links))
	for _, l := range links {
		res = append(res, jsonLink{Rel: l.Rel, Href: l.Href})
	}
	return res
}

func fromJSONLinks(links []jsonLink) domain.Links {
	if len(links) == 0 {
		return nil
	}
	res := make(domain.Links, 0, len(links))
	for _, l := range links {
		res = append(res, domain.Link{Rel: l.Rel, Href: l.Href})
	}
	return res
}
