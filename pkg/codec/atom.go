package codec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/pagefeed/pkg/domain"
)

// Atom is the Atom 1.0 page codec, with AtomPub control metadata on entries
type Atom struct{}

type atomFeed struct {
	XMLName   xml.Name       `xml:"http://www.w3.org/2005/Atom feed"`
	Base      string         `xml:"http://www.w3.org/XML/1998/namespace base,attr,omitempty"`
	ID        string         `xml:"id"`
	Title     string         `xml:"title"`
	Generator *atomGenerator `xml:"generator,omitempty"`
	Updated   string         `xml:"updated"`
	Links     []atomLink     `xml:"link"`
	Entries   []atomEntry    `xml:"entry"`
}

type atomGenerator struct {
	URI     string `xml:"uri,attr,omitempty"`
	Version string `xml:"version,attr,omitempty"`
	Name    string `xml:",chardata"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	ID      string       `xml:"id"`
	Updated string       `xml:"updated"`
	Edited  string       `xml:"http://www.w3.org/2007/app edited,omitempty"`
	Control *atomControl `xml:"http://www.w3.org/2007/app control,omitempty"`
	Links   []atomLink   `xml:"link"`
	Content atomContent  `xml:"content"`
}

type atomControl struct {
	Draft string `xml:"http://www.w3.org/2007/app draft"`
}

type atomContent struct {
	Type string `xml:"type,attr,omitempty"`
	Body string `xml:",chardata"`
}

// ContentType returns Atom media type
func (Atom) ContentType() string {
	return MediaAtom
}

// Encode marshals the page to an Atom feed document
func (Atom) Encode(p *domain.FeedPage) ([]byte, error) {
	af := atomFeed{
		Base:    p.Base,
		ID:      p.ID,
		Title:   p.Title,
		Updated: formatTime(p.Updated),
		Links:   toAtomLinks(p.Links),
		Entries: make([]atomEntry, 0, len(p.Entries)),
	}
	if p.Generator != (domain.Generator{}) {
		af.Generator = &atomGenerator{URI: p.Generator.URI, Version: p.Generator.Version, Name: p.Generator.Name}
	}
	for _, e := range p.Entries {
		ae := atomEntry{
			ID:      e.ID,
			Updated: formatTime(e.Updated),
			Links:   toAtomLinks(e.Links),
			Content: atomContent{Type: e.Content.Type, Body: e.Content.Body},
		}
		if e.Control != nil {
			draft := "no"
			if e.Control.Draft {
				draft = "yes"
			}
			ae.Control = &atomControl{Draft: draft}
			if !e.Control.Edited.IsZero() {
				ae.Edited = formatTime(e.Control.Edited)
			}
		}
		af.Entries = append(af.Entries, ae)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(af); err != nil {
		return nil, fmt.Errorf("marshal atom: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode unmarshals an Atom feed document, typed content is decoded with reg
func (Atom) Decode(data []byte, reg Registry) (*domain.FeedPage, error) {
	if ft := gofeed.DetectFeedType(bytes.NewReader(data)); ft != gofeed.FeedTypeAtom {
		return nil, fmt.Errorf("unmarshal atom: not an atom document (detected %v)", ft)
	}

	var af atomFeed
	if err := xml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("unmarshal atom: %w", err)
	}

	updated, err := parseTime(af.Updated)
	if err != nil {
		return nil, fmt.Errorf("parse feed updated: %w", err)
	}
	p := &domain.FeedPage{
		ID:      af.ID,
		Base:    af.Base,
		Title:   af.Title,
		Updated: updated,
		Links:   fromAtomLinks(af.Links),
		Entries: make([]domain.Entry, 0, len(af.Entries)),
	}
	if af.Generator != nil {
		p.Generator = domain.Generator{Name: af.Generator.Name, URI: af.Generator.URI, Version: af.Generator.Version}
	}

	for _, ae := range af.Entries {
		entryUpdated, err := parseTime(ae.Updated)
		if err != nil {
			return nil, fmt.Errorf("parse updated of entry %s: %w", ae.ID, err)
		}
		e := domain.Entry{
			ID:      ae.ID,
			Updated: entryUpdated,
			Content: domain.Content{Type: ae.Content.Type, Body: ae.Content.Body},
			Links:   fromAtomLinks(ae.Links),
		}
		if ae.Control != nil || ae.Edited != "" {
			e.Control = &domain.Control{}
			if ae.Control != nil {
				e.Control.Draft = ae.Control.Draft == "yes"
			}
			if ae.Edited != "" {
				if e.Control.Edited, err = parseTime(ae.Edited); err != nil {
					return nil, fmt.Errorf("parse edited of entry %s: %w", ae.ID, err)
				}
			}
		}
		p.Entries = append(p.Entries, e)
	}

	if err := reg.decodeContent(p.Entries); err != nil {
		return nil, err
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func toAtomLinks(links domain.Links) []atomLink {
	res := make([]atomLink, 0, len(links))
	for _, l := range links {
		res = append(res, atomLink{Rel: l.Rel, Href: l.Href})
	}
	return res
}

func fromAtomLinks(links []atomLink) domain.Links {
	if len(links) == 0 {
		return nil
	}
	res := make(domain.Links, 0, len(links))
	for _, l := range links {
		res = append(res, domain.Link{Rel: l.Rel, Href: l.Href})
	}
	return res
}
