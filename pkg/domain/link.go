package domain

// reserved link relations
const (
	RelSelf       = "self"
	RelFirst      = "first"
	RelLast       = "last"
	RelNext       = "next"
	RelPrevious   = "previous"
	RelCollection = "collection"
)

// Link represents a typed reference to another resource
type Link struct {
	Rel  string
	Href string
}

// Links is an ordered set of links. Reserved relations are unique,
// custom relations may repeat.
type Links []Link

// IsReserved reports whether rel is one of the reserved relations
func IsReserved(rel string) bool {
	switch rel {
	case RelSelf, RelFirst, RelLast, RelNext, RelPrevious, RelCollection:
		return true
	}
	return false
}

// Get returns href of the first link with the given relation
func (l Links) Get(rel string) (string, bool) {
	for _, link := range l {
		if link.Rel == rel {
			return link.Href, true
		}
	}
	return "", false
}

// Set replaces the link with the given relation or appends a new one
func (l Links) Set(rel, href string) Links {
	for i, link := range l {
		if link.Rel == rel {
			res := append(Links(nil), l...)
			res[i].Href = href
			return res
		}
	}
	return l.with(Link{Rel: rel, Href: href})
}

// Add appends a link. Reserved relations are replaced instead of repeated.
func (l Links) Add(rel, href string) Links {
	if IsReserved(rel) {
		return l.Set(rel, href)
	}
	return l.with(Link{Rel: rel, Href: href})
}

// with returns a copy of links with link appended, never sharing l's backing array
func (l Links) with(link Link) Links {
	res := make(Links, len(l), len(l)+1)
	copy(res, l)
	return append(res, link)
}

// Without returns links minus the given relation
func (l Links) Without(rel string) Links {
	res := make(Links, 0, len(l))
	for _, link := range l {
		if link.Rel != rel {
			res = append(res, link)
		}
	}
	return res
}
