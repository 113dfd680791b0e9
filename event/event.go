package event

import "time"

// Product identifies the application an event originated from.
type Product string

// Participating applications. Events carrying any other value fail validation.
const (
	ProductContentFactory Product = "content-factory"
	ProductWebApp         Product = "web-app"
	ProductMobileApp      Product = "mobile-app"
	ProductDocsSite       Product = "docs-site"
)

// Valid reports whether p is a recognized product.
func (p Product) Valid() bool {
	switch p {
	case ProductContentFactory, ProductWebApp, ProductMobileApp, ProductDocsSite:
		return true
	}
	return false
}

// Properties is an open-ended bag of analytics attributes attached to an event.
type Properties map[string]any

// Copy returns a shallow copy of the bag. A nil receiver copies to an empty,
// non-nil bag so callers can mutate the result freely.
func (p Properties) Copy() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Page describes the page a browser-side event was emitted from.
type Page struct {
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	Referrer string `json:"referrer,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Device describes the emitting device.
type Device struct {
	Type    string `json:"type,omitempty"`
	OS      string `json:"os,omitempty"`
	Browser string `json:"browser,omitempty"`
}

// Campaign carries UTM attribution parameters.
type Campaign struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// Context is optional nested metadata describing the circumstances of an
// event. All fields are optional; absent sections merge as empty.
type Context struct {
	Page      Page     `json:"page,omitzero"`
	Device    Device   `json:"device,omitzero"`
	Campaign  Campaign `json:"campaign,omitzero"`
	IP        string   `json:"ip,omitempty"`
	UserAgent string   `json:"userAgent,omitempty"`
	Locale    string   `json:"locale,omitempty"`
	Timezone  string   `json:"timezone,omitempty"`
}

// Merge combines c with an override context. Merging is per field within each
// named section: override values win on conflict, unset override fields
// inherit from c.
func (c Context) Merge(override Context) Context {
	merged := c

	merged.Page = Page{
		URL:      pick(override.Page.URL, c.Page.URL),
		Path:     pick(override.Page.Path, c.Page.Path),
		Referrer: pick(override.Page.Referrer, c.Page.Referrer),
		Title:    pick(override.Page.Title, c.Page.Title),
	}
	merged.Device = Device{
		Type:    pick(override.Device.Type, c.Device.Type),
		OS:      pick(override.Device.OS, c.Device.OS),
		Browser: pick(override.Device.Browser, c.Device.Browser),
	}
	merged.Campaign = Campaign{
		Source:   pick(override.Campaign.Source, c.Campaign.Source),
		Medium:   pick(override.Campaign.Medium, c.Campaign.Medium),
		Campaign: pick(override.Campaign.Campaign, c.Campaign.Campaign),
		Term:     pick(override.Campaign.Term, c.Campaign.Term),
		Content:  pick(override.Campaign.Content, c.Campaign.Content),
	}
	merged.IP = pick(override.IP, c.IP)
	merged.UserAgent = pick(override.UserAgent, c.UserAgent)
	merged.Locale = pick(override.Locale, c.Locale)
	merged.Timezone = pick(override.Timezone, c.Timezone)

	return merged
}

func pick(override, base string) string {
	if override != "" {
		return override
	}
	return base
}

// RawInput is a track call as the caller supplied it, before enrichment.
type RawInput struct {
	Name        string     `json:"event"`
	Properties  Properties `json:"properties"`
	Context     Context    `json:"context"`
	UserID      string     `json:"userId,omitempty"`
	AnonymousID string     `json:"anonymousId,omitempty"`
	Product     Product    `json:"product"`
	Timestamp   time.Time  `json:"timestamp,omitzero"`
}

// Event is the enriched, pipeline-internal form of a track call. MessageID
// and Timestamp are assigned exactly once at ingestion; middleware may read
// both but must not reassign them.
type Event struct {
	MessageID   string     `json:"messageId"`
	Name        string     `json:"event"`
	Properties  Properties `json:"properties"`
	Context     Context    `json:"context"`
	UserID      string     `json:"userId,omitempty"`
	AnonymousID string     `json:"anonymousId,omitempty"`
	Product     Product    `json:"product"`
	Timestamp   time.Time  `json:"timestamp"`
}
