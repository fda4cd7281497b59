package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/weblog/internal/db"
	"github.com/weblog/internal/logger"
)

// ErrBadRequest marks malformed or unsupported Micropub requests.
var ErrBadRequest = errors.New("bad request")

const (
	micropubSlugLimit = 50
	maxPayloadBytes   = 1 << 20
)

// Payload is the canonical microformats2 form of a Micropub request.
type Payload struct {
	Type       []string         `json:"type"`
	Properties map[string][]any `json:"properties"`
	Action     string           `json:"action,omitempty"`
}

// PostType returns the first type, defaulting to h-entry.
func (p *Payload) PostType() string {
	if len(p.Type) == 0 || strings.TrimSpace(p.Type[0]) == "" {
		return "h-entry"
	}
	return p.Type[0]
}

// First 返回属性的第一个值。
func (p *Payload) First(name string) (any, bool) {
	values, ok := p.Properties[name]
	if !ok || len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

// Strings returns the string values of a property, rejecting any other shape.
func (p *Payload) Strings(name string) ([]string, error) {
	values := p.Properties[name]
	result := make([]string, 0, len(values))
	for _, value := range values {
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s values must be strings", ErrBadRequest, name)
		}
		result = append(result, text)
	}
	return result, nil
}

// AsMap renders the payload for storage in entry metadata.
func (p *Payload) AsMap() map[string]any {
	doc := map[string]any{
		"type":       []string{p.PostType()},
		"properties": p.Properties,
	}
	if p.Action != "" {
		doc["action"] = p.Action
	}
	return doc
}

// ParsePayload decodes a JSON or form-encoded Micropub body.
func ParsePayload(r *http.Request) (*Payload, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid content-type %q", ErrBadRequest, r.Header.Get("Content-Type"))
	}

	switch mediaType {
	case "application/json":
		return DecodeJSONPayload(io.LimitReader(r.Body, maxPayloadBytes))
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return DecodeFormPayload(r.PostForm), nil
	default:
		return nil, fmt.Errorf("%w: invalid content-type %s", ErrBadRequest, mediaType)
	}
}

// DecodeJSONPayload parses a JSON Micropub document.
func DecodeJSONPayload(body io.Reader) (*Payload, error) {
	var payload Payload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: malformed json: %v", ErrBadRequest, err)
	}
	if payload.Properties == nil {
		payload.Properties = map[string][]any{}
	}
	if len(payload.Type) == 0 {
		payload.Type = []string{"h-entry"}
	}
	return &payload, nil
}

// DecodeFormPayload turns form fields into the canonical document: h selects
// the type, name[] style keys lose their brackets and keep every value.
func DecodeFormPayload(form url.Values) *Payload {
	h := strings.TrimSpace(form.Get("h"))
	if h == "" {
		h = "entry"
	}
	payload := &Payload{
		Type:       []string{"h-" + h},
		Properties: map[string][]any{"content": {form.Get("content")}},
	}

	for key, values := range form {
		switch key {
		case "h", "content", "access_token":
			continue
		}
		name := strings.ReplaceAll(key, "[]", "")
		list := payload.Properties[name]
		for _, value := range values {
			list = append(list, value)
		}
		payload.Properties[name] = list
	}
	return payload
}

// MicropubService turns Micropub payloads into entries.
type MicropubService struct {
	content *ContentService
	loc     *time.Location
	now     func() time.Time
}

// NewMicropubService creates a MicropubService; loc is used for time based slugs.
func NewMicropubService(content *ContentService, loc *time.Location) *MicropubService {
	if loc == nil {
		loc = time.UTC
	}
	return &MicropubService{content: content, loc: loc, now: time.Now}
}

// EntryFromPayload derives the entry fields without persisting anything.
func (s *MicropubService) EntryFromPayload(payload *Payload, created time.Time) (EntryInput, error) {
	if payload.Action != "" {
		return EntryInput{}, fmt.Errorf("%w: can't handle actions yet", ErrBadRequest)
	}
	if postType := payload.PostType(); postType != "h-entry" {
		return EntryInput{}, fmt.Errorf("%w: only supports h-entry, not %s", ErrBadRequest, postType)
	}

	body, err := contentBody(payload)
	if err != nil {
		return EntryInput{}, err
	}

	title := ""
	if name, ok := payload.First("name"); ok {
		text, isString := name.(string)
		if !isString {
			return EntryInput{}, fmt.Errorf("%w: name must be a string", ErrBadRequest)
		}
		title = strings.TrimSpace(text)
	}

	slug := ""
	if raw, ok := payload.First("mp-slug"); ok {
		text, isString := raw.(string)
		if !isString {
			return EntryInput{}, fmt.Errorf("%w: mp-slug must be a string", ErrBadRequest)
		}
		slug = strings.TrimSpace(text)
	}
	if slug == "" {
		slug = db.Slugify(title)
	}
	if slug == "" {
		slug = "note-" + created.In(s.loc).Format("150405")
	}
	slug = db.CutSlug(slug, micropubSlugLimit)

	tags, err := payload.Strings("category")
	if err != nil {
		return EntryInput{}, err
	}
	for _, tag := range tags {
		if !db.ValidTag(tag) {
			return EntryInput{}, fmt.Errorf("%w: invalid category %q", ErrBadRequest, tag)
		}
	}

	return EntryInput{
		ContentFields: ContentFields{
			Created:  created,
			Slug:     slug,
			Tags:     tags,
			Metadata: map[string]interface{}{"h_entry": payload.AsMap()},
		},
		Title: title,
		Body:  body,
	}, nil
}

// ConstructEntry validates the payload and creates the entry with its tags.
func (s *MicropubService) ConstructEntry(payload *Payload) (*db.Entry, error) {
	input, err := s.EntryFromPayload(payload, s.now())
	if err != nil {
		return nil, err
	}

	entry, err := s.content.CreateEntry(input)
	if err != nil {
		if errors.Is(err, ErrTagInvalid) || errors.Is(err, ErrContentInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return nil, err
	}
	logger.InfoWithFields("micropub entry created", logger.Fields{"id": entry.ID, "slug": entry.Slug, "tags": input.Tags})
	return entry, nil
}

func contentBody(payload *Payload) (string, error) {
	content, ok := payload.First("content")
	if !ok {
		return "", fmt.Errorf("%w: content is required", ErrBadRequest)
	}

	switch value := content.(type) {
	case string:
		return "<p>" + html.EscapeString(value) + "</p>", nil
	case map[string]any:
		if markup, isString := value["html"].(string); isString {
			return markup, nil
		}
	}
	logger.DebugWithFields("micropub content shape not supported", logger.Fields{"content": content})
	return "", fmt.Errorf("%w: unsupported content", ErrBadRequest)
}
