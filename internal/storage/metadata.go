package storage

import (
	"encoding/json"
	"fmt"
)

const (
	metaImageURLs         = "imageUrls"
	metaImageDataURLs     = "imageDataUrls"
	metaResolvedImageURLs = "resolvedImageUrls"
)

// Metadata carries the image references of a message plus any extra keys the
// capture layer attached. Extra keys are kept verbatim and written back flat.
//
// Image display precedence: ImageDataURLs, then ImageURLs that are already
// served locally, then ResolvedImageURLs.
type Metadata struct {
	ImageURLs         []string
	ImageDataURLs     []string
	ResolvedImageURLs []string
	Extra             map[string]json.RawMessage
}

// MarshalJSON flattens the typed fields and the extra keys into one object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.ImageURLs != nil {
		out[metaImageURLs] = m.ImageURLs
	}
	if m.ImageDataURLs != nil {
		out[metaImageDataURLs] = m.ImageDataURLs
	}
	if m.ResolvedImageURLs != nil {
		out[metaResolvedImageURLs] = m.ResolvedImageURLs
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat metadata object into typed fields and extras.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata{}
	for key, value := range raw {
		var err error
		switch key {
		case metaImageURLs:
			err = json.Unmarshal(value, &m.ImageURLs)
		case metaImageDataURLs:
			err = json.Unmarshal(value, &m.ImageDataURLs)
		case metaResolvedImageURLs:
			err = json.Unmarshal(value, &m.ResolvedImageURLs)
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]json.RawMessage)
			}
			m.Extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("metadata.%s: %w", key, err)
		}
	}
	return nil
}

// Clone returns a deep copy. It is safe to call on a nil receiver.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := &Metadata{
		ImageURLs:         cloneStrings(m.ImageURLs),
		ImageDataURLs:     cloneStrings(m.ImageDataURLs),
		ResolvedImageURLs: cloneStrings(m.ResolvedImageURLs),
	}
	if m.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// HasDataURLs reports whether the message carries inline image data.
func (m *Metadata) HasDataURLs() bool {
	return m != nil && len(m.ImageDataURLs) > 0
}

// HasImageURLs reports whether the message references images by URL.
func (m *Metadata) HasImageURLs() bool {
	return m != nil && len(m.ImageURLs) > 0
}

// DisplayImages returns the image sources a reader should render.
func (m *Metadata) DisplayImages(isLocal func(string) bool) []string {
	if m == nil {
		return nil
	}
	if len(m.ImageDataURLs) > 0 {
		return m.ImageDataURLs
	}
	if len(m.ImageURLs) > 0 && allMatch(m.ImageURLs, isLocal) {
		return m.ImageURLs
	}
	if len(m.ResolvedImageURLs) > 0 {
		return m.ResolvedImageURLs
	}
	return m.ImageURLs
}

func allMatch(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
