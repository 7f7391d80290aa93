package models

import "encoding/json"

// Album is a chat history plus the gallery of images produced in it
type Album struct {
	ID            string        `json:"id" yaml:"id"`
	Title         string        `json:"title" yaml:"title"`
	ChatHistory   []ChatMessage `json:"chatHistory" yaml:"chatHistory"`
	GalleryImages []ImageRecord `json:"galleryImages" yaml:"galleryImages"`
	CreatedAt     Timestamp     `json:"createdAt" yaml:"createdAt"`
}

// ImageRecord is the metadata and public URL of one stored image.
// Client fields outside the known set ride along in Extra.
type ImageRecord struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	ImageURL    string    `json:"imageUrl" yaml:"imageUrl"`
	Filename    string    `json:"filename,omitempty" yaml:"filename,omitempty"`
	CreatedAt   Timestamp `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
	Objects     any       `json:"objects,omitempty" yaml:"objects,omitempty"` // e.g. detected-object annotations

	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

// ChatMessage is one turn of an album's conversation
type ChatMessage struct {
	Role                string           `json:"role" yaml:"role"` // "user", "model"
	Text                *string          `json:"text,omitempty" yaml:"text,omitempty"`
	ImageURLs           []string         `json:"imageUrls,omitempty" yaml:"imageUrls,omitempty"`
	Variations          []map[string]any `json:"variations,omitempty" yaml:"variations,omitempty"`
	SourceImageURL      *string          `json:"sourceImageUrl,omitempty" yaml:"sourceImageUrl,omitempty"`
	FollowUpSuggestions []string         `json:"followUpSuggestions,omitempty" yaml:"followUpSuggestions,omitempty"`
	GroundingMetadata   any              `json:"groundingMetadata,omitempty" yaml:"groundingMetadata,omitempty"`

	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

var (
	imageRecordKeys = []string{"id", "title", "description", "imageUrl", "filename", "createdAt", "objects"}
	chatMessageKeys = []string{"role", "text", "imageUrls", "variations", "sourceImageUrl", "followUpSuggestions", "groundingMetadata"}
)

func (r *ImageRecord) UnmarshalJSON(data []byte) error {
	type plain ImageRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, imageRecordKeys)
	if err != nil {
		return err
	}
	*r = ImageRecord(p)
	r.Extra = extra
	return nil
}

func (r ImageRecord) MarshalJSON() ([]byte, error) {
	type plain ImageRecord
	return withExtra(plain(r), r.Extra)
}

func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	type plain ChatMessage
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, chatMessageKeys)
	if err != nil {
		return err
	}
	*m = ChatMessage(p)
	m.Extra = extra
	return nil
}

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	type plain ChatMessage
	return withExtra(plain(m), m.Extra)
}

// unknownFields returns the members of the JSON object in data that are not
// listed in known, or nil when there are none.
func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// withExtra encodes v and merges extra into the resulting object. Known
// fields win over extra members with the same name.
func withExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

// AlbumUpdate carries the fields of a partial album update.
// A nil field is left untouched; slices replace the stored ones wholesale.
type AlbumUpdate struct {
	Title         *string        `json:"title"`
	ChatHistory   *[]ChatMessage `json:"chatHistory"`
	GalleryImages *[]ImageRecord `json:"galleryImages"`
}

// Apply merges the present fields of u into a
func (u AlbumUpdate) Apply(a *Album) {
	if u.Title != nil {
		a.Title = *u.Title
	}
	if u.ChatHistory != nil {
		a.ChatHistory = *u.ChatHistory
	}
	if u.GalleryImages != nil {
		a.GalleryImages = *u.GalleryImages
	}
}
