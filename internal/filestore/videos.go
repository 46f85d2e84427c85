package filestore

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Description  string    `json:"description,omitempty"`
	ProductID    string    `json:"product_id,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (v *Video) validate() error {
	v.Title = strings.TrimSpace(v.Title)
	v.URL = strings.TrimSpace(v.URL)
	if v.Title == "" {
		return invalidf("video title is required")
	}
	if v.URL == "" {
		return invalidf("video url is required")
	}
	return nil
}

// Videos returns videos sorted by display order. activeOnly hides inactive
// ones.
func (s *Store) Videos(activeOnly bool) ([]Video, error) {
	all, err := read[[]Video](s, videosFile)
	if err != nil {
		return nil, err
	}

	out := make([]Video, 0, len(all))
	for _, v := range all {
		if activeOnly && !v.IsActive {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

// CreateVideo assigns an id and timestamps and appends v.
func (s *Store) CreateVideo(v Video) (Video, error) {
	if err := v.validate(); err != nil {
		return Video{}, err
	}
	now := time.Now().UTC()
	v.ID = uuid.NewString()
	v.CreatedAt, v.UpdatedAt = now, now

	_, err := mutate(s, videosFile, func(all *[]Video) error {
		*all = append(*all, v)
		return nil
	})
	return v, err
}

// UpdateVideo replaces the video with id, keeping its creation time.
func (s *Store) UpdateVideo(id string, v Video) (Video, error) {
	if err := v.validate(); err != nil {
		return Video{}, err
	}

	var updated Video
	_, err := mutate(s, videosFile, func(all *[]Video) error {
		for i := range *all {
			if (*all)[i].ID != id {
				continue
			}
			v.ID = id
			v.CreatedAt = (*all)[i].CreatedAt
			v.UpdatedAt = time.Now().UTC()
			(*all)[i] = v
			updated = v
			return nil
		}
		return ErrNotFound
	})
	return updated, err
}

func (s *Store) DeleteVideo(id string) error {
	_, err := mutate(s, videosFile, func(all *[]Video) error {
		for i := range *all {
			if (*all)[i].ID == id {
				*all = append((*all)[:i], (*all)[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	return err
}
