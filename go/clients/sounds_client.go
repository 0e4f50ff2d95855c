package clients

import (
	"context"
	"fmt"
	"net/url"
)

const soundsPath = "/static/sounds/"

// SoundsClient downloads cue clips from the game server's static assets.
type SoundsClient struct {
	*BaseClient
}

func NewSoundsClient(baseURL string) *SoundsClient {
	return &SoundsClient{BaseClient: NewBaseClient(baseURL)}
}

// Fetch returns the raw bytes of one clip file.
func (c *SoundsClient) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := c.Get(ctx, soundsPath+url.PathEscape(name))
	if err != nil {
		return nil, fmt.Errorf("fetch sound %q: %w", name, err)
	}
	return data, nil
}
