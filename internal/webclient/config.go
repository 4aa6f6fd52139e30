package webclient

import "time"

const DefaultTimeout = 30 * time.Second

// Config holds the settings used when NewNetHTTPClient builds its own *http.Client.
type Config struct {
	Timeout time.Duration
}
