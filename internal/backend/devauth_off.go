//go:build !devauth

package backend

import "net/http"

// DevAuthEnabled reports whether the development auth header is compiled in.
const DevAuthEnabled = false

func (c *Client) decorate(*http.Request) {}
