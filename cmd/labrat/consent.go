package main

import (
	"context"
	"fmt"

	"github.com/and161185/labrat/internal/identity/google"
)

// promptConsenter shows the consent URL and reads the redirect back from
// the terminal.
type promptConsenter struct{ a *app }

func (c promptConsenter) Consent(ctx context.Context, authURL string) (google.Callback, error) {
	if err := ctx.Err(); err != nil {
		return google.Callback{}, err
	}
	_, _ = fmt.Fprintln(c.a.out, "Open this URL in a browser and approve access:")
	_, _ = fmt.Fprintln(c.a.out, authURL)
	line, err := c.a.prompt("Redirect URL: ")
	if err != nil {
		return google.Callback{}, err
	}
	return google.ParseCallback(line)
}
