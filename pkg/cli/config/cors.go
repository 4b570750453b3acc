package config

import (
	"strings"

	"github.com/urfave/cli/v3"
)

// CORS lists the browser origins allowed to call the API
type CORS struct {
	origins []string
}

func (x *CORS) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "cors-origin",
			Usage:       "Allowed CORS origin (repeatable, or comma separated)",
			Category:    "HTTP",
			Sources:     cli.EnvVars("CONTACTBOOK_CORS_ORIGINS"),
			Destination: &x.origins,
		},
	}
}

// Origins returns the trimmed, non-empty origins
func (x *CORS) Origins() []string {
	var origins []string
	for _, o := range x.origins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	return origins
}
