package deps

import (
	"time"

	"github.com/pinstack/pinstack/internal/client"
	"github.com/pinstack/pinstack/internal/logger"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	// Client is the bookmark client controller every API route serves.
	Client *client.Client

	// Ready reports whether the backend is reachable; used by /readyz.
	Ready func() bool
}
