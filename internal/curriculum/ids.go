package curriculum

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator mints globally unique entity ids.
type IDGenerator interface {
	NewID(prefix string) string
}

// TimestampIDs mints ids of the form "<prefix>-<unix-millis>-<random>".
type TimestampIDs struct {
	Now func() time.Time
}

// NewID returns a fresh id. The random suffix makes ids minted in the same millisecond distinct.
func (g TimestampIDs) NewID(prefix string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	id := strconv.FormatInt(now().UnixMilli(), 10) + "-" + suffix
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// ID prefixes per entity kind.
const (
	PrefixCourse   = "c"
	PrefixTopic    = "t"
	PrefixQuestion = "q"
)
