package todo

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// Todo ids are the creation time in epoch milliseconds followed by a short
// random suffix, e.g. "1718000000000042". Records stored before createdAt
// existed still carry their creation time this way.
const idTimestampDigits = 13

// NewID builds a fresh id for a todo created at now.
func NewID(now time.Time) string {
	return fmt.Sprintf("%d%03d", now.UnixMilli(), rand.IntN(1000))
}

// InferTimestamp decodes the creation time embedded in id. It falls back to
// now when the prefix is not a positive integer.
func InferTimestamp(id string, now time.Time) time.Time {
	prefix := id
	if len(prefix) > idTimestampDigits {
		prefix = prefix[:idTimestampDigits]
	}
	ms, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || ms <= 0 {
		return now
	}
	return time.UnixMilli(ms).UTC()
}
