package activity

import (
	"os"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewConsumerID names this process inside the activity consumer group. The
// host and pid make XINFO output readable; the ULID keeps restarts distinct.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "folio"
	}
	return strings.Join([]string{host, strconv.Itoa(os.Getpid()), strings.ToLower(ulid.Make().String())}, "-")
}
