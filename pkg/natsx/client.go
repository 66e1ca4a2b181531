// Package natsx connects to the NATS server named by the NATS_URL
// environment variable, for fanning session events out beyond the local
// process.
package natsx

import (
	"os"

	"github.com/nats-io/nats.go"
)

// NewClient dials NATS_URL. Without explicit options the connection is
// named "rivulet" and uses compression.
func NewClient(opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name("rivulet"), nats.Compression(true))
	}
	return nats.Connect(os.Getenv("NATS_URL"), opts...)
}
