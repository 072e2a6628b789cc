package nats

import (
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// jetStreamNew is a variable to allow mocking in tests.
var jetStreamNew = func(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// Connect opens a NATS connection with the client name set.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(url, nats.Name(name))
}
