package httphandler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPServer(t *testing.T) {
	s := NewHTTPServer("127.0.0.1:0", http.NewServeMux(), time.Second)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(cancel)
	}()

	// Run returns ErrServerClosed whether or not it is listening yet.
	s.Close(t.Context())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
