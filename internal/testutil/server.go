// Package testutil provides shared fixtures for client tests.
package testutil

import (
	"net"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// ServeFiber starts app on a loopback port and returns its base URL. The app
// is shut down when the test ends.
func ServeFiber(t testing.TB, app *fiber.App) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})

	return "http://" + ln.Addr().String()
}
