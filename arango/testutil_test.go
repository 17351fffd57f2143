package arango

import (
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
)

// testPrefix is the path prefix every request carries for the test database.
const testPrefix = "/_db/test"

// testConnection points a connection at the given fake server.
func testConnection(t *testing.T, srv *httptest.Server) *Connection {
	t.Helper()

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("failed to parse test server port: %v", err)
	}

	return NewConnection(Config{
		Host:       u.Hostname(),
		Port:       port,
		Database:   "test",
		Username:   "root",
		Password:   "secret",
		HTTPClient: srv.Client(),
	})
}
