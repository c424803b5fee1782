package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Requests carry the application user agent unless one is set", t, func() {
		agents := make(chan string, 2)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agents <- r.UserAgent()
		}))
		defer server.Close()

		resp, err := Client.Get(server.URL)
		So(err, ShouldBeNil)
		So(resp.Body.Close(), ShouldBeNil)
		So(<-agents, ShouldEqual, UserAgent)

		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		So(err, ShouldBeNil)
		req.Header.Set("User-Agent", "custom")
		resp, err = Client.Do(req)
		So(err, ShouldBeNil)
		So(resp.Body.Close(), ShouldBeNil)
		So(<-agents, ShouldEqual, "custom")
	})
}
