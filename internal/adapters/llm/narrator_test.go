package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/localscan/internal/adapters/llm"
	"github.com/okian/localscan/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, body string) (*httptest.Server, *chatRequest, *string) {
	t.Helper()
	var req chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &req, &auth
}

func TestNewNarrator(t *testing.T) {
	Convey("Given no api key", t, func() {
		n, err := llm.NewNarrator(llm.Config{}, nil)

		Convey("Then construction should fail", func() {
			So(n, ShouldBeNil)
			So(errors.Is(err, llm.ErrNoAPIKey), ShouldBeTrue)
		})
	})
}

func TestComplete(t *testing.T) {
	Convey("Given a chat completion endpoint", t, func() {
		srv, req, auth := completionServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[
			{"index":0,"message":{"role":"assistant","content":"Pilot Type: Miner\nSummary: Quiet."}}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
		n, err := llm.NewNarrator(llm.Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, nil)
		So(err, ShouldBeNil)

		Convey("When completing a prompt", func() {
			text, err := n.Complete(context.Background(), "hello")

			Convey("Then the first choice should be returned", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "Pilot Type: Miner\nSummary: Quiet.")
			})

			Convey("And the request should carry the default parameters", func() {
				So(*auth, ShouldEqual, "Bearer sk-test")
				So(req.Model, ShouldEqual, "gpt-3.5-turbo")
				So(req.Temperature, ShouldAlmostEqual, 0.7, 0.0001)
				So(req.MaxTokens, ShouldEqual, 150)
				So(req.Messages, ShouldHaveLength, 1)
				So(req.Messages[0].Role, ShouldEqual, "user")
				So(req.Messages[0].Content, ShouldEqual, "hello")
			})
		})
	})

	Convey("Given an endpoint returning no choices", t, func() {
		srv, _, _ := completionServer(t, http.StatusOK, `{"choices":[]}`)
		n, _ := llm.NewNarrator(llm.Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)

		Convey("Then the empty completion error should be returned", func() {
			_, err := n.Complete(context.Background(), "hello")
			So(errors.Is(err, profile.ErrEmptyCompletion), ShouldBeTrue)
		})
	})

	Convey("Given an endpoint rejecting the request", t, func() {
		srv, _, _ := completionServer(t, http.StatusUnauthorized,
			`{"error":{"message":"bad key","type":"invalid_request_error"}}`)
		n, _ := llm.NewNarrator(llm.Config{APIKey: "sk-bad", BaseURL: srv.URL}, nil)

		Convey("Then an error should be returned", func() {
			text, err := n.Complete(context.Background(), "hello")
			So(err, ShouldNotBeNil)
			So(text, ShouldBeEmpty)
		})

		Convey("And the generator should yield no profile", func() {
			g := profile.NewGenerator(profile.WithCompleter(n))
			So(g.Generate(context.Background(), nil, nil), ShouldBeNil)
		})
	})
}
