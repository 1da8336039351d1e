package client

import (
	"net/http"

	"github.com/pkg/errors"
)

// Transport attaches the stored token to every request and forgets it as
// soon as the gateway answers 401.
type Transport struct {
	Base  http.RoundTripper
	Store TokenStore

	// OnUnauthorized is called after the token has been cleared.
	OnUnauthorized func()
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Store.Token()
	if err != nil {
		return nil, errors.Wrap(err, "loading token")
	}
	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusUnauthorized && token != "" {
		if err = t.Store.Clear(); err != nil {
			_ = res.Body.Close()
			return nil, errors.Wrap(err, "clearing token")
		}
		if t.OnUnauthorized != nil {
			t.OnUnauthorized()
		}
	}
	return res, nil
}
