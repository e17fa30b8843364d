package gcal

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"cloud.google.com/go/auth/httptransport"
	"google.golang.org/api/calendar/v3"

	"github.com/agentstation/mhcgcal/pkg/errors"
)

const credentialDetectTimeout = 2 * time.Second

// detectCredentials finds credentials with the calendar scope.
// DetectDefault does not take a context, so it runs in a goroutine bounded
// by a short timeout.
func detectCredentials(ctx context.Context, o *options) (*auth.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	method := "adc"
	if o.credentialsFile != "" {
		method = "credentials_file"
	}

	type result struct {
		creds *auth.Credentials
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes:          []string{calendar.CalendarScope},
			CredentialsFile: o.credentialsFile,
		})
		ch <- result{creds: creds, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, errors.NewAuthenticationError(serviceName, method,
				"no valid credentials found - run 'gcloud auth application-default login' or set credentials_file", res.err)
		}
		return res.creds, nil
	case <-time.After(credentialDetectTimeout):
		return nil, errors.NewAuthenticationError(serviceName, method,
			"credential detection timed out", nil)
	case <-ctx.Done():
		return nil, errors.NewAuthenticationError(serviceName, method,
			"credential detection cancelled", ctx.Err())
	}
}

// newHTTPClient builds an authenticated client, routed through the proxy
// when one is configured.
func newHTTPClient(creds *auth.Credentials, o *options) (*http.Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if o.proxy != nil {
		u := &url.URL{Scheme: "http", Host: o.proxy.Addr}
		if o.proxy.User != "" {
			u.User = url.UserPassword(o.proxy.User, o.proxy.Password)
		}
		base.Proxy = http.ProxyURL(u)
	}

	hc, err := httptransport.NewClient(&httptransport.Options{
		Credentials:      creds,
		BaseRoundTripper: base,
	})
	if err != nil {
		return nil, errors.NewAuthenticationError(serviceName, "transport", "cannot build HTTP client", err)
	}
	hc.Timeout = o.timeout
	return hc, nil
}
