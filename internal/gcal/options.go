package gcal

import (
	"net"
	"net/http"
	"time"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
)

// Proxy is an HTTP proxy for calls to the calendar service.
type Proxy struct {
	Addr     string // host:port
	User     string
	Password string
}

type options struct {
	calendarID      string
	pageSize        int64
	location        *time.Location
	credentialsFile string
	proxy           *Proxy
	httpClient      *http.Client
	endpoint        string
	timeout         time.Duration
}

// Option configures a Client.
type Option func(*options) error

func defaultOptions() *options {
	return &options{
		calendarID: constants.DefaultCalendarID,
		pageSize:   constants.DefaultPageSize,
		location:   time.Local,
		timeout:    constants.DefaultHTTPTimeout,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithCalendarID selects the calendar to sync with.
func WithCalendarID(id string) Option {
	return func(o *options) error {
		if id == "" {
			return errors.NewValidationError("calendar_id", id, "cannot be empty")
		}
		o.calendarID = id
		return nil
	}
}

// WithPageSize sets how many events one list request returns.
func WithPageSize(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxPageSize {
			return errors.NewValidationError("page_size", n, "must be between 1 and 2500")
		}
		o.pageSize = int64(n)
		return nil
	}
}

// WithLocation sets the zone that remote times are converted to.
func WithLocation(loc *time.Location) Option {
	return func(o *options) error {
		if loc == nil {
			return errors.NewValidationError("location", nil, "cannot be nil")
		}
		o.location = loc
		return nil
	}
}

// WithCredentialsFile uses the given credential JSON instead of Application
// Default Credentials.
func WithCredentialsFile(path string) Option {
	return func(o *options) error {
		o.credentialsFile = path
		return nil
	}
}

// WithProxy routes calls through an HTTP proxy.
func WithProxy(p *Proxy) Option {
	return func(o *options) error {
		if p == nil || p.Addr == "" {
			o.proxy = nil
			return nil
		}
		if _, _, err := net.SplitHostPort(p.Addr); err != nil {
			return errors.NewValidationError("http_proxy", p.Addr, "expected host:port")
		}
		o.proxy = p
		return nil
	}
}

// WithHTTPClient uses hc for all calls and skips credential discovery.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		o.httpClient = hc
		return nil
	}
}

// WithEndpoint overrides the service base URL.
func WithEndpoint(url string) Option {
	return func(o *options) error {
		o.endpoint = url
		return nil
	}
}

// WithTimeout bounds credential discovery and each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("timeout", d, "must be positive")
		}
		o.timeout = d
		return nil
	}
}
