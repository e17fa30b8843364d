package gcal

import (
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/agentstation/mhcgcal/pkg/errors"
)

// wrapAPI converts a service error into an APIError carrying its status, so
// callers can test it with errors.Is against the sentinel errors.
func wrapAPI(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		if id != "" {
			msg = op + " " + id + ": " + msg
		} else {
			msg = op + ": " + msg
		}
		return &errors.APIError{
			Service:    serviceName,
			StatusCode: gerr.Code,
			Message:    msg,
			Err:        err,
		}
	}
	return errors.WrapResource(op, "remote event", id, err)
}
