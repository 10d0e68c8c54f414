package handle

import (
	"context"
	"errors"
	"net/http"

	"azure-playground/api/internal/azrest"
)

// vendorStatus maps a failed upstream call to the gateway's status code.
func vendorStatus(err error) int {
	var re *azrest.ResponseError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &re) && (re.StatusCode == http.StatusBadRequest || re.StatusCode == http.StatusTooManyRequests):
		return re.StatusCode
	default:
		return http.StatusBadGateway
	}
}

func writeVendorError(w http.ResponseWriter, op string, err error) {
	writeError(w, vendorStatus(err), op+" error: "+err.Error())
}
