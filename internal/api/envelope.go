package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/askboard/askboard-server/internal/http/response"
)

// EnvelopeTransformer wraps every response body huma writes, errors
// included, in the versioned response envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case nil:
		return response.Success(nil), nil
	case response.Envelope, *response.Envelope:
		return v, nil
	case *APIError:
		return response.Failure(body.Code, body.Message, body.Details), nil
	case *huma.ErrorModel:
		var details any
		if len(body.Errors) > 0 {
			details = body.Errors
		}
		return response.Failure(string(response.StatusCode(body.Status)), body.Detail, details), nil
	default:
		return response.Success(v), nil
	}
}
