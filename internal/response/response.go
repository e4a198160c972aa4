package response

import "github.com/yourname/habitcoach/internal"

// ErrorBody flattens an AppError into the JSON object the API returns.
// Hint fields such as nextAvailableDate sit at the top level next to
// the error text, matching what clients already parse. Coded errors
// carry their text under "message" beside "code"; uncoded ones use
// the plain "error" key.
func ErrorBody(err *internal.AppError) map[string]interface{} {
	body := make(map[string]interface{}, len(err.Fields)+2)
	for k, v := range err.Fields {
		body[k] = v
	}
	if err.Code != "" {
		body["code"] = err.Code
		body["message"] = err.Message
	} else {
		body["error"] = err.Message
	}
	return body
}
