package generation

import "regexp"

// credentialParams matches credential-bearing query parameters that the
// net/http error text can embed via the request URL.
var credentialParams = regexp.MustCompile(`(access_token|client_secret|client_id|api_key)=[^&\s"]*`)

// redactCredentials strips credential query parameters from a message
// before it is attached to an error. Upstream diagnostics are worth
// keeping; leaked tokens are not.
func redactCredentials(msg string) string {
	return credentialParams.ReplaceAllString(msg, "$1=REDACTED")
}
