package mojang

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quasar/launchercore/internal/envelope"
)

// errorBody is the shape every Yggdrasil error response carries.
type errorBody struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	Cause        string `json:"cause"`
}

// classifyErrorBody maps a non-2xx Yggdrasil response body onto a
// provider code per spec §4.5.1's exception/message table.
func classifyErrorBody(raw []byte) (envelope.ProviderCode, error) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return envelope.CodeUnknown, fmt.Errorf("mojang: unrecognized error response: %s", string(raw))
	}

	switch body.Error {
	case "Method Not Allowed":
		return envelope.CodeMethodNotAllowed, fmt.Errorf("mojang: %s", body.ErrorMessage)
	case "Not Found":
		return envelope.CodeNotFound, fmt.Errorf("mojang: %s", body.ErrorMessage)
	case "Unsupported Media Type":
		return envelope.CodeUnsupportedMediaType, fmt.Errorf("mojang: %s", body.ErrorMessage)
	case "ForbiddenOperationException":
		return classifyForbiddenOperation(body)
	case "IllegalArgumentException":
		return classifyIllegalArgument(body)
	case "ResourceException", "GoneException":
		return envelope.CodeGone, fmt.Errorf("mojang: %s", body.ErrorMessage)
	default:
		return envelope.CodeUnknown, fmt.Errorf("mojang: %s: %s", body.Error, body.ErrorMessage)
	}
}

func classifyForbiddenOperation(body errorBody) (envelope.ProviderCode, error) {
	err := fmt.Errorf("mojang: %s", body.ErrorMessage)
	switch {
	case body.Cause == "UserMigratedException":
		return envelope.CodeUserMigrated, err
	case body.ErrorMessage == "Invalid credentials. Invalid username or password.":
		return envelope.CodeInvalidCredentials, err
	case body.ErrorMessage == "Invalid credentials.":
		return envelope.CodeRatelimit, err
	case body.ErrorMessage == "Invalid token.":
		return envelope.CodeInvalidToken, err
	case body.ErrorMessage == "Forbidden":
		return envelope.CodeCredentialsMissing, err
	default:
		return envelope.CodeUnknown, err
	}
}

func classifyIllegalArgument(body errorBody) (envelope.ProviderCode, error) {
	err := fmt.Errorf("mojang: %s", body.ErrorMessage)
	switch body.ErrorMessage {
	case "Access token already has a profile assigned.":
		return envelope.CodeAccessTokenHasProfile, err
	case "Invalid salt version":
		return envelope.CodeInvalidSaltVersion, err
	default:
		return envelope.CodeUnknown, err
	}
}

// classifyTransportError maps a failure that never reached the server
// (DNS resolution, connection refused, timeout) onto CodeUnreachable.
func classifyTransportError(err error) envelope.ProviderCode {
	if err == nil {
		return envelope.CodeNone
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network is unreachable") {
		return envelope.CodeUnreachable
	}
	return envelope.CodeUnknown
}
