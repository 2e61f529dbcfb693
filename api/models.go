package api

// ErrorResponse is the JSON body returned for all error statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChallengeResponse carries a freshly issued heartbeat challenge.
type ChallengeResponse struct {
	Challenge string `json:"challenge"`
}

// CheckinRequest is the client's answer to a challenge.
type CheckinRequest struct {
	Challenge string `json:"challenge"`
	Response  string `json:"response"`
}

// CheckinAck acknowledges an accepted check-in.
type CheckinAck struct {
	Status   string `json:"status"`
	LastSeen string `json:"last_seen"`
}

// LivenessStatus reports the last accepted check-in, empty when none yet.
type LivenessStatus struct {
	LastSeen string `json:"last_seen,omitempty"`
}
