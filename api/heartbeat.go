package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/heirloom-app/heirloom/internal/util"
	"github.com/heirloom-app/heirloom/liveness"
	"github.com/heirloom-app/heirloom/storage"
	"github.com/heirloom-app/heirloom/vault"
)

const (
	challengeLen = 32
	challengeTTL = 2 * time.Minute
)

// challengeStore tracks outstanding challenges. Every challenge is single-use
// and expires after challengeTTL, so a captured response cannot be replayed.
type challengeStore struct {
	mu     sync.Mutex
	issued map[string]time.Time
}

func newChallengeStore() *challengeStore {
	return &challengeStore{issued: make(map[string]time.Time)}
}

func (cs *challengeStore) issue() ([]byte, error) {
	challenge, err := util.RandomBytes(challengeLen)
	if err != nil {
		return nil, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, issuedAt := range cs.issued {
		if time.Since(issuedAt) > challengeTTL {
			delete(cs.issued, k)
		}
	}
	cs.issued[string(challenge)] = time.Now()
	return challenge, nil
}

// consume removes the challenge and reports whether it was outstanding and
// unexpired. A second consume of the same challenge always fails.
func (cs *challengeStore) consume(challenge []byte) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	issuedAt, ok := cs.issued[string(challenge)]
	if !ok {
		return false
	}
	delete(cs.issued, string(challenge))
	return time.Since(issuedAt) <= challengeTTL
}

// livenessRecord is the persisted last-seen state driving the testament
// dormancy clock.
type livenessRecord struct {
	LastSeen time.Time `json:"last_seen"`
}

const livenessRecordID = "last_seen"

func (a *API) handleIssueChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := a.challenges.issue()
	if err != nil {
		a.logger.Error("issuing challenge", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue challenge")
		return
	}
	writeJSON(w, http.StatusOK, ChallengeResponse{
		Challenge: util.Base64Encode(challenge),
	})
}

func (a *API) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var req CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	challenge, err := util.Base64Decode(req.Challenge)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid challenge encoding")
		return
	}
	response, err := util.Base64Decode(req.Response)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid response encoding")
		return
	}

	if !a.challenges.consume(challenge) {
		a.logger.Warn("check-in with unknown or reused challenge")
		writeError(w, http.StatusForbidden, "unknown or expired challenge")
		return
	}

	cfg, err := vault.LoadConfig(a.repo)
	if err != nil {
		a.logger.Error("loading vault config", "error", err)
		writeError(w, http.StatusInternalServerError, "vault not initialized")
		return
	}

	if !liveness.Verify(challenge, response, cfg.CheckinKey) {
		a.logger.Warn("check-in with invalid response")
		writeError(w, http.StatusForbidden, "invalid challenge response")
		return
	}

	now := time.Now().UTC()
	data, err := json.Marshal(livenessRecord{LastSeen: now})
	if err == nil {
		err = a.repo.Put(storage.RecordTypeLiveness, livenessRecordID, data)
	}
	if err != nil {
		a.logger.Error("recording check-in", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record check-in")
		return
	}

	a.logger.Info("heartbeat check-in accepted", "last_seen", now)
	writeJSON(w, http.StatusOK, CheckinAck{
		Status:   "ok",
		LastSeen: now.Format(time.RFC3339),
	})
}

func (a *API) handleLivenessStatus(w http.ResponseWriter, r *http.Request) {
	data, err := a.repo.Get(storage.RecordTypeLiveness, livenessRecordID)
	if err != nil {
		writeJSON(w, http.StatusOK, LivenessStatus{})
		return
	}
	var rec livenessRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		writeError(w, http.StatusInternalServerError, "corrupt liveness record")
		return
	}
	writeJSON(w, http.StatusOK, LivenessStatus{
		LastSeen: rec.LastSeen.Format(time.RFC3339),
	})
}
