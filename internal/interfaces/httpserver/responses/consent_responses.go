package responses

import (
	"time"

	"jan-server/services/consent-api/internal/domain/consent"
	"jan-server/services/consent-api/internal/domain/ledger"
	"jan-server/services/consent-api/internal/domain/pipeline"
	"jan-server/services/consent-api/internal/domain/recording"
)

// RecordingResponse describes a stored recording.
type RecordingResponse struct {
	Key           string    `json:"key"`
	URL           string    `json:"url"`
	Mime          string    `json:"mime"`
	Bytes         int64     `json:"bytes"`
	Campaign      string    `json:"campaign"`
	StoredAt      time.Time `json:"stored_at"`
	LedgerUpdated bool      `json:"ledger_updated"`
	LedgerWarning string    `json:"ledger_warning,omitempty"`
}

func NewRecordingResponse(result *recording.Result) *RecordingResponse {
	if result == nil {
		return nil
	}
	resp := &RecordingResponse{
		Key:           result.Key,
		URL:           result.Location,
		Mime:          result.MediaType,
		Bytes:         result.Bytes,
		Campaign:      result.Campaign,
		StoredAt:      result.StoredAt,
		LedgerUpdated: result.LedgerWarning == nil,
	}
	if result.LedgerWarning != nil {
		resp.LedgerWarning = result.LedgerWarning.Error()
	}
	return resp
}

// SessionResponse is the public view of a capture session.
type SessionResponse struct {
	ID               string             `json:"id"`
	State            string             `json:"state"`
	Campaign         string             `json:"campaign,omitempty"`
	Language         string             `json:"language,omitempty"`
	MediaType        string             `json:"media_type"`
	RemainingSeconds float64            `json:"remaining_seconds"`
	BufferedBytes    int64              `json:"buffered_bytes"`
	StopReason       string             `json:"stop_reason,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	Finished         bool               `json:"finished"`
	Recording        *RecordingResponse `json:"recording,omitempty"`
	Error            string             `json:"error,omitempty"`
	Consent          *consent.Script    `json:"consent,omitempty"`
}

func NewSessionResponse(st pipeline.Status) SessionResponse {
	resp := SessionResponse{
		ID:               st.ID,
		State:            st.State.String(),
		Campaign:         st.Campaign,
		Language:         st.Language,
		MediaType:        st.MediaType,
		RemainingSeconds: st.Remaining.Seconds(),
		BufferedBytes:    st.BufferedBytes,
		StopReason:       string(st.Reason),
		CreatedAt:        st.CreatedAt,
		Finished:         st.Finished,
		Recording:        NewRecordingResponse(st.Result),
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	return resp
}

// LedgerResponse lists the ledger rows.
type LedgerResponse struct {
	Key     string         `json:"key"`
	Total   int            `json:"total"`
	Entries []ledger.Entry `json:"entries"`
}

// LanguagesResponse lists supported consent languages.
type LanguagesResponse struct {
	Default   string             `json:"default"`
	Languages []consent.Language `json:"languages"`
}

// ConsentResponse is the script for one language.
type ConsentResponse struct {
	Requested string `json:"requested"`
	Fallback  bool   `json:"fallback"`
	consent.Script
}
