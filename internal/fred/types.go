package fred

// observationsResp mirrors the FRED series/observations JSON response
// (trimmed to needed fields)
type observationsResp struct {
	ObservationStart string `json:"observation_start"`
	ObservationEnd   string `json:"observation_end"`
	Count            int    `json:"count"`
	Observations     []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// errorResp is the body FRED returns with 4xx/5xx statuses
type errorResp struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// missingValue is how FRED marks a date with no observation
const missingValue = "."

const dateLayout = "2006-01-02"
