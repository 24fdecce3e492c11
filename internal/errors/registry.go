package errors

// Registered error codes.
const (
	CodeNotConnected      = "E101"
	CodeDuplicateStream   = "E102"
	CodeMalformed         = "E103"
	CodeNoFrameAvailable  = "E104"
	CodeProtocolViolation = "E105"
	CodeClosed            = "E106"
	CodeInvalidParams     = "E107"
	CodeStreamNotFound    = "E108"
	CodeConfig            = "E201"
	CodeConfigNotFound    = "E202"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Transport Errors (E100-E119)
	// ============================================

	CodeNotConnected: {
		Category:   CategoryTransport,
		Message:    "Connection is not open",
		Detail:     "A frame was sent while the connection was connecting, reconnecting or closed.",
		Suggestion: "Wait for the Open state (see the state-change hook) or re-open the connection.",
	},
	CodeClosed: {
		Category: CategoryTransport,
		Message:  "Connection closed",
		Detail:   "The connection was closed explicitly and cannot be reopened.",
	},

	// ============================================
	// Stream Errors
	// ============================================

	CodeDuplicateStream: {
		Category:   CategoryStream,
		Message:    "Stream element ID already registered",
		Detail:     "Another stream session owns this element ID.",
		Suggestion: "Choose a different element ID or close the existing stream first.",
	},
	CodeNoFrameAvailable: {
		Category:   CategoryStream,
		Message:    "No frame available",
		Detail:     "The stream has not delivered a keyframe since it was opened.",
		Suggestion: "Retry once the first keyframe has been rendered.",
	},
	CodeStreamNotFound: {
		Category: CategoryStream,
		Message:  "Stream not found",
		Detail:   "No stream session is registered under this element ID.",
	},
	CodeInvalidParams: {
		Category: CategoryValidation,
		Message:  "Invalid stream parameters",
		Detail:   "An element ID, a media ID and one routing group (CamID+ChnID or StitchID+StitchIndex+StitchChnID) are required.",
	},

	// ============================================
	// Protocol Errors
	// ============================================

	CodeMalformed: {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "The frame is truncated or its header is inconsistent with its length.",
	},
	CodeProtocolViolation: {
		Category: CategoryProtocol,
		Message:  "Protocol violation",
		Detail:   "The frame is valid but not permitted on this endpoint.",
	},

	// ============================================
	// Config Errors (E200-E219)
	// ============================================

	CodeConfig: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file contains invalid values.",
	},
	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create camlink.json or pass --config.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
