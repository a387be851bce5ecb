package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are module-prefixed: NRM (normalizer), CAT (catalog), SCR (scoring),
// EXT (extraction), SYN (synthesis), TRN (training), KNW (knowledge),
// COMMON for cross-cutting conditions.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeConfiguration      ErrorCode = "COMMON_011"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_012"
	ErrCodeUnknown            ErrorCode = "COMMON_099"
)

// Short aliases used at call sites throughout the codebase.
const (
	CodeInternal        = ErrCodeInternal
	CodeInvalidParam    = ErrCodeBadRequest
	CodeNotFound        = ErrCodeNotFound
	CodeConflict        = ErrCodeConflict
	CodeTimeout         = ErrCodeTimeout
	CodeValidation      = ErrCodeValidation
	CodeSerialization   = ErrCodeSerialization
	CodeDatabaseError   = ErrCodeDatabaseError
	CodeCacheError      = ErrCodeCacheError
	CodeExternalService = ErrCodeExternalService
	CodeConfiguration   = ErrCodeConfiguration
	CodeUnavailable     = ErrCodeServiceUnavailable
	CodeUnknown         = ErrCodeUnknown
	CodeOK              = ErrorCode("OK")

	// Domain-specific aliases
	CodeMissingParameter      = ErrCodeNormMissingParameter
	CodeUnsupportedConversion = ErrCodeNormUnsupportedConversion
	CodeCompositeNotFound     = ErrCodeCatalogCompositeNotFound
	CodeArticleNotFound       = ErrCodeCorpusArticleNotFound
	CodeInsufficientData      = ErrCodeTrainInsufficientData
	CodeModelNotTrained       = ErrCodeTrainModelNotTrained
	CodeModelNotFound         = ErrCodeTrainModelNotFound
)

// EMG Normalizer error codes
const (
	ErrCodeNormUnknownMuscle         ErrorCode = "NRM_001"
	ErrCodeNormUnknownCondition      ErrorCode = "NRM_002"
	ErrCodeNormUnsupportedConversion ErrorCode = "NRM_003"
	ErrCodeNormMissingParameter      ErrorCode = "NRM_004"
	ErrCodeNormInvalidValue          ErrorCode = "NRM_005"
)

// Composite catalog error codes
const (
	ErrCodeCatalogMissingKey         ErrorCode = "CAT_001"
	ErrCodeCatalogCompositeNotFound  ErrorCode = "CAT_002"
	ErrCodeCatalogParseFailed        ErrorCode = "CAT_003"
	ErrCodeCatalogInvalidCriteria    ErrorCode = "CAT_004"
	ErrCodeCatalogUnknownWearGrade   ErrorCode = "CAT_005"
)

// Scoring engine error codes
const (
	ErrCodeScoreInvalidWeights  ErrorCode = "SCR_001"
	ErrCodeScoreMissingProfile  ErrorCode = "SCR_002"
	ErrCodeScoreInvalidTopN     ErrorCode = "SCR_003"
)

// Clinical extraction / corpus error codes
const (
	ErrCodeCorpusArticleNotFound ErrorCode = "EXT_001"
	ErrCodeCorpusFetchFailed     ErrorCode = "EXT_002"
	ErrCodeCorpusParseFailed     ErrorCode = "EXT_003"
)

// Synthetic augmentation error codes
const (
	ErrCodeSynthUnknownCategory ErrorCode = "SYN_001"
	ErrCodeSynthInvalidRatio    ErrorCode = "SYN_002"
)

// Trainer error codes
const (
	ErrCodeTrainInsufficientData ErrorCode = "TRN_001"
	ErrCodeTrainModelNotTrained  ErrorCode = "TRN_002"
	ErrCodeTrainModelNotFound    ErrorCode = "TRN_003"
	ErrCodeTrainArtifactCorrupt  ErrorCode = "TRN_004"
	ErrCodeTrainEnsembleFallback ErrorCode = "TRN_005"
	ErrCodeTrainFeatureMismatch  ErrorCode = "TRN_006"
)

// Knowledge extractor error codes
const (
	ErrCodeKnowledgeEmptyCorpus ErrorCode = "KNW_001"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeConfiguration:      http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeUnknown:            http.StatusInternalServerError,

	ErrCodeNormUnknownMuscle:         http.StatusBadRequest,
	ErrCodeNormUnknownCondition:      http.StatusBadRequest,
	ErrCodeNormUnsupportedConversion: http.StatusUnprocessableEntity,
	ErrCodeNormMissingParameter:      http.StatusBadRequest,
	ErrCodeNormInvalidValue:          http.StatusBadRequest,

	ErrCodeCatalogMissingKey:        http.StatusInternalServerError,
	ErrCodeCatalogCompositeNotFound: http.StatusNotFound,
	ErrCodeCatalogParseFailed:       http.StatusInternalServerError,
	ErrCodeCatalogInvalidCriteria:   http.StatusInternalServerError,
	ErrCodeCatalogUnknownWearGrade:  http.StatusBadRequest,

	ErrCodeScoreInvalidWeights: http.StatusInternalServerError,
	ErrCodeScoreMissingProfile: http.StatusBadRequest,
	ErrCodeScoreInvalidTopN:    http.StatusBadRequest,

	ErrCodeCorpusArticleNotFound: http.StatusNotFound,
	ErrCodeCorpusFetchFailed:     http.StatusBadGateway,
	ErrCodeCorpusParseFailed:     http.StatusUnprocessableEntity,

	ErrCodeSynthUnknownCategory: http.StatusBadRequest,
	ErrCodeSynthInvalidRatio:    http.StatusBadRequest,

	ErrCodeTrainInsufficientData: http.StatusUnprocessableEntity,
	ErrCodeTrainModelNotTrained:  http.StatusConflict,
	ErrCodeTrainModelNotFound:    http.StatusNotFound,
	ErrCodeTrainArtifactCorrupt:  http.StatusInternalServerError,
	ErrCodeTrainEnsembleFallback: http.StatusInternalServerError,
	ErrCodeTrainFeatureMismatch:  http.StatusBadRequest,

	ErrCodeKnowledgeEmptyCorpus: http.StatusNotFound,
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
// Unmapped codes default to 500.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether the code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether the code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500
}

// ModuleForCode returns the module prefix of a code ("NRM", "TRN", ...).
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return s
}
