package diag

// Stable diagnostic codes. These are part of the external contract (spec
// §6) and must never be renumbered once assigned.
const (
	// Syntax (MQL-SYN-####)
	CodeUnterminatedComment = "MQL-SYN-0001"
	CodeUnexpectedToken     = "MQL-SYN-0002"
	CodeExpectedToken       = "MQL-SYN-0003"
	CodeSelectWithoutFrom   = "MQL-SYN-0004"
	CodeJoinWithoutOn       = "MQL-SYN-0005"
	CodeCrossJoinWithOn     = "MQL-SYN-0006"
	CodeLateralNeedsAlias   = "MQL-SYN-0007"
	CodeDerivedNeedsAlias   = "MQL-SYN-0008"
	CodeDuplicateCteName    = "MQL-SYN-0009"
	CodeDuplicateAlias      = "MQL-SYN-0010"
	CodeInvalidNumber       = "MQL-SYN-0011"
	CodeUnterminatedString  = "MQL-SYN-0012"

	// Semantic (MQL-SEM-####)
	CodeMixedProjection        = "MQL-SEM-0101"
	CodeAggregateMustStandAlone = "MQL-SEM-0102"
	CodeUnknownAlias           = "MQL-SEM-0103"
	CodeExcludeNeedsStar       = "MQL-SEM-0104"
	CodeToListNeedsOneColumn   = "MQL-SEM-0105"
	CodeToTableNeedsTagOnly    = "MQL-SEM-0106"
	CodeUnscopedTextDump       = "MQL-SEM-0301"
	CodeBadOrderByField        = "MQL-SEM-0108"
	CodeBadSummarizeOrderBy    = "MQL-SEM-0109"
	CodeAttributesMapCompare   = "MQL-SEM-0110"
	CodeQualifierNotBound      = "MQL-SEM-0111"
	CodeExportSinkIncompatible = "MQL-SEM-0112"
	CodeLimitOutOfRange        = "MQL-SEM-0113"

	// Runtime (MQL-RUN-####)
	CodeFileReadFailed    = "MQL-RUN-0201"
	CodeURLFetchFailed    = "MQL-RUN-0202"
	CodeContentTypeBad    = "MQL-RUN-0203"
	CodeFragmentTooLarge  = "MQL-RUN-0204"
	CodeTooManyFragments  = "MQL-RUN-0205"
	CodeFragmentBytesOver = "MQL-RUN-0206"
	CodeLoaderTimeout     = "MQL-RUN-0207"
	CodeInvalidSourceURI  = "MQL-RUN-0208"
	CodeRuntimeFailure    = "MQL-RUN-0209"
)
