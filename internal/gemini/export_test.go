package gemini

var (
	FunctionDeclarations = functionDeclarations
	BuildContents        = buildContents
	IntentFromResponse   = intentFromResponse
	Retryable            = retryable
)
