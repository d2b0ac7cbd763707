package email

const (
	subjectValuationSummaryFmt = "Su estudio de valor de mercado · %s"
	subjectValuationFallback   = "Su estudio de valor de mercado"
)
