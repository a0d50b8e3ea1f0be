package email

const (
	subjectTaskAlertFmt   = "[%s] New follow-up for %s"
	subjectTaskOverdueFmt = "Overdue follow-up for %s"
)
