package parsejob

const (
	WorkflowName = "parse_excel_file"
	ActivityName = "parse_excel_run"
)
