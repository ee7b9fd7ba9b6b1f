package model

// PatchMIMEType is the MIME type drupal.org reports for .patch and .diff files.
const PatchMIMEType = "text/x-diff"

// issueStatusLabels maps drupal.org issue status codes to labels.
var issueStatusLabels = map[int]string{
	1:  "active",
	2:  "fixed",
	3:  "closed",
	4:  "postponed",
	5:  "closed",
	6:  "closed",
	7:  "fixed", // closed (fixed)
	8:  "needs review",
	13: "needs work",
	14: "rtbc",
	15: "patch",
	16: "postponed",
	18: "closed",
}

// IssueStatusLabel translates a drupal.org issue status code to a readable
// label. Unknown codes map to the empty string.
func IssueStatusLabel(code int) string {
	return issueStatusLabels[code]
}

// IsPatch reports whether the file is a patch.
func (f File) IsPatch() bool {
	return f.MIME == PatchMIMEType
}
