package portal

import "regexp"

const awsAccountApplication = "AWS Account"

var (
	// first non empty group without nested parentheses, so "12 Dev (A) (B)"
	// yields "A" and "1 (Prod (EU))" yields "EU"
	accountNameRe = regexp.MustCompile(`\(([^()]+)\)`)
	accountIDRe   = regexp.MustCompile(`^(\d+)`)
)

// AccountName returns the first parenthesised text in the instance name,
// e.g. "123456789012 (Production)" -> "Production".
func (a *AppInstance) AccountName() (string, bool) {
	return firstGroup(accountNameRe, a.Name)
}

// AccountID returns the digits the instance name starts with.
func (a *AppInstance) AccountID() (string, bool) {
	return firstGroup(accountIDRe, a.Name)
}

// IsAWSAccount reports whether the instance federates into an AWS account.
func (a *AppInstance) IsAWSAccount() bool {
	return a.ApplicationName == awsAccountApplication
}

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
