// Package diagnose drives a publish attempt in the editor and explains what
// went wrong from the UI and console error text it observes.
package diagnose

import "strings"

// Probable causes, in report order.
const (
	CauseTLS        = "TLS_CERT_CHAIN_OR_PROXY_INTERCEPT"
	CauseNetwork    = "NETWORK_CONNECTIVITY_OR_PROXY"
	CauseDeployment = "WIX_DEPLOYMENT_SERVICE_FAILURE"
	CauseAuth       = "AUTH_OR_PERMISSION_ISSUE"
	CauseBuild      = "PROJECT_BUILD_OR_CODE_ERROR"
	CauseUnknown    = "UNKNOWN_REQUIRES_MANUAL_REVIEW"
)

type causeRule struct {
	cause    string
	keywords []string
}

var causeRules = []causeRule{
	{CauseTLS, []string{"self-signed", "certificate", "ssl", "tls", "certificate chain"}},
	{CauseNetwork, []string{"network error", "timeout", "failed to fetch", "econn", "enotfound"}},
	{CauseDeployment, []string{"failedtodeploydocument", "deploy document", "publish failed"}},
	{CauseAuth, []string{"forbidden", "unauthorized", "permission", "access denied"}},
	{CauseBuild, []string{"syntax", "compile", "build failed", "module not found"}},
}

// InferCauses matches the finding and console texts against keyword tables.
// It never returns an empty list.
func InferCauses(findings []Finding, consoleErrors []string) []string {
	parts := make([]string, 0, len(findings)+len(consoleErrors))
	for _, f := range findings {
		parts = append(parts, f.Text)
	}
	parts = append(parts, consoleErrors...)
	corpus := strings.ToLower(strings.Join(parts, "\n"))

	var causes []string
	for _, rule := range causeRules {
		for _, k := range rule.keywords {
			if strings.Contains(corpus, k) {
				causes = append(causes, rule.cause)
				break
			}
		}
	}
	if len(causes) == 0 {
		causes = append(causes, CauseUnknown)
	}
	return causes
}
